package models

import "time"

// Asset is the local metadata record for a media item hosted remotely.
// RemoteID mirrors the media host's identifier and is globally unique.
type Asset struct {
	ID           int64     `json:"id"`
	RemoteID     int64     `json:"wp_media_id"`
	Title        string    `json:"title"`
	FileName     string    `json:"file_name"`
	MimeType     string    `json:"mime_type"`
	URLFull      string    `json:"url_full"`
	URLThumbnail string    `json:"url_thumbnail"`
	URLMedium    string    `json:"url_medium"`
	UserID       int64     `json:"user_id,omitempty"`
	TenantID     int64     `json:"tenant_id,omitempty"`
	AlbumID      int64     `json:"album_id,omitempty"`
	IsPublic     bool      `json:"is_public"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Album groups assets. Albums nest via ParentID (0 means top-level)
// and carry their own visibility flag.
type Album struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UserID      int64     `json:"user_id,omitempty"`
	TenantID    int64     `json:"tenant_id,omitempty"`
	ParentID    int64     `json:"parent_id,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User is an ownership entity. Authentication is handled by an external
// collaborator; this record only carries identity and tenant membership.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TenantID  int64     `json:"tenant_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Tenant is the top-level ownership entity.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// AssetFilter selects assets for listing. Zero values mean "no filter"
// for that dimension; id 0 is never a valid row id. Search must already
// be sanitized for LIKE (see validate.SanitizeSearchQuery).
type AssetFilter struct {
	Page       int
	PerPage    int
	Search     string
	TenantID   int64
	UserID     int64
	AlbumID    int64
	PublicOnly bool
}

// AssetPage is one page of a filtered asset listing.
type AssetPage struct {
	Assets  []Asset `json:"assets"`
	HasMore bool    `json:"has_more"`
}

// Scope restricts a mutation to rows owned by a tenant and/or user.
// The unrestricted scope is the explicit administrative override, a
// distinct variant rather than an all-zero restricted scope.
type Scope struct {
	restricted bool
	tenantID   int64
	userID     int64
}

// Unrestricted returns the administrative scope matching every row.
func Unrestricted() Scope {
	return Scope{}
}

// Restricted returns a scope matching rows owned by the given tenant
// and/or user. A zero id leaves that dimension unrestricted.
func Restricted(tenantID, userID int64) Scope {
	return Scope{restricted: true, tenantID: tenantID, userID: userID}
}

// IsUnrestricted reports whether the scope matches every row.
func (s Scope) IsUnrestricted() bool {
	return !s.restricted || (s.tenantID == 0 && s.userID == 0)
}

// TenantID returns the tenant restriction, 0 when unrestricted.
func (s Scope) TenantID() int64 {
	if !s.restricted {
		return 0
	}
	return s.tenantID
}

// UserID returns the user restriction, 0 when unrestricted.
func (s Scope) UserID() int64 {
	if !s.restricted {
		return 0
	}
	return s.userID
}
