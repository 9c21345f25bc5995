package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidParent means the requested parent album does not exist or
// is not visible within the caller's scope.
var ErrInvalidParent = errors.New("invalid parent album")

// ErrOwnParent means an album was asked to become its own parent.
var ErrOwnParent = errors.New("album cannot be its own parent")

// AlbumStore is the album storage consumed by the album service.
type AlbumStore interface {
	CreateAlbum(ctx context.Context, al *models.Album) (int64, error)
	GetAlbum(ctx context.Context, id int64) (*models.Album, error)
	ListAlbums(ctx context.Context, tenantID, userID int64) ([]models.Album, error)
	UpdateAlbum(ctx context.Context, al *models.Album) (bool, error)
	DeleteAlbum(ctx context.Context, id int64) (bool, error)
}

// AlbumService manages albums and performs ownership checks. Albums
// outside the caller's scope behave as if they do not exist.
type AlbumService struct {
	store AlbumStore
}

// NewAlbumService creates an album service
func NewAlbumService(store AlbumStore) *AlbumService {
	return &AlbumService{store: store}
}

// Get returns an album by id when it exists and is visible within
// scope; nil otherwise.
func (s *AlbumService) Get(ctx context.Context, id int64, scope models.Scope) (*models.Album, error) {
	al, err := s.store.GetAlbum(ctx, id)
	if err != nil {
		return nil, err
	}
	if al == nil {
		return nil, nil
	}
	if tid := scope.TenantID(); tid != 0 && al.TenantID != tid {
		return nil, nil
	}
	if uid := scope.UserID(); uid != 0 && al.UserID != uid {
		return nil, nil
	}
	return al, nil
}

// List returns albums visible within scope, newest first
func (s *AlbumService) List(ctx context.Context, scope models.Scope) ([]models.Album, error) {
	return s.store.ListAlbums(ctx, scope.TenantID(), scope.UserID())
}

// Create validates the parent reference and stores a new album
func (s *AlbumService) Create(ctx context.Context, al *models.Album, scope models.Scope) (*models.Album, error) {
	ctx, span := tracer.Start(ctx, "gallery.create_album",
		trace.WithAttributes(attribute.String("name", al.Name)),
	)
	defer span.End()

	if al.ParentID != 0 {
		parent, err := s.Get(ctx, al.ParentID, scope)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if parent == nil {
			return nil, ErrInvalidParent
		}
	}

	id, err := s.store.CreateAlbum(ctx, al)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	span.SetAttributes(attribute.Int64("album_id", id))
	return s.store.GetAlbum(ctx, id)
}

// Update modifies an album within scope. Only direct self-parenting is
// rejected; deeper cycles are not checked.
func (s *AlbumService) Update(ctx context.Context, al *models.Album, scope models.Scope) (bool, error) {
	ctx, span := tracer.Start(ctx, "gallery.update_album",
		trace.WithAttributes(attribute.Int64("album_id", al.ID)),
	)
	defer span.End()

	existing, err := s.Get(ctx, al.ID, scope)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	if al.ParentID != 0 {
		if al.ParentID == al.ID {
			return false, ErrOwnParent
		}
		parent, err := s.Get(ctx, al.ParentID, scope)
		if err != nil {
			span.RecordError(err)
			return false, err
		}
		if parent == nil {
			return false, ErrInvalidParent
		}
	}
	return s.store.UpdateAlbum(ctx, al)
}

// Delete removes an album within scope. Member assets survive with
// their album reference cleared by the store.
func (s *AlbumService) Delete(ctx context.Context, id int64, scope models.Scope) (bool, error) {
	ctx, span := tracer.Start(ctx, "gallery.delete_album",
		trace.WithAttributes(attribute.Int64("album_id", id)),
	)
	defer span.End()

	existing, err := s.Get(ctx, id, scope)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if existing == nil {
		return false, nil
	}
	return s.store.DeleteAlbum(ctx, id)
}
