package storage

import (
	"strings"

	"github.com/maneesh/lumina/internal/models"
)

// assetConditions translates an AssetFilter into parameterized WHERE
// clauses. All dimensions combine with AND; values travel as query
// arguments, never as SQL text.
func assetConditions(f models.AssetFilter) ([]string, []any) {
	var clauses []string
	var args []any

	if f.TenantID != 0 {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, f.TenantID)
	}
	if f.UserID != 0 {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.AlbumID != 0 {
		clauses = append(clauses, "album_id = ?")
		args = append(args, f.AlbumID)
	}
	if f.PublicOnly {
		clauses = append(clauses, "is_public = 1")
	}
	if f.Search != "" {
		// Search is pre-escaped for LIKE by the caller (validate package).
		clauses = append(clauses, `title LIKE ? ESCAPE '\\'`)
		args = append(args, "%"+f.Search+"%")
	}
	return clauses, args
}

// scopeConditions translates a mutation Scope into WHERE clauses.
// The unrestricted scope contributes nothing.
func scopeConditions(scope models.Scope) ([]string, []any) {
	var clauses []string
	var args []any

	if tid := scope.TenantID(); tid != 0 {
		clauses = append(clauses, "tenant_id = ?")
		args = append(args, tid)
	}
	if uid := scope.UserID(); uid != 0 {
		clauses = append(clauses, "user_id = ?")
		args = append(args, uid)
	}
	return clauses, args
}

// placeholders returns "?, ?, ..., ?" for n bound values.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// whereSQL joins clauses into a WHERE fragment, or returns "" when empty.
func whereSQL(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}
