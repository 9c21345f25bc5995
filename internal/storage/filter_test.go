package storage

import (
	"reflect"
	"testing"

	"github.com/maneesh/lumina/internal/models"
)

func TestAssetConditions(t *testing.T) {
	tests := []struct {
		name        string
		filter      models.AssetFilter
		wantClauses []string
		wantArgs    []any
	}{
		{
			name:   "empty filter",
			filter: models.AssetFilter{},
		},
		{
			name:        "tenant and user",
			filter:      models.AssetFilter{TenantID: 1, UserID: 2},
			wantClauses: []string{"tenant_id = ?", "user_id = ?"},
			wantArgs:    []any{int64(1), int64(2)},
		},
		{
			name:        "album",
			filter:      models.AssetFilter{AlbumID: 7},
			wantClauses: []string{"album_id = ?"},
			wantArgs:    []any{int64(7)},
		},
		{
			name:        "public only has no argument",
			filter:      models.AssetFilter{PublicOnly: true},
			wantClauses: []string{"is_public = 1"},
		},
		{
			name:        "search wraps in wildcards",
			filter:      models.AssetFilter{Search: "sunset"},
			wantClauses: []string{`title LIKE ? ESCAPE '\\'`},
			wantArgs:    []any{"%sunset%"},
		},
		{
			name:   "all dimensions",
			filter: models.AssetFilter{TenantID: 1, UserID: 2, AlbumID: 3, PublicOnly: true, Search: "x"},
			wantClauses: []string{
				"tenant_id = ?", "user_id = ?", "album_id = ?",
				"is_public = 1", `title LIKE ? ESCAPE '\\'`,
			},
			wantArgs: []any{int64(1), int64(2), int64(3), "%x%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clauses, args := assetConditions(tt.filter)
			if !reflect.DeepEqual(clauses, tt.wantClauses) {
				t.Errorf("clauses = %v, want %v", clauses, tt.wantClauses)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestScopeConditions(t *testing.T) {
	clauses, args := scopeConditions(models.Unrestricted())
	if len(clauses) != 0 || len(args) != 0 {
		t.Errorf("unrestricted scope produced %v / %v, want nothing", clauses, args)
	}

	clauses, args = scopeConditions(models.Restricted(5, 9))
	wantClauses := []string{"tenant_id = ?", "user_id = ?"}
	wantArgs := []any{int64(5), int64(9)}
	if !reflect.DeepEqual(clauses, wantClauses) {
		t.Errorf("clauses = %v, want %v", clauses, wantClauses)
	}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args = %v, want %v", args, wantArgs)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{-1, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestWhereSQL(t *testing.T) {
	if got := whereSQL(nil); got != "" {
		t.Errorf("whereSQL(nil) = %q, want empty", got)
	}
	got := whereSQL([]string{"a = ?", "b = ?"})
	if got != " WHERE a = ? AND b = ?" {
		t.Errorf("whereSQL = %q", got)
	}
}
