package gallery

import (
	"strings"
	"testing"

	"github.com/maneesh/lumina/internal/models"
)

func TestFingerprintDeterministic(t *testing.T) {
	f := models.AssetFilter{Page: 2, Search: "sunset", TenantID: 3, UserID: 7, AlbumID: 9, PublicOnly: true}
	a := fingerprint("5", f)
	b := fingerprint("5", f)
	if a != b {
		t.Errorf("same inputs produced different keys: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "lumina:assets:5:") {
		t.Errorf("key missing prefix and version: %q", a)
	}
}

func TestFingerprintDistinguishesDimensions(t *testing.T) {
	base := models.AssetFilter{Page: 1, Search: "cat", TenantID: 1, UserID: 2, AlbumID: 3, PublicOnly: false}

	variants := map[string]models.AssetFilter{
		"page":        {Page: 2, Search: "cat", TenantID: 1, UserID: 2, AlbumID: 3},
		"per_page":    {Page: 1, PerPage: 50, Search: "cat", TenantID: 1, UserID: 2, AlbumID: 3},
		"search":      {Page: 1, Search: "dog", TenantID: 1, UserID: 2, AlbumID: 3},
		"tenant":      {Page: 1, Search: "cat", TenantID: 9, UserID: 2, AlbumID: 3},
		"user":        {Page: 1, Search: "cat", TenantID: 1, UserID: 9, AlbumID: 3},
		"album":       {Page: 1, Search: "cat", TenantID: 1, UserID: 2, AlbumID: 9},
		"public_only": {Page: 1, Search: "cat", TenantID: 1, UserID: 2, AlbumID: 3, PublicOnly: true},
	}

	baseKey := fingerprint("0", base)
	for name, f := range variants {
		if got := fingerprint("0", f); got == baseKey {
			t.Errorf("changing %s did not change the key: %q", name, got)
		}
	}
}

func TestFingerprintVersionBumpChangesEveryKey(t *testing.T) {
	f := models.AssetFilter{Page: 1}
	if fingerprint("0", f) == fingerprint("1", f) {
		t.Error("version bump did not change the key")
	}
}

func TestFingerprintUnfilteredDimensionsUseSentinel(t *testing.T) {
	key := fingerprint("0", models.AssetFilter{Page: 1})
	for _, part := range []string{":t0:", ":u0:", ":a0:"} {
		if !strings.Contains(key, part) {
			t.Errorf("key %q missing sentinel segment %q", key, part)
		}
	}
	if !strings.HasSuffix(key, ":pub0") {
		t.Errorf("key %q should end with pub0", key)
	}
}
