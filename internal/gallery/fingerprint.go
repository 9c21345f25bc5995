package gallery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maneesh/lumina/internal/models"
)

const cacheKeyPrefix = "lumina:assets:"

// searchHashLen bounds the key length while keeping search terms
// collision-safe in practice (64 bits of a SHA-256 digest).
const searchHashLen = 16

// fingerprint derives the deterministic cache key for one page of a
// filtered listing. The cache version is embedded so a version bump
// changes every key at once; unfiltered dimensions map to the sentinel
// 0, which is never a valid row id. Page size is part of the key, so
// callers paging the same listing at different sizes never share an
// entry.
func fingerprint(version string, f models.AssetFilter) string {
	sum := sha256.Sum256([]byte(f.Search))
	qhash := hex.EncodeToString(sum[:])[:searchHashLen]
	pub := 0
	if f.PublicOnly {
		pub = 1
	}
	return fmt.Sprintf("%s%s:p%d:n%d:q%s:t%d:u%d:a%d:pub%d",
		cacheKeyPrefix, version, f.Page, f.PerPage, qhash, f.TenantID, f.UserID, f.AlbumID, pub)
}
