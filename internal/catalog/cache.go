package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"movieshub/catalogservice/internal/domain"
)

// QueryCache stores filtered id lists for one record-set generation. Implementations must treat
// a missing entry as (nil, false, nil).
type QueryCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, ids []string) error
}

// buildQueryCacheKey scopes a filter selection to one store session and generation, so entries
// from an older record set are never served. Textual filters compare case-insensitively and
// are folded here; year and rating are kept verbatim.
func buildQueryCacheKey(session string, generation uint64, filters domain.MovieFilters) string {
	parts := []string{
		strings.ToLower(filters.Search),
		strings.ToLower(filters.Genre),
		filters.Year,
		strings.ToLower(filters.Language),
		strings.ToLower(filters.Quality),
		filters.Rating,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return session + ":" + strconv.FormatUint(generation, 10) + ":" + hex.EncodeToString(sum[:16])
}
