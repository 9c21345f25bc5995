package gallery

import (
	"context"
	"fmt"

	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lumina-gallery")

const (
	// DefaultPerPage is the gallery page size
	DefaultPerPage = 20
	// MaxPerPage caps the pagination window
	MaxPerPage = 100
)

// AssetStore is the read side of the asset store consumed by the
// query engine.
type AssetStore interface {
	QueryAssets(ctx context.Context, f models.AssetFilter, limit, offset int) ([]models.Asset, error)
}

// PageCache is the optional versioned side cache. Implementations must
// swallow backend failures: a failed read is a miss, a failed write is
// a no-op. The store remains the source of truth.
type PageCache interface {
	Version(ctx context.Context) string
	GetPage(ctx context.Context, key string) (*models.AssetPage, bool)
	SetPage(ctx context.Context, key string, page *models.AssetPage)
	Invalidate(ctx context.Context)
}

// QueryEngine serves paginated, filtered asset listings, consulting the
// cache first and repopulating it on miss. Read-only with respect to
// the store; safe for concurrent use.
type QueryEngine struct {
	store AssetStore
	cache PageCache
}

// NewQueryEngine creates a query engine. cache may be nil, in which
// case every request goes straight to the store.
func NewQueryEngine(store AssetStore, cache PageCache) *QueryEngine {
	return &QueryEngine{store: store, cache: cache}
}

// GetAssets returns one page of assets matching the filter, newest
// first, plus whether more pages follow.
func (e *QueryEngine) GetAssets(ctx context.Context, f models.AssetFilter) (*models.AssetPage, error) {
	ctx, span := tracer.Start(ctx, "gallery.get_assets",
		trace.WithAttributes(
			attribute.Int("page", f.Page),
			attribute.Bool("public_only", f.PublicOnly),
		),
	)
	defer span.End()

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}

	version := "0"
	if e.cache != nil {
		version = e.cache.Version(ctx)
	}
	key := fingerprint(version, f)

	if e.cache != nil {
		if page, ok := e.cache.GetPage(ctx, key); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return page, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	// Fetch one extra row to learn whether another page exists without
	// a separate COUNT query.
	offset := (f.Page - 1) * f.PerPage
	rows, err := e.store.QueryAssets(ctx, f, f.PerPage+1, offset)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}

	hasMore := len(rows) > f.PerPage
	if hasMore {
		rows = rows[:f.PerPage]
	}
	if rows == nil {
		rows = []models.Asset{}
	}
	page := &models.AssetPage{Assets: rows, HasMore: hasMore}

	if e.cache != nil {
		e.cache.SetPage(ctx, key, page)
	}

	span.SetAttributes(
		attribute.Int("asset_count", len(page.Assets)),
		attribute.Bool("has_more", page.HasMore),
	)
	return page, nil
}
