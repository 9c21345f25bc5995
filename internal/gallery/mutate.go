package gallery

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/maneesh/lumina/internal/models"
	"github.com/maneesh/lumina/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MutationStore is the write side of the asset store consumed by the
// coordinator.
type MutationStore interface {
	InsertAsset(ctx context.Context, a *models.Asset) (int64, error)
	DeleteAssets(ctx context.Context, ids []int64, scope models.Scope) ([]int64, error)
	UpdateAssetVisibility(ctx context.Context, id int64, isPublic bool, scope models.Scope) (bool, error)
	MoveAssetsToAlbum(ctx context.Context, ids []int64, albumID int64, scope models.Scope) (int64, error)
}

// Coordinator wraps every asset write so the store commit always
// precedes the cache version bump. A skipped or delayed bump leaves
// readers on cached pages for at most the cache TTL; that bounded
// staleness is the accepted contract, not a bug.
type Coordinator struct {
	store MutationStore
	cache PageCache
}

// NewCoordinator creates a mutation coordinator. cache may be nil.
func NewCoordinator(store MutationStore, cache PageCache) *Coordinator {
	return &Coordinator{store: store, cache: cache}
}

func (c *Coordinator) invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.Invalidate(ctx)
	}
}

// AddAsset stores a new asset record. A duplicate remote media id means
// the same upload landed twice; the second insert is a logged no-op,
// not an error.
func (c *Coordinator) AddAsset(ctx context.Context, a *models.Asset) error {
	ctx, span := tracer.Start(ctx, "gallery.add_asset",
		trace.WithAttributes(attribute.Int64("wp_media_id", a.RemoteID)),
	)
	defer span.End()

	id, err := c.store.InsertAsset(ctx, a)
	if errors.Is(err, storage.ErrDuplicateAsset) {
		log.Printf("Asset with remote media id %d already exists, skipping", a.RemoteID)
		span.SetAttributes(attribute.Bool("duplicate", true))
		return nil
	}
	if err != nil {
		// No invalidation without a committed write.
		span.RecordError(err)
		return fmt.Errorf("failed to add asset: %w", err)
	}
	a.ID = id
	a.IsPublic = true

	c.invalidate(ctx)
	span.SetAttributes(attribute.Int64("asset_id", id))
	return nil
}

// DeleteAssets removes the requested assets that fall within scope and
// returns their remote media ids for host-side cleanup. Out-of-scope
// ids are silently excluded rather than reported, so callers cannot
// probe for other tenants' assets.
func (c *Coordinator) DeleteAssets(ctx context.Context, ids []int64, scope models.Scope) ([]int64, error) {
	ctx, span := tracer.Start(ctx, "gallery.delete_assets",
		trace.WithAttributes(attribute.Int("requested", len(ids))),
	)
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	remoteIDs, err := c.store.DeleteAssets(ctx, ids, scope)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to delete assets: %w", err)
	}
	if len(remoteIDs) > 0 {
		c.invalidate(ctx)
	}
	span.SetAttributes(attribute.Int("deleted", len(remoteIDs)))
	return remoteIDs, nil
}

// UpdateVisibility toggles an asset's public flag within scope.
// Returns only whether a row changed; nothing more leaks across
// tenants.
func (c *Coordinator) UpdateVisibility(ctx context.Context, id int64, isPublic bool, scope models.Scope) (bool, error) {
	ctx, span := tracer.Start(ctx, "gallery.update_visibility",
		trace.WithAttributes(
			attribute.Int64("asset_id", id),
			attribute.Bool("is_public", isPublic),
		),
	)
	defer span.End()

	ok, err := c.store.UpdateAssetVisibility(ctx, id, isPublic, scope)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to update visibility: %w", err)
	}
	c.invalidate(ctx)
	span.SetAttributes(attribute.Bool("updated", ok))
	return ok, nil
}

// MoveToAlbum reassigns assets within scope to an album (0 clears the
// membership). Returns the number of rows moved.
func (c *Coordinator) MoveToAlbum(ctx context.Context, ids []int64, albumID int64, scope models.Scope) (int64, error) {
	ctx, span := tracer.Start(ctx, "gallery.move_to_album",
		trace.WithAttributes(
			attribute.Int("requested", len(ids)),
			attribute.Int64("album_id", albumID),
		),
	)
	defer span.End()

	if len(ids) == 0 {
		return 0, nil
	}
	moved, err := c.store.MoveAssetsToAlbum(ctx, ids, albumID, scope)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to move assets: %w", err)
	}
	c.invalidate(ctx)
	span.SetAttributes(attribute.Int64("moved", moved))
	return moved, nil
}
