package gallery

import (
	"context"
	"errors"
	"testing"

	"github.com/maneesh/lumina/internal/models"
	"github.com/maneesh/lumina/internal/storage"
)

// fakeMutationStore records calls and returns scripted results.
type fakeMutationStore struct {
	insertID     int64
	insertErr    error
	deleteRemote []int64
	deleteErr    error
	updateOK     bool
	updateErr    error
	movedCount   int64
	moveErr      error

	lastDeleteIDs []int64
	lastScope     models.Scope
}

func (s *fakeMutationStore) InsertAsset(_ context.Context, _ *models.Asset) (int64, error) {
	return s.insertID, s.insertErr
}

func (s *fakeMutationStore) DeleteAssets(_ context.Context, ids []int64, scope models.Scope) ([]int64, error) {
	s.lastDeleteIDs = ids
	s.lastScope = scope
	return s.deleteRemote, s.deleteErr
}

func (s *fakeMutationStore) UpdateAssetVisibility(_ context.Context, _ int64, _ bool, scope models.Scope) (bool, error) {
	s.lastScope = scope
	return s.updateOK, s.updateErr
}

func (s *fakeMutationStore) MoveAssetsToAlbum(_ context.Context, _ []int64, _ int64, scope models.Scope) (int64, error) {
	s.lastScope = scope
	return s.movedCount, s.moveErr
}

func TestAddAssetBumpsVersionOnSuccess(t *testing.T) {
	cache := newFakePageCache()
	c := NewCoordinator(&fakeMutationStore{insertID: 42}, cache)

	a := &models.Asset{RemoteID: 99, Title: "photo"}
	if err := c.AddAsset(context.Background(), a); err != nil {
		t.Fatalf("AddAsset returned error: %v", err)
	}
	if a.ID != 42 {
		t.Errorf("asset id = %d, want 42", a.ID)
	}
	if !a.IsPublic {
		t.Error("new assets should be public")
	}
	if cache.version != 1 {
		t.Errorf("cache version = %d, want 1 bump", cache.version)
	}
}

func TestAddAssetDuplicateIsSilentNoOp(t *testing.T) {
	cache := newFakePageCache()
	c := NewCoordinator(&fakeMutationStore{insertErr: storage.ErrDuplicateAsset}, cache)

	if err := c.AddAsset(context.Background(), &models.Asset{RemoteID: 99}); err != nil {
		t.Fatalf("duplicate insert should not be an error, got %v", err)
	}
	if cache.version != 0 {
		t.Errorf("duplicate insert bumped the version to %d", cache.version)
	}
}

func TestAddAssetFailureSkipsBump(t *testing.T) {
	cache := newFakePageCache()
	boom := errors.New("deadlock")
	c := NewCoordinator(&fakeMutationStore{insertErr: boom}, cache)

	err := c.AddAsset(context.Background(), &models.Asset{RemoteID: 99})
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped store error, got %v", err)
	}
	if cache.version != 0 {
		t.Errorf("failed insert bumped the version to %d", cache.version)
	}
}

func TestDeleteAssetsBumpsOnlyWhenRowsDeleted(t *testing.T) {
	tests := []struct {
		name     string
		remote   []int64
		wantBump int
	}{
		{"rows deleted", []int64{101, 102}, 1},
		{"nothing in scope", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newFakePageCache()
			c := NewCoordinator(&fakeMutationStore{deleteRemote: tt.remote}, cache)

			remoteIDs, err := c.DeleteAssets(context.Background(), []int64{1, 2}, models.Restricted(1, 2))
			if err != nil {
				t.Fatalf("DeleteAssets returned error: %v", err)
			}
			if len(remoteIDs) != len(tt.remote) {
				t.Errorf("got %d remote ids, want %d", len(remoteIDs), len(tt.remote))
			}
			if cache.version != tt.wantBump {
				t.Errorf("cache version = %d, want %d", cache.version, tt.wantBump)
			}
		})
	}
}

func TestDeleteAssetsEmptyRequestSkipsStore(t *testing.T) {
	store := &fakeMutationStore{}
	cache := newFakePageCache()
	c := NewCoordinator(store, cache)

	remoteIDs, err := c.DeleteAssets(context.Background(), nil, models.Restricted(1, 2))
	if err != nil {
		t.Fatalf("DeleteAssets returned error: %v", err)
	}
	if remoteIDs != nil || cache.version != 0 {
		t.Errorf("empty request should be a no-op, got ids=%v version=%d", remoteIDs, cache.version)
	}
}

func TestDeleteAssetsErrorSkipsBump(t *testing.T) {
	cache := newFakePageCache()
	c := NewCoordinator(&fakeMutationStore{deleteErr: errors.New("tx aborted")}, cache)

	if _, err := c.DeleteAssets(context.Background(), []int64{1}, models.Unrestricted()); err == nil {
		t.Fatal("expected error from failing store")
	}
	if cache.version != 0 {
		t.Errorf("failed delete bumped the version to %d", cache.version)
	}
}

func TestDeleteAssetsPassesScopeThrough(t *testing.T) {
	store := &fakeMutationStore{deleteRemote: []int64{7}}
	c := NewCoordinator(store, nil)

	scope := models.Restricted(3, 4)
	if _, err := c.DeleteAssets(context.Background(), []int64{1}, scope); err != nil {
		t.Fatalf("DeleteAssets returned error: %v", err)
	}
	if store.lastScope != scope {
		t.Errorf("store saw scope %+v, want %+v", store.lastScope, scope)
	}
}

func TestUpdateVisibilityBumpsEvenWhenNoRowChanged(t *testing.T) {
	// The statement committed either way; the bump tracks the commit,
	// not the row count.
	for _, updated := range []bool{true, false} {
		cache := newFakePageCache()
		c := NewCoordinator(&fakeMutationStore{updateOK: updated}, cache)

		ok, err := c.UpdateVisibility(context.Background(), 5, true, models.Restricted(1, 2))
		if err != nil {
			t.Fatalf("UpdateVisibility returned error: %v", err)
		}
		if ok != updated {
			t.Errorf("updated = %v, want %v", ok, updated)
		}
		if cache.version != 1 {
			t.Errorf("cache version = %d after commit, want 1", cache.version)
		}
	}
}

func TestUpdateVisibilityErrorSkipsBump(t *testing.T) {
	cache := newFakePageCache()
	c := NewCoordinator(&fakeMutationStore{updateErr: errors.New("down")}, cache)

	if _, err := c.UpdateVisibility(context.Background(), 5, false, models.Unrestricted()); err == nil {
		t.Fatal("expected error from failing store")
	}
	if cache.version != 0 {
		t.Errorf("failed update bumped the version to %d", cache.version)
	}
}

func TestMoveToAlbumBumpsAfterCommit(t *testing.T) {
	cache := newFakePageCache()
	c := NewCoordinator(&fakeMutationStore{movedCount: 3}, cache)

	moved, err := c.MoveToAlbum(context.Background(), []int64{1, 2, 3}, 9, models.Restricted(1, 2))
	if err != nil {
		t.Fatalf("MoveToAlbum returned error: %v", err)
	}
	if moved != 3 {
		t.Errorf("moved = %d, want 3", moved)
	}
	if cache.version != 1 {
		t.Errorf("cache version = %d, want 1", cache.version)
	}
}

func TestMoveToAlbumEmptyRequestIsNoOp(t *testing.T) {
	cache := newFakePageCache()
	c := NewCoordinator(&fakeMutationStore{}, cache)

	moved, err := c.MoveToAlbum(context.Background(), nil, 9, models.Unrestricted())
	if err != nil || moved != 0 {
		t.Fatalf("empty move: moved=%d err=%v, want 0 and nil", moved, err)
	}
	if cache.version != 0 {
		t.Errorf("empty move bumped the version to %d", cache.version)
	}
}

func TestCoordinatorToleratesNilCache(t *testing.T) {
	c := NewCoordinator(&fakeMutationStore{insertID: 1, updateOK: true, movedCount: 1, deleteRemote: []int64{5}}, nil)
	ctx := context.Background()

	if err := c.AddAsset(ctx, &models.Asset{}); err != nil {
		t.Errorf("AddAsset: %v", err)
	}
	if _, err := c.DeleteAssets(ctx, []int64{1}, models.Unrestricted()); err != nil {
		t.Errorf("DeleteAssets: %v", err)
	}
	if _, err := c.UpdateVisibility(ctx, 1, true, models.Unrestricted()); err != nil {
		t.Errorf("UpdateVisibility: %v", err)
	}
	if _, err := c.MoveToAlbum(ctx, []int64{1}, 0, models.Unrestricted()); err != nil {
		t.Errorf("MoveToAlbum: %v", err)
	}
}
