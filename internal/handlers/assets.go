package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/maneesh/lumina/internal/gallery"
	"github.com/maneesh/lumina/internal/identity"
	"github.com/maneesh/lumina/internal/models"
	"github.com/maneesh/lumina/internal/validate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AssetQuerier serves paginated asset listings.
type AssetQuerier interface {
	GetAssets(ctx context.Context, f models.AssetFilter) (*models.AssetPage, error)
}

// AssetMutator applies scoped asset mutations.
type AssetMutator interface {
	UpdateVisibility(ctx context.Context, id int64, isPublic bool, scope models.Scope) (bool, error)
	MoveToAlbum(ctx context.Context, ids []int64, albumID int64, scope models.Scope) (int64, error)
}

// AssetHandler serves asset listing and per-asset mutations
type AssetHandler struct {
	engine      AssetQuerier
	coordinator AssetMutator
	albums      *gallery.AlbumService
}

// NewAssetHandler creates an asset handler
func NewAssetHandler(engine AssetQuerier, coordinator AssetMutator, albums *gallery.AlbumService) *AssetHandler {
	return &AssetHandler{engine: engine, coordinator: coordinator, albums: albums}
}

// List handles GET /api/assets?page=N&q=...&album_id=N. Anonymous
// callers see only public assets; admins see everything.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "list_assets",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	f := models.AssetFilter{
		Page:    page,
		PerPage: gallery.DefaultPerPage,
		Search:  validate.SanitizeSearchQuery(r.URL.Query().Get("q")),
	}
	if raw := r.URL.Query().Get("album_id"); raw != "" {
		albumID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || albumID < 1 {
			writeError(w, http.StatusBadRequest, "Invalid album_id")
			return
		}
		f.AlbumID = albumID
	}

	ident := identity.FromRequest(r)
	switch {
	case ident.Admin:
		// Unfiltered view.
	case ident.Authenticated():
		f.TenantID = ident.TenantID
		f.UserID = ident.UserID
	default:
		f.PublicOnly = true
	}

	span.SetAttributes(
		attribute.Int("page", f.Page),
		attribute.Bool("public_only", f.PublicOnly),
	)

	result, err := h.engine.GetAssets(ctx, f)
	if err != nil {
		span.RecordError(err)
		log.Printf("Asset listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load assets.")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateVisibility handles PATCH /api/assets/{asset_id}/visibility.
// Owner or admin only; out-of-scope assets look like 404.
func (h *AssetHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "update_asset_visibility",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	assetID, err := strconv.ParseInt(mux.Vars(r)["asset_id"], 10, 64)
	if err != nil || validate.ValidatePositiveID(assetID) != nil {
		writeError(w, http.StatusBadRequest, "Invalid asset id")
		return
	}

	var body struct {
		IsPublic *bool `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsPublic == nil {
		writeError(w, http.StatusBadRequest, "Missing is_public")
		return
	}

	ok, err := h.coordinator.UpdateVisibility(ctx, assetID, *body.IsPublic, ident.Scope())
	if err != nil {
		span.RecordError(err)
		log.Printf("Visibility update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Update failed.")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Asset not found or access denied.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": assetID, "is_public": *body.IsPublic})
}

// MoveToAlbum handles POST /api/assets/album with {ids, album_id}.
// album_id 0 clears membership; a non-zero album must be visible
// within the caller's scope.
func (h *AssetHandler) MoveToAlbum(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "move_assets_to_album",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var body struct {
		IDs     any   `json:"ids"`
		AlbumID int64 `json:"album_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	ids, err := validate.ValidateDeleteIDs(body.IDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "No IDs provided")
		return
	}
	if body.AlbumID < 0 {
		writeError(w, http.StatusBadRequest, "Invalid album_id")
		return
	}
	if body.AlbumID != 0 {
		album, err := h.albums.Get(ctx, body.AlbumID, ident.Scope())
		if err != nil {
			span.RecordError(err)
			writeError(w, http.StatusInternalServerError, "Move failed.")
			return
		}
		if album == nil {
			writeError(w, http.StatusBadRequest, "Invalid album")
			return
		}
	}

	moved, err := h.coordinator.MoveToAlbum(ctx, ids, body.AlbumID, ident.Scope())
	if err != nil {
		span.RecordError(err)
		log.Printf("Move to album failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Move failed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"moved": moved})
}
