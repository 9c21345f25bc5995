package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/maneesh/lumina/internal/gallery"
	"github.com/maneesh/lumina/internal/identity"
	"github.com/maneesh/lumina/internal/models"
	"github.com/maneesh/lumina/internal/validate"
	"go.opentelemetry.io/otel/trace"
)

// AlbumHandler serves album CRUD
type AlbumHandler struct {
	albums *gallery.AlbumService
}

// NewAlbumHandler creates an album handler
func NewAlbumHandler(albums *gallery.AlbumService) *AlbumHandler {
	return &AlbumHandler{albums: albums}
}

type albumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    int64  `json:"parent_id"`
	IsPublic    *bool  `json:"is_public"`
}

// List handles GET /api/albums
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "list_albums",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	albums, err := h.albums.List(ctx, ident.Scope())
	if err != nil {
		span.RecordError(err)
		log.Printf("Album listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load albums.")
		return
	}
	if albums == nil {
		albums = []models.Album{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"albums": albums})
}

// Create handles POST /api/albums
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "create_album",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var body albumRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "Album name is required")
		return
	}

	al := &models.Album{
		Name:        body.Name,
		Description: body.Description,
		UserID:      ident.UserID,
		TenantID:    ident.TenantID,
		ParentID:    body.ParentID,
		IsPublic:    body.IsPublic == nil || *body.IsPublic,
	}
	created, err := h.albums.Create(ctx, al, ident.Scope())
	if errors.Is(err, gallery.ErrInvalidParent) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		span.RecordError(err)
		log.Printf("Album creation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create album.")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/albums/{album_id}
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "get_album",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	albumID, err := strconv.ParseInt(mux.Vars(r)["album_id"], 10, 64)
	if err != nil || validate.ValidatePositiveID(albumID) != nil {
		writeError(w, http.StatusBadRequest, "Invalid album id")
		return
	}

	album, err := h.albums.Get(ctx, albumID, ident.Scope())
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Failed to load album.")
		return
	}
	if album == nil {
		writeError(w, http.StatusNotFound, "Album not found.")
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// Update handles PATCH /api/albums/{album_id}
func (h *AlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "update_album",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	albumID, err := strconv.ParseInt(mux.Vars(r)["album_id"], 10, 64)
	if err != nil || validate.ValidatePositiveID(albumID) != nil {
		writeError(w, http.StatusBadRequest, "Invalid album id")
		return
	}
	var body albumRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "Album name is required")
		return
	}

	al := &models.Album{
		ID:          albumID,
		Name:        body.Name,
		Description: body.Description,
		ParentID:    body.ParentID,
		IsPublic:    body.IsPublic == nil || *body.IsPublic,
	}
	ok, err := h.albums.Update(ctx, al, ident.Scope())
	if errors.Is(err, gallery.ErrOwnParent) || errors.Is(err, gallery.ErrInvalidParent) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		span.RecordError(err)
		log.Printf("Album update failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to update album.")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Album not found or access denied.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": albumID, "message": "Album updated."})
}

// Delete handles DELETE /api/albums/{album_id}. Member assets survive;
// only their album membership is cleared.
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "delete_album",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	albumID, err := strconv.ParseInt(mux.Vars(r)["album_id"], 10, 64)
	if err != nil || validate.ValidatePositiveID(albumID) != nil {
		writeError(w, http.StatusBadRequest, "Invalid album id")
		return
	}

	ok, err := h.albums.Delete(ctx, albumID, ident.Scope())
	if err != nil {
		span.RecordError(err)
		log.Printf("Album deletion failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete album.")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Album not found or access denied.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Album deleted."})
}
