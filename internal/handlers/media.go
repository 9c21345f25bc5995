package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/maneesh/lumina/internal/identity"
	"github.com/maneesh/lumina/internal/mediahost"
	"github.com/maneesh/lumina/internal/models"
	"github.com/maneesh/lumina/internal/validate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MediaOrchestrator fans uploads and deletions out to the media host.
type MediaOrchestrator interface {
	UploadFiles(ctx context.Context, files []mediahost.UploadFile, tenantID, userID int64) ([]models.Asset, []string)
	DeleteAssets(ctx context.Context, ids []int64, scope models.Scope) (int, int, error)
}

// MediaHandler serves upload and bulk delete requests
type MediaHandler struct {
	media          MediaOrchestrator
	maxUploadBytes int64
}

// NewMediaHandler creates a media handler
func NewMediaHandler(media MediaOrchestrator, maxUploadBytes int64) *MediaHandler {
	return &MediaHandler{media: media, maxUploadBytes: maxUploadBytes}
}

// Upload handles POST /upload with one or more multipart "file" parts
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "upload_files",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large.")
		return
	}
	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "No file part")
		return
	}

	var valid []mediahost.UploadFile
	for _, part := range parts {
		mimeType := part.Header.Get("Content-Type")
		if !validate.AllowedFile(part.Filename, mimeType) {
			continue
		}
		f, err := part.Open()
		if err != nil {
			log.Printf("Failed to open upload %s: %v", part.Filename, err)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			log.Printf("Failed to read upload %s: %v", part.Filename, err)
			continue
		}
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		valid = append(valid, mediahost.UploadFile{
			Name:     validate.NormalizeFilename(part.Filename),
			Data:     data,
			MimeType: mimeType,
		})
	}
	if len(valid) == 0 {
		writeError(w, http.StatusBadRequest, "No valid files to upload")
		return
	}
	span.SetAttributes(attribute.Int("file_count", len(valid)))

	uploaded, failed := h.media.UploadFiles(ctx, valid, ident.TenantID, ident.UserID)
	if len(uploaded) == 0 {
		reason := strings.Join(failed, ", ")
		if reason == "" {
			reason = "unknown"
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Upload failed: %s", reason))
		return
	}

	msg := "Upload successful"
	if len(failed) > 0 {
		msg = fmt.Sprintf("Uploaded %d; failed: %s", len(uploaded), strings.Join(failed, ", "))
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "assets": uploaded})
}

// Delete handles POST /delete with {ids: [...]}, removing assets
// locally and cleaning up remote copies
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "delete_files",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var body struct {
		IDs any `json:"ids"`
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
	span.SetAttributes(attribute.Int("requested", len(ids)))

	localDeleted, remoteDeleted, err := h.media.DeleteAssets(ctx, ids, ident.Scope())
	if err != nil {
		span.RecordError(err)
		log.Printf("Delete failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Delete failed.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Deleted %d local assets. Remote cleanup: %d/%d successful.",
			localDeleted, remoteDeleted, localDeleted),
		"deleted_ids": ids,
	})
}
