package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/maneesh/lumina/internal/identity"
	"github.com/maneesh/lumina/internal/models"
	"github.com/maneesh/lumina/internal/storage"
	"github.com/maneesh/lumina/internal/validate"
	"go.opentelemetry.io/otel/trace"
)

// AdminStore is the user and settings storage behind the admin API.
type AdminStore interface {
	ListUsers(ctx context.Context, tenantID int64) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	DeactivateUser(ctx context.Context, id int64) (bool, error)
	GetSetting(ctx context.Context, name string) (string, error)
	SetSetting(ctx context.Context, name, value string) error
}

// AdminHandler serves user management and media-host settings,
// admin only
type AdminHandler struct {
	store AdminStore
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(store AdminStore) *AdminHandler {
	return &AdminHandler{store: store}
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	ident := identity.FromRequest(r)
	if !ident.Authenticated() {
		writeError(w, http.StatusUnauthorized, "Authentication required.")
		return ident, false
	}
	if !ident.Admin {
		writeError(w, http.StatusForbidden, "Access denied.")
		return ident, false
	}
	return ident, true
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "admin_list_users",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	users, err := h.store.ListUsers(ctx, 0)
	if err != nil {
		span.RecordError(err)
		log.Printf("User listing failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load users.")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// CreateUser handles POST /admin/users. Credentials are provisioned by
// the external auth layer; only the identity record is stored here.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "admin_create_user",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		TenantID int64  `json:"tenant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	username, err := validate.ValidateUsername(body.Username)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	email, err := validate.ValidateEmail(body.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role := body.Role
	if role != "admin" {
		role = "user"
	}

	u := &models.User{Username: username, Email: email, Role: role, TenantID: body.TenantID}
	id, err := h.store.CreateUser(ctx, u)
	if errors.Is(err, storage.ErrConflict) {
		writeError(w, http.StatusBadRequest, "Username or email already in use.")
		return
	}
	if err != nil {
		span.RecordError(err)
		log.Printf("User creation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "username": username})
}

// DeactivateUser handles DELETE /admin/users/{user_id} (soft delete)
func (h *AdminHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "admin_deactivate_user",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	ident, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	if err != nil || validate.ValidatePositiveID(userID) != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if userID == ident.UserID {
		writeError(w, http.StatusBadRequest, "Cannot delete your own account.")
		return
	}

	done, err := h.store.DeactivateUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		log.Printf("User deactivation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to deactivate user.")
		return
	}
	if !done {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User deactivated."})
}

// GetSettings handles GET /api/settings; the media-host password is
// masked, only its presence is reported
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "get_settings",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	apiURL, err := h.store.GetSetting(ctx, "wp_api_url")
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Failed to load settings.")
		return
	}
	user, err := h.store.GetSetting(ctx, "wp_user")
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Failed to load settings.")
		return
	}
	pass, err := h.store.GetSetting(ctx, "wp_pass")
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusInternalServerError, "Failed to load settings.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"wp_api_url":  apiURL,
		"wp_user":     user,
		"wp_pass_set": pass != "",
	})
}

// UpdateSettings handles PATCH /api/settings. Only present keys change;
// an empty wp_pass means "do not change".
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "update_settings",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	for _, key := range []string{"wp_api_url", "wp_user"} {
		if value, present := body[key]; present {
			if err := h.store.SetSetting(ctx, key, value); err != nil {
				span.RecordError(err)
				writeError(w, http.StatusInternalServerError, "Failed to update settings.")
				return
			}
		}
	}
	if value, present := body["wp_pass"]; present && value != "" {
		if err := h.store.SetSetting(ctx, "wp_pass", value); err != nil {
			span.RecordError(err)
			writeError(w, http.StatusInternalServerError, "Failed to update settings.")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Settings updated."})
}
