package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/maneesh/lumina/internal/mediahost"
	"github.com/maneesh/lumina/internal/models"
)

type fakeOrchestrator struct {
	lastFiles    []mediahost.UploadFile
	lastTenantID int64
	lastUserID   int64
	uploaded     []models.Asset
	failedNames  []string

	lastScope     models.Scope
	localDeleted  int
	remoteDeleted int
	deleteErr     error
}

func (o *fakeOrchestrator) UploadFiles(_ context.Context, files []mediahost.UploadFile, tenantID, userID int64) ([]models.Asset, []string) {
	o.lastFiles = files
	o.lastTenantID = tenantID
	o.lastUserID = userID
	return o.uploaded, o.failedNames
}

func (o *fakeOrchestrator) DeleteAssets(_ context.Context, ids []int64, scope models.Scope) (int, int, error) {
	o.lastScope = scope
	return o.localDeleted, o.remoteDeleted, o.deleteErr
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
		hdr.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		part.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadRequiresAuth(t *testing.T) {
	h := NewMediaHandler(&fakeOrchestrator{}, 1<<20)

	body, contentType := multipartBody(t, map[string]string{"a.png": "data"})
	r := httptest.NewRequest("POST", "/upload", body)
	r.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.Upload(rec, r)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUploadFiltersDisallowedFiles(t *testing.T) {
	orch := &fakeOrchestrator{uploaded: []models.Asset{{ID: 1, Title: "a.png"}}}
	h := NewMediaHandler(orch, 1<<20)

	body, contentType := multipartBody(t, map[string]string{
		"a.png":      "data",
		"script.php": "<?php",
	})
	r := asUser(httptest.NewRequest("POST", "/upload", body), "7", "3")
	r.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.Upload(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if len(orch.lastFiles) != 1 || orch.lastFiles[0].Name != "a.png" {
		t.Errorf("orchestrator saw %+v, want only a.png", orch.lastFiles)
	}
	if orch.lastTenantID != 3 || orch.lastUserID != 7 {
		t.Errorf("caller scope = t%d/u%d, want t3/u7", orch.lastTenantID, orch.lastUserID)
	}
}

func TestUploadAllFilesRejectedIs400(t *testing.T) {
	h := NewMediaHandler(&fakeOrchestrator{}, 1<<20)

	body, contentType := multipartBody(t, map[string]string{"malware.exe": "MZ"})
	r := asUser(httptest.NewRequest("POST", "/upload", body), "7", "3")
	r.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.Upload(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadHostFailureIs502(t *testing.T) {
	orch := &fakeOrchestrator{failedNames: []string{"a.png"}}
	h := NewMediaHandler(orch, 1<<20)

	body, contentType := multipartBody(t, map[string]string{"a.png": "data"})
	r := asUser(httptest.NewRequest("POST", "/upload", body), "7", "3")
	r.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.Upload(rec, r)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "a.png") {
		t.Errorf("error should name the failed file: %s", rec.Body.String())
	}
}

func TestDeleteValidatesIDs(t *testing.T) {
	h := NewMediaHandler(&fakeOrchestrator{}, 1<<20)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"valid numbers", `{"ids": [1, 2]}`, http.StatusOK},
		{"digit strings", `{"ids": ["3"]}`, http.StatusOK},
		{"empty list", `{"ids": []}`, http.StatusBadRequest},
		{"not a list", `{"ids": "1,2"}`, http.StatusBadRequest},
		{"invalid element", `{"ids": ["abc"]}`, http.StatusBadRequest},
		{"broken json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := asUser(httptest.NewRequest("POST", "/delete", strings.NewReader(tt.body)), "7", "3")
			h.Delete(rec, r)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func TestDeleteReportsCounts(t *testing.T) {
	orch := &fakeOrchestrator{localDeleted: 3, remoteDeleted: 2}
	h := NewMediaHandler(orch, 1<<20)

	rec := httptest.NewRecorder()
	r := asUser(httptest.NewRequest("POST", "/delete", strings.NewReader(`{"ids": [1, 2, 3]}`)), "7", "3")
	h.Delete(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Deleted 3 local assets. Remote cleanup: 2/3 successful.") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if orch.lastScope.IsUnrestricted() {
		t.Error("regular user should delete with a restricted scope")
	}
}

func TestDeleteRequiresAuth(t *testing.T) {
	h := NewMediaHandler(&fakeOrchestrator{}, 1<<20)

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest("POST", "/delete", strings.NewReader(`{"ids": [1]}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
