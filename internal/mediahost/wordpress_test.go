package mediahost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWordPressUploadMapsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("request missing basic auth")
		}
		if cd := r.Header.Get("Content-Disposition"); cd != "attachment; filename=photo.jpg" {
			t.Errorf("Content-Disposition = %q", cd)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":         int64(321),
			"source_url": "https://cdn.example.com/full.jpg",
			"title":      map[string]string{"raw": "Photo"},
			"media_details": map[string]any{
				"sizes": map[string]any{
					"thumbnail": map[string]string{"source_url": "https://cdn.example.com/thumb.jpg"},
					"medium":    map[string]string{"source_url": "https://cdn.example.com/medium.jpg"},
				},
			},
		})
	}))
	defer srv.Close()

	wp := NewWordPressClient(srv.URL, "admin", "secret")
	asset, err := wp.Upload(context.Background(), UploadFile{Name: "photo.jpg", Data: []byte("jpeg"), MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if asset.RemoteID != 321 {
		t.Errorf("RemoteID = %d, want 321", asset.RemoteID)
	}
	if asset.Title != "Photo" {
		t.Errorf("Title = %q, want Photo", asset.Title)
	}
	if asset.URLFull != "https://cdn.example.com/full.jpg" {
		t.Errorf("URLFull = %q", asset.URLFull)
	}
	if asset.URLThumbnail != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("URLThumbnail = %q", asset.URLThumbnail)
	}
	if asset.URLMedium != "https://cdn.example.com/medium.jpg" {
		t.Errorf("URLMedium = %q", asset.URLMedium)
	}
}

func TestWordPressUploadFallsBackToSourceURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":         int64(5),
			"source_url": "https://cdn.example.com/only.jpg",
		})
	}))
	defer srv.Close()

	wp := NewWordPressClient(srv.URL, "admin", "secret")
	asset, err := wp.Upload(context.Background(), UploadFile{Name: "only.jpg", Data: []byte("x"), MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if asset.Title != "only.jpg" {
		t.Errorf("Title = %q, want the filename fallback", asset.Title)
	}
	if asset.URLThumbnail != asset.URLFull || asset.URLMedium != asset.URLFull {
		t.Errorf("missing sizes should fall back to source_url: %+v", asset)
	}
}

func TestWordPressUploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rest_cannot_create", http.StatusForbidden)
	}))
	defer srv.Close()

	wp := NewWordPressClient(srv.URL, "admin", "wrong")
	if _, err := wp.Upload(context.Background(), UploadFile{Name: "x.png", Data: []byte("x"), MimeType: "image/png"}); err == nil {
		t.Fatal("expected error on non-2xx status")
	}
}

func TestWordPressDelete(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"deleted": true}`))
	}))
	defer srv.Close()

	wp := NewWordPressClient(srv.URL, "admin", "secret")
	if err := wp.Delete(context.Background(), 321); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if gotPath != "/321" || gotQuery != "force=true" {
		t.Errorf("deleted %s?%s, want /321?force=true", gotPath, gotQuery)
	}
}
