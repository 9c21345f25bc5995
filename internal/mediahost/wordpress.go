package mediahost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WordPressClient uploads media to a WordPress Media Library over REST
type WordPressClient struct {
	apiURL     string
	username   string
	password   string
	httpClient *http.Client
}

// NewWordPressClient creates a client for the given media endpoint
// (e.g. https://example.com/wp-json/wp/v2/media) with basic auth
func NewWordPressClient(apiURL, username, password string) *WordPressClient {
	return &WordPressClient{
		apiURL:   apiURL,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout:   90 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type wpMediaResponse struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
	Title     struct {
		Raw string `json:"raw"`
	} `json:"title"`
	MediaDetails struct {
		Sizes map[string]struct {
			SourceURL string `json:"source_url"`
		} `json:"sizes"`
	} `json:"media_details"`
}

// Upload sends file bytes to the WordPress Media Library and maps the
// response to a normalized asset record
func (wp *WordPressClient) Upload(ctx context.Context, file UploadFile) (*models.Asset, error) {
	ctx, span := tracer.Start(ctx, "wordpress.upload_media",
		trace.WithAttributes(
			attribute.String("file_name", file.Name),
			attribute.Int("size_bytes", len(file.Data)),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wp.apiURL, bytes.NewReader(file.Data))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", file.Name))
	req.Header.Set("Content-Type", file.MimeType)
	req.SetBasicAuth(wp.username, wp.password)

	resp, err := wp.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to upload to WordPress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		err := fmt.Errorf("WordPress upload failed with status %d: %s", resp.StatusCode, body)
		span.RecordError(err)
		return nil, err
	}

	var media wpMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode WordPress response: %w", err)
	}

	title := media.Title.Raw
	if title == "" {
		title = file.Name
	}
	urlThumbnail := media.SourceURL
	if s, ok := media.MediaDetails.Sizes["thumbnail"]; ok && s.SourceURL != "" {
		urlThumbnail = s.SourceURL
	}
	urlMedium := media.SourceURL
	if s, ok := media.MediaDetails.Sizes["medium"]; ok && s.SourceURL != "" {
		urlMedium = s.SourceURL
	}

	span.SetAttributes(attribute.Int64("wp_media_id", media.ID))
	return &models.Asset{
		RemoteID:     media.ID,
		Title:        title,
		FileName:     file.Name,
		MimeType:     file.MimeType,
		URLFull:      media.SourceURL,
		URLThumbnail: urlThumbnail,
		URLMedium:    urlMedium,
	}, nil
}

// Delete removes a media item from the WordPress Media Library
func (wp *WordPressClient) Delete(ctx context.Context, remoteID int64) error {
	ctx, span := tracer.Start(ctx, "wordpress.delete_media",
		trace.WithAttributes(attribute.Int64("wp_media_id", remoteID)),
	)
	defer span.End()

	url := fmt.Sprintf("%s/%d?force=true", wp.apiURL, remoteID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	req.SetBasicAuth(wp.username, wp.password)

	resp, err := wp.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete from WordPress: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("WordPress delete failed with status %d", resp.StatusCode)
		span.RecordError(err)
		return err
	}
	return nil
}
