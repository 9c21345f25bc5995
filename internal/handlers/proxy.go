package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SettingSource reads runtime settings for the proxy whitelist.
type SettingSource interface {
	GetSetting(ctx context.Context, name string) (string, error)
}

// proxyURLMaxLen caps proxied URL length
const proxyURLMaxLen = 2048

// blockedProxyHosts are private or reserved hosts that must never be
// proxied, regardless of the whitelist.
var blockedProxyHosts = map[string]bool{
	"localhost":                true,
	"127.0.0.1":                true,
	"0.0.0.0":                  true,
	"::1":                      true,
	"metadata.google.internal": true,
}

// ProxyHandler streams media from the configured host on the browser's
// behalf, bypassing CORS. Only URLs on the media host's domain (or a
// subdomain of it) are fetched.
type ProxyHandler struct {
	settings       SettingSource
	fallbackAPIURL string
	httpClient     *http.Client
}

// NewProxyHandler creates a proxy handler. fallbackAPIURL is consulted
// when the stored wp_api_url setting is empty.
func NewProxyHandler(settings SettingSource, fallbackAPIURL string) *ProxyHandler {
	return &ProxyHandler{
		settings:       settings,
		fallbackAPIURL: fallbackAPIURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// allowedHost derives the whitelisted hostname from the media host API
// URL, stored setting first, then static config. Empty when neither is
// configured.
func (h *ProxyHandler) allowedHost(ctx context.Context) string {
	apiURL, err := h.settings.GetSetting(ctx, "wp_api_url")
	if err != nil {
		log.Printf("Proxy whitelist setting read failed: %v", err)
		apiURL = ""
	}
	if apiURL == "" {
		apiURL = h.fallbackAPIURL
	}
	if apiURL == "" {
		return ""
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

func blockedProxyHost(host string) bool {
	if blockedProxyHosts[host] {
		return true
	}
	return strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "169.254.")
}

// safeProxyURL reports whether raw may be fetched: http(s) only, and
// the host must match the media host's domain or a subdomain of it.
func (h *ProxyHandler) safeProxyURL(ctx context.Context, raw string) bool {
	if raw == "" || len(raw) > proxyURLMaxLen {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" || blockedProxyHost(host) {
		return false
	}
	allowed := h.allowedHost(ctx)
	if allowed == "" {
		return false
	}
	return host == allowed || strings.HasSuffix(host, "."+allowed)
}

// Download handles GET /proxy_download?url=...
func (h *ProxyHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "proxy_download",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	defer span.End()

	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing URL")
		return
	}
	if !h.safeProxyURL(ctx, raw) {
		span.SetAttributes(attribute.Bool("url_allowed", false))
		writeError(w, http.StatusForbidden, "URL not allowed for proxy")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		span.RecordError(err)
		writeError(w, http.StatusBadGateway, "Proxy request failed")
		return
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		log.Printf("Proxy fetch failed: %v", err)
		writeError(w, http.StatusBadGateway, "Proxy request failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetAttributes(attribute.Int("upstream_status", resp.StatusCode))
		writeError(w, http.StatusBadGateway, "Proxy request failed")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Client went away mid-stream; nothing left to send.
		log.Printf("Proxy stream interrupted: %v", err)
	}
}
