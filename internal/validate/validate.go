// Package validate rejects bad input before it reaches the store or
// the cache.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SearchQueryMaxLen caps search query length in characters
const SearchQueryMaxLen = 200

// MaxDeleteBatch caps the number of ids in one delete request
const MaxDeleteBatch = 500

// extensionMIME lists MIME types accepted per extension. Clients can
// lie, so this is a sanity check; the extension is the primary gate.
var extensionMIME = map[string][]string{
	"png":  {"image/png"},
	"jpg":  {"image/jpeg", "image/jpg", "image/pjpeg"},
	"jpeg": {"image/jpeg", "image/jpg", "image/pjpeg"},
	"gif":  {"image/gif"},
	"webp": {"image/webp"},
}

// genericMIMETypes are accepted whenever the extension is allowed;
// mobile clients often send octet-stream for images.
var genericMIMETypes = map[string]bool{
	"application/octet-stream": true,
	"application/unknown":      true,
	"":                         true,
}

// SanitizeSearchQuery trims, caps and LIKE-escapes a search query.
// The cap counts runes so multi-byte input is never split mid-rune.
// The result is safe for `LIKE ? ESCAPE '\\'` parameters.
func SanitizeSearchQuery(raw string) string {
	s := strings.TrimSpace(raw)
	if utf8.RuneCountInString(s) > SearchQueryMaxLen {
		runes := []rune(s)
		s = string(runes[:SearchQueryMaxLen])
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ValidateDeleteIDs validates a JSON ids payload (numbers or digit
// strings) and returns the parsed ids.
func ValidateDeleteIDs(payload any) ([]int64, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("ids must be a list")
	}
	if len(list) > MaxDeleteBatch {
		return nil, fmt.Errorf("too many ids")
	}
	ids := make([]int64, 0, len(list))
	for _, raw := range list {
		var n int64
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("invalid id: %v", raw)
			}
			n = int64(v)
		case json.Number:
			parsed, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("invalid id: %v", raw)
			}
			n = parsed
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid id: %q", v)
			}
			n = parsed
		default:
			return nil, fmt.Errorf("invalid id: %v", raw)
		}
		if n < 1 || n > math.MaxInt32 {
			return nil, fmt.Errorf("id out of range: %d", n)
		}
		ids = append(ids, n)
	}
	return ids, nil
}

// ValidatePositiveID rejects non-positive or oversized ids
func ValidatePositiveID(id int64) error {
	if id < 1 || id > math.MaxInt32 {
		return fmt.Errorf("invalid id: %d", id)
	}
	return nil
}

// AllowedFile reports whether the filename extension and MIME type are
// acceptable for upload
func AllowedFile(filename, mimeType string) bool {
	if filename == "" || !strings.Contains(filename, ".") {
		return false
	}
	ext := strings.ToLower(filename[strings.LastIndex(filename, ".")+1:])
	allowed, ok := extensionMIME[ext]
	if !ok {
		return false
	}
	mime := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if genericMIMETypes[mime] {
		return true
	}
	for _, m := range allowed {
		if mime == m {
			return true
		}
	}
	return false
}

// ValidateUsername checks length and character set
func ValidateUsername(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 3 || len(s) > 64 {
		return "", fmt.Errorf("username must be 3-64 characters")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
		default:
			return "", fmt.Errorf("username contains invalid characters")
		}
	}
	return s, nil
}

// ValidateEmail performs a minimal shape check
func ValidateEmail(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	at := strings.Index(s, "@")
	if len(s) < 3 || len(s) > 255 || at < 1 || at == len(s)-1 || strings.Contains(s, " ") {
		return "", fmt.Errorf("invalid email address")
	}
	return s, nil
}

// NormalizeFilename strips any path component and reduces the name to
// safe ASCII for media-host compatibility
func NormalizeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "file"
	}
	return out
}
