package mediahost

import (
	"context"

	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lumina-mediahost")

// UploadFile is an in-memory file handed to the media host.
type UploadFile struct {
	Name     string
	Data     []byte
	MimeType string
}

// Host stores actual file bytes remotely. Upload returns a normalized
// asset record (remote id, title, size URLs) ready for the mutation
// coordinator; Delete removes the remote copy by its id.
type Host interface {
	Upload(ctx context.Context, file UploadFile) (*models.Asset, error)
	Delete(ctx context.Context, remoteID int64) error
}
