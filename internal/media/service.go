package media

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/maneesh/lumina/internal/gallery"
	"github.com/maneesh/lumina/internal/mediahost"
	"github.com/maneesh/lumina/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lumina-media")

// DefaultUploadWorkers bounds the per-batch fan-out to the media host
const DefaultUploadWorkers = 4

// Coordinator is the mutation coordinator consumed by the orchestrator.
type Coordinator interface {
	AddAsset(ctx context.Context, a *models.Asset) error
	DeleteAssets(ctx context.Context, ids []int64, scope models.Scope) ([]int64, error)
}

var _ Coordinator = (*gallery.Coordinator)(nil)

// Service orchestrates upload and delete fan-out between the media
// host and the mutation coordinator. Each item is self-contained, so
// pool workers share nothing beyond the host and coordinator clients.
type Service struct {
	host        mediahost.Host
	coordinator Coordinator
	workers     int
}

// NewService creates the orchestrator. workers below 1 falls back to
// DefaultUploadWorkers.
func NewService(host mediahost.Host, coordinator Coordinator, workers int) *Service {
	if workers < 1 {
		workers = DefaultUploadWorkers
	}
	return &Service{host: host, coordinator: coordinator, workers: workers}
}

// UploadFiles uploads a batch to the media host with bounded
// concurrency and records each completed upload locally. Returns the
// stored assets and the names of files that failed; one failure never
// aborts the rest of the batch.
func (s *Service) UploadFiles(ctx context.Context, files []mediahost.UploadFile, tenantID, userID int64) ([]models.Asset, []string) {
	batchID := uuid.New().String()
	ctx, span := tracer.Start(ctx, "media.upload_files",
		trace.WithAttributes(
			attribute.String("batch_id", batchID),
			attribute.Int("file_count", len(files)),
		),
	)
	defer span.End()

	if len(files) == 0 {
		return nil, nil
	}

	workers := s.workers
	if workers > len(files) {
		workers = len(files)
	}

	// Per-index result slots; no worker touches another's slot.
	results := make([]*models.Asset, len(files))
	failed := make([]bool, len(files))

	jobs := make(chan int, len(files))
	for i := range files {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				file := files[i]
				uploadCtx, uploadSpan := tracer.Start(ctx, "media.upload_one",
					trace.WithAttributes(
						attribute.String("batch_id", batchID),
						attribute.String("file_name", file.Name),
					),
				)

				asset, err := s.host.Upload(uploadCtx, file)
				if err != nil {
					uploadSpan.RecordError(err)
					uploadSpan.End()
					log.Printf("Upload of %s failed (batch %s): %v", file.Name, batchID, err)
					failed[i] = true
					continue
				}
				asset.TenantID = tenantID
				asset.UserID = userID
				if err := s.coordinator.AddAsset(uploadCtx, asset); err != nil {
					uploadSpan.RecordError(err)
					uploadSpan.End()
					log.Printf("Recording %s failed (batch %s): %v", file.Name, batchID, err)
					failed[i] = true
					continue
				}
				results[i] = asset
				uploadSpan.End()
			}
		}()
	}
	wg.Wait()

	var uploaded []models.Asset
	var failedNames []string
	for i := range files {
		if failed[i] {
			failedNames = append(failedNames, files[i].Name)
		} else if results[i] != nil {
			uploaded = append(uploaded, *results[i])
		}
	}

	span.SetAttributes(
		attribute.Int("uploaded", len(uploaded)),
		attribute.Int("failed", len(failedNames)),
	)
	return uploaded, failedNames
}

// DeleteAssets deletes assets locally within scope, then cleans up the
// remote copies with bounded concurrency. Returns the local delete
// count and how many remote deletions succeeded; remote failures only
// lower the second count, the local rows are already gone.
func (s *Service) DeleteAssets(ctx context.Context, ids []int64, scope models.Scope) (int, int, error) {
	ctx, span := tracer.Start(ctx, "media.delete_assets",
		trace.WithAttributes(attribute.Int("requested", len(ids))),
	)
	defer span.End()

	remoteIDs, err := s.coordinator.DeleteAssets(ctx, ids, scope)
	if err != nil {
		span.RecordError(err)
		return 0, 0, err
	}
	if len(remoteIDs) == 0 {
		return 0, 0, nil
	}

	workers := s.workers
	if workers > len(remoteIDs) {
		workers = len(remoteIDs)
	}
	jobs := make(chan int64, len(remoteIDs))
	for _, id := range remoteIDs {
		jobs <- id
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	remoteDeleted := 0
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for remoteID := range jobs {
				if err := s.host.Delete(ctx, remoteID); err != nil {
					log.Printf("Remote delete of media %d failed: %v", remoteID, err)
					continue
				}
				mu.Lock()
				remoteDeleted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	span.SetAttributes(
		attribute.Int("local_deleted", len(remoteIDs)),
		attribute.Int("remote_deleted", remoteDeleted),
	)
	return len(remoteIDs), remoteDeleted, nil
}
