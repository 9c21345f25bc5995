package mediahost

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math/rand"

	"github.com/maneesh/lumina/internal/models"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MinioHost stores media in a MinIO bucket. It is the self-hosted
// fallback used when WordPress credentials are not configured; assets
// get a locally generated remote id and bucket-derived URLs.
type MinioHost struct {
	client     *minio.Client
	bucketName string
	baseURL    string
}

// NewMinioHost initializes the MinIO-backed media host
func NewMinioHost(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioHost, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	mh := &MinioHost{
		client:     client,
		bucketName: bucketName,
		baseURL:    fmt.Sprintf("%s://%s", scheme, endpoint),
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		log.Printf("Creating bucket: %s", bucketName)
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("Bucket %s created successfully", bucketName)
	}

	return mh, nil
}

// Upload stores the file in the bucket under a generated remote id
func (mh *MinioHost) Upload(ctx context.Context, file UploadFile) (*models.Asset, error) {
	ctx, span := tracer.Start(ctx, "minio.upload_media",
		trace.WithAttributes(
			attribute.String("file_name", file.Name),
			attribute.Int("size_bytes", len(file.Data)),
		),
	)
	defer span.End()

	// The store's unique constraint on the remote id is the backstop
	// should two uploads ever draw the same value.
	remoteID := rand.Int63()
	objectKey := fmt.Sprintf("media/%d/%s", remoteID, file.Name)

	reader := bytes.NewReader(file.Data)
	_, err := mh.client.PutObject(ctx, mh.bucketName, objectKey, reader, int64(len(file.Data)),
		minio.PutObjectOptions{ContentType: file.MimeType})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to upload media object: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s", mh.baseURL, mh.bucketName, objectKey)
	span.SetAttributes(
		attribute.Int64("remote_id", remoteID),
		attribute.String("object_key", objectKey),
	)
	return &models.Asset{
		RemoteID:     remoteID,
		Title:        file.Name,
		FileName:     file.Name,
		MimeType:     file.MimeType,
		URLFull:      url,
		URLThumbnail: url,
		URLMedium:    url,
	}, nil
}

// Delete removes every object stored under the remote id
func (mh *MinioHost) Delete(ctx context.Context, remoteID int64) error {
	ctx, span := tracer.Start(ctx, "minio.delete_media",
		trace.WithAttributes(attribute.Int64("remote_id", remoteID)),
	)
	defer span.End()

	prefix := fmt.Sprintf("media/%d/", remoteID)
	objects := mh.client.ListObjects(ctx, mh.bucketName, minio.ListObjectsOptions{Prefix: prefix})
	deleted := 0
	for object := range objects {
		if object.Err != nil {
			span.RecordError(object.Err)
			return fmt.Errorf("failed to list media objects: %w", object.Err)
		}
		if err := mh.client.RemoveObject(ctx, mh.bucketName, object.Key, minio.RemoveObjectOptions{}); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to delete media object: %w", err)
		}
		deleted++
	}

	span.SetAttributes(attribute.Int("objects_deleted", deleted))
	return nil
}
