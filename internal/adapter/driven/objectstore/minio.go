// Package objectstore implements the supplemented object-storage port
// over MinIO, used by the analytics and reporting jobs to persist
// their output under the "<tenant-id>/<kind>/<id>.<ext>" layout.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// Store implements port.ObjectStore.
type Store struct {
	client *minio.Client
	bucket string
}

// New builds a Store over an already-connected MinIO client.
func New(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Put uploads body under "<tenantID>/<kind>/<id>.<ext>" and returns a
// 24-hour presigned GET URL, matching the job result retention window
// from §4.10.
func (s *Store) Put(ctx context.Context, tenantID int64, kind, id, ext string, body []byte) (string, error) {
	key := fmt.Sprintf("%d/%s/%s.%s", tenantID, kind, id, ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType(ext),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return presigned.String(), nil
}

func contentType(ext string) string {
	switch ext {
	case "json":
		return "application/json"
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
