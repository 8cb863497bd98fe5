package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/collabwrite/collabwrite/internal/config"
)

// SnapshotStore archives saved document snapshots to an object storage
// bucket. Archival is best effort; the persistence coordinator never blocks a
// save on it.
type SnapshotStore struct {
	client *minio.Client
	bucket string
}

// NewSnapshotStore creates a MinIO-backed snapshot store and ensures the
// bucket exists.
func NewSnapshotStore(cfg *config.SnapshotConfig) (*SnapshotStore, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("snapshot storage config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &SnapshotStore{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// PutSnapshot stores one content snapshot under snapshots/<docID>/<ts>.json.
func (s *SnapshotStore) PutSnapshot(ctx context.Context, docID string, content json.RawMessage) error {
	key := fmt.Sprintf("snapshots/%s/%s.json", docID, time.Now().UTC().Format("20060102T150405.000"))
	r := bytes.NewReader(content)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, int64(len(content)), minio.PutObjectOptions{ContentType: "application/json"})
	return err
}
