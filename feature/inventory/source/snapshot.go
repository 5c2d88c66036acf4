package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"inventory-sync/core/schema"
	"inventory-sync/core/storage"
	"inventory-sync/core/store"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// SnapshotStore loads inventory snapshots from object storage and writes
// serialized diffs back for audit.
type SnapshotStore struct {
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewSnapshotStore wires a snapshot store on top of an object storage
// client.
func NewSnapshotStore(client storage.Client, bucket string, logger *zap.Logger) *SnapshotStore {
	return &SnapshotStore{client: client, bucket: bucket, logger: logger}
}

// Load downloads the JSON snapshot object and returns it as a populated
// store named after the object.
func (s *SnapshotStore) Load(ctx context.Context, registry *schema.Registry, name, objectName string) (*store.Store, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot object %s: %w", objectName, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot object %s: %w", objectName, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot object %s: %w", objectName, err)
	}

	st := store.New(name)
	skipped, err := populate(registry, st, doc, s.logger)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logger.Warn("snapshot object contained invalid records",
			zap.String("object", objectName),
			zap.Int("skipped", skipped))
	}

	return st, nil
}

// WriteAudit uploads a serialized diff under prefix, keyed by the run id,
// creating the bucket on first use.
func (s *SnapshotStore) WriteAudit(ctx context.Context, prefix, runID string, serialized []byte) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	objectName := fmt.Sprintf("%s/%s.json", strings.TrimSuffix(prefix, "/"), runID)
	_, err = s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(serialized), int64(len(serialized)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload audit diff %s: %w", objectName, err)
	}

	s.logger.Info("uploaded audit diff",
		zap.String("bucket", s.bucket),
		zap.String("object", objectName))
	return nil
}
