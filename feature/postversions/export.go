package postversions

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"booru-sync/core/reconcile"
	"booru-sync/core/storage"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Exporter uploads check reports to object storage.
type Exporter struct {
	client storage.Client
	cfg    storage.Config
	logger *zap.Logger
}

// NewExporter creates an exporter writing to cfg.Bucket under cfg.Prefix.
func NewExporter(client storage.Client, cfg storage.Config, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{client: client, cfg: cfg, logger: logger}
}

// Key returns the object key of the report of a run.
func (e *Exporter) Key(runID string) string {
	return path.Join(e.cfg.Prefix, "missing-revisions-"+runID+".csv")
}

// Export uploads the report of a run and returns its object key.
// The body is identical to what check mode prints.
func (e *Exporter) Export(ctx context.Context, runID string, missing []reconcile.MissingRevision) (string, error) {
	var buf bytes.Buffer
	if err := reconcile.WriteReport(&buf, missing); err != nil {
		return "", err
	}

	if err := storage.EnsureBucket(ctx, e.client, e.cfg.Bucket, e.cfg.Region); err != nil {
		return "", err
	}

	key := e.Key(runID)
	size := int64(buf.Len())
	_, err := e.client.PutObject(ctx, e.cfg.Bucket, key, &buf, size, minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	e.logger.Info("Exported report",
		zap.String("bucket", e.cfg.Bucket),
		zap.String("key", key),
		zap.Int("lines", len(missing)),
		zap.String("size", humanize.Bytes(uint64(size))),
	)
	return key, nil
}
