package report

import (
	"context"
	"fmt"
	"time"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
	"github.com/ocp4mco/ocp4mco/internal/platform/s3"
	"github.com/ocp4mco/ocp4mco/internal/util/naming"
)

// Archived object names.
const (
	SummaryFile = "summary.json"
	TextFile    = "report.txt"
)

// DefaultExpiry bounds the presigned link when the configuration leaves it
// empty.
const DefaultExpiry = 24 * time.Hour

// Store is the subset of the S3 client the archive needs.
type Store interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) (int, error)
}

// NewStore connects to the bucket store described by cfg.
func NewStore(ctx context.Context, cfg config.Archive) (*s3.Client, error) {
	return s3.NewClient(ctx, s3.Options{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
}

// Archive uploads the summary of r and returns a presigned link to the
// text report.
func Archive(ctx context.Context, store Store, cfg config.Archive, r *orchestrator.Report) (string, error) {
	logger := log.FromContext(ctx)
	if err := store.EnsureBucket(ctx, cfg.Bucket); err != nil {
		return "", err
	}

	summary, err := NewSummary(r).JSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	objects := []struct {
		name, contentType string
		data              []byte
	}{
		{SummaryFile, "application/json", summary},
		{TextFile, "text/plain; charset=utf-8", []byte(Text(r))},
	}
	for _, o := range objects {
		key := naming.ArchiveKey(cfg.Prefix, r.RunID, o.name)
		if err := store.PutObject(ctx, cfg.Bucket, key, o.contentType, o.data); err != nil {
			return "", err
		}
		logger.V(1).Info("archived report object", "bucket", cfg.Bucket, "key", key)
	}

	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	url, err := store.PresignGet(ctx, cfg.Bucket, naming.ArchiveKey(cfg.Prefix, r.RunID, TextFile), expiry)
	if err != nil {
		return "", err
	}
	logger.Info("report archived", "bucket", cfg.Bucket, "expires", expiry)
	return url, nil
}

// Purge deletes every archived object of runID.
func Purge(ctx context.Context, store Store, cfg config.Archive, runID string) (int, error) {
	n, err := store.DeletePrefix(ctx, cfg.Bucket, naming.ArchivePrefix(cfg.Prefix, runID))
	if err != nil {
		return n, err
	}
	log.FromContext(ctx).Info("archived report deleted", "bucket", cfg.Bucket, "objects", n)
	return n, nil
}
