package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"bulkmerge/core/storage"

	"github.com/minio/minio-go/v7"
)

// StorageReporter uploads every result as a JSON document to an object storage bucket.
// Objects are named <prefix>/<scenario>/<unix-nano>.json.
type StorageReporter struct {
	client storage.Client
	bucket string
	region string
	prefix string

	mu    sync.Mutex
	ready bool
}

// NewStorageReporter creates a reporter writing into bucket.
func NewStorageReporter(client storage.Client, bucket, region, prefix string) *StorageReporter {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "reports"
	}
	return &StorageReporter{client: client, bucket: bucket, region: region, prefix: prefix}
}

// ObjectName returns the key a result is stored under.
func (r *StorageReporter) ObjectName(res Result) string {
	return path.Join(r.prefix, res.Scenario, fmt.Sprintf("%d.json", res.At.UnixNano()))
}

func (r *StorageReporter) Report(ctx context.Context, res Result) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	name := r.ObjectName(res)
	_, err = r.client.PutObject(ctx, r.bucket, name, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", name, err)
	}
	return nil
}

// List returns the stored report keys of scenario, or of all scenarios when it is empty.
func (r *StorageReporter) List(ctx context.Context, scenario string) ([]string, error) {
	prefix := r.prefix + "/"
	if scenario != "" {
		prefix += scenario + "/"
	}
	return storage.ListKeys(ctx, r.client, r.bucket, prefix)
}

// ensureBucket checks the bucket once per reporter; a failed check is retried on the next report.
func (r *StorageReporter) ensureBucket(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	if err := storage.EnsureBucket(ctx, r.client, r.bucket, r.region); err != nil {
		return err
	}
	r.ready = true
	return nil
}
