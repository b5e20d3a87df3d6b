//go:build integration

package s3

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vidstat/vidstat/internal/storage"
)

func TestStoreReadsExistingObjectFromMinIO(t *testing.T) {
	endpoint := envOr("VIDSTAT_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("VIDSTAT_TEST_S3_ENDPOINT is not set")
	}

	cfg := Config{
		Endpoint:        endpoint,
		Region:          envOr("VIDSTAT_TEST_S3_REGION", "us-east-1"),
		Bucket:          envOr("VIDSTAT_TEST_S3_BUCKET", "vidstat-it"),
		AccessKeyID:     envOr("VIDSTAT_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey: envOr("VIDSTAT_TEST_S3_SECRET_KEY", "miniostorage"),
		UseSSL:          false,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	key := envOr("VIDSTAT_TEST_S3_KEY", "datasets/videos.json")

	stat, err := store.Stat(ctx, key)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Size <= 0 {
		t.Fatalf("Stat().Size = %d, want > 0", stat.Size)
	}

	reader, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	payload, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("reader.Close() error = %v", err)
	}
	if int64(len(payload)) != stat.Size {
		t.Fatalf("Get() returned %d bytes, Stat() reported %d", len(payload), stat.Size)
	}

	if _, err := store.Stat(ctx, "definitely/missing/object.json"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Stat() for missing key error = %v, want ErrObjectNotFound", err)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
