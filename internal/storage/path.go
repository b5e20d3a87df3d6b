package storage

import (
	"fmt"
	"strings"
)

const s3Scheme = "s3://"

// IsS3Path reports whether a dataset location points at the object store
// rather than the local filesystem.
func IsS3Path(location string) bool {
	return strings.HasPrefix(strings.TrimSpace(location), s3Scheme)
}

// SplitS3Path parses "s3://bucket/key/parts" into its bucket and object key.
func SplitS3Path(location string) (bucket, key string, err error) {
	trimmed := strings.TrimSpace(location)
	if !strings.HasPrefix(trimmed, s3Scheme) {
		return "", "", fmt.Errorf("not an s3 path: %q", location)
	}
	rest := strings.TrimPrefix(trimmed, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 path must be s3://bucket/key, got %q", location)
	}
	return bucket, key, nil
}
