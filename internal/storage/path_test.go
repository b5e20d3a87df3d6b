package storage

import "testing"

func TestIsS3Path(t *testing.T) {
	if !IsS3Path("s3://datasets/videos.zip") {
		t.Fatal("expected s3 path")
	}
	if !IsS3Path("  s3://datasets/videos.zip") {
		t.Fatal("expected s3 path with surrounding whitespace")
	}
	if IsS3Path("/var/data/videos.json") {
		t.Fatal("local path should not be s3")
	}
}

func TestSplitS3Path(t *testing.T) {
	bucket, key, err := SplitS3Path("s3://datasets/2025/videos.zip")
	if err != nil {
		t.Fatalf("SplitS3Path() error = %v", err)
	}
	if bucket != "datasets" {
		t.Fatalf("bucket = %q", bucket)
	}
	if key != "2025/videos.zip" {
		t.Fatalf("key = %q", key)
	}
}

func TestSplitS3PathRejectsMalformedLocations(t *testing.T) {
	for _, location := range []string{"s3://", "s3://bucket", "s3://bucket/", "/local/path", "s3:///key"} {
		if _, _, err := SplitS3Path(location); err == nil {
			t.Fatalf("SplitS3Path(%q) expected error", location)
		}
	}
}
