package migrations

import (
	"strings"
	"testing"
)

func TestDatasetMigrationContainsRequiredTablesAndIndexes(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/000001_dataset.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE videos",
		"CREATE TABLE video_snapshots",
		"delta_views_count",
		"delta_likes_count",
		"delta_comments_count",
		"delta_reports_count",
		"REFERENCES videos (id)",
		"CREATE INDEX idx_videos_creator_id",
		"CREATE INDEX idx_videos_video_created_at",
		"CREATE INDEX idx_video_snapshots_video_id",
		"CREATE INDEX idx_video_snapshots_created_at",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}
