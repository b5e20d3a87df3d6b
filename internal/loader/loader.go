// Package loader ingests the provided engagement dataset, a JSON document
// (optionally zipped) with a top-level "videos" list where each video embeds
// its snapshots, and bulk-loads it into postgres.
package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vidstat/vidstat/internal/dataset"
	"github.com/vidstat/vidstat/internal/observability"
	"github.com/vidstat/vidstat/internal/storage"
)

// ObjectFetcher is the object-store subset the loader needs for s3://
// locations. The store must be configured for the location's bucket.
type ObjectFetcher interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

type Loader struct {
	repo   dataset.Repository
	store  ObjectFetcher
	logger *slog.Logger
}

func New(repo dataset.Repository, store ObjectFetcher, logger *slog.Logger) *Loader {
	return &Loader{repo: repo, store: store, logger: logger}
}

// LoadIfNeeded loads the dataset from location unless videos are already
// present. force bypasses the skip check and always reloads.
func (l *Loader) LoadIfNeeded(ctx context.Context, location string, force bool) (dataset.LoadStats, error) {
	existing, err := l.repo.CountVideos(ctx)
	if err != nil {
		return dataset.LoadStats{}, fmt.Errorf("count existing videos: %w", err)
	}
	if existing > 0 && !force {
		snapshots, err := l.repo.CountSnapshots(ctx)
		if err != nil {
			return dataset.LoadStats{}, fmt.Errorf("count existing snapshots: %w", err)
		}
		l.logger.InfoContext(ctx, "dataset already loaded, skipping",
			slog.Int64("videos", existing),
			slog.Int64("snapshots", snapshots),
		)
		return dataset.LoadStats{Videos: existing, Snapshots: snapshots}, nil
	}
	return l.Load(ctx, location)
}

// Load always replaces the dataset with the contents of location.
func (l *Loader) Load(ctx context.Context, location string) (dataset.LoadStats, error) {
	start := time.Now()

	raw, err := l.readPayload(ctx, location)
	if err != nil {
		return dataset.LoadStats{}, err
	}

	videos, snapshots, err := decodeDataset(raw)
	if err != nil {
		return dataset.LoadStats{}, err
	}

	l.logger.InfoContext(ctx, "loading dataset",
		slog.String("location", location),
		slog.Int("videos", len(videos)),
		slog.Int("snapshots", len(snapshots)),
	)

	if err := l.repo.ReplaceAll(ctx, videos, snapshots); err != nil {
		return dataset.LoadStats{}, fmt.Errorf("replace dataset: %w", err)
	}

	stats := dataset.LoadStats{
		Videos:    int64(len(videos)),
		Snapshots: int64(len(snapshots)),
		Elapsed:   time.Since(start),
	}
	observability.ObserveDatasetLoad(stats.Videos, stats.Snapshots, stats.Elapsed)
	return stats, nil
}

func (l *Loader) readPayload(ctx context.Context, location string) ([]byte, error) {
	var (
		raw  []byte
		name string
		err  error
	)
	if storage.IsS3Path(location) {
		if l.store == nil {
			return nil, fmt.Errorf("s3 location %q requires a configured object store", location)
		}
		_, key, splitErr := storage.SplitS3Path(location)
		if splitErr != nil {
			return nil, splitErr
		}
		reader, getErr := l.store.Get(ctx, key)
		if getErr != nil {
			return nil, fmt.Errorf("fetch dataset %q: %w", location, getErr)
		}
		defer func() { _ = reader.Close() }()
		raw, err = io.ReadAll(reader)
		name = key
	} else {
		raw, err = os.ReadFile(location)
		name = location
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %q: %w", location, err)
	}

	if strings.HasSuffix(strings.ToLower(name), ".zip") {
		return extractJSONFromZip(raw)
	}
	return raw, nil
}

func extractJSONFromZip(raw []byte) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open zip archive: %w", err)
	}
	for _, file := range archive.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".json") {
			continue
		}
		entry, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %q: %w", file.Name, err)
		}
		defer func() { _ = entry.Close() }()
		body, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("read zip entry %q: %w", file.Name, err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("zip archive contains no .json entry")
}

type payload struct {
	Videos []videoRecord `json:"videos"`
}

type videoRecord struct {
	ID             string           `json:"id"`
	CreatorID      string           `json:"creator_id"`
	VideoCreatedAt flexTime         `json:"video_created_at"`
	ViewsCount     flexInt          `json:"views_count"`
	LikesCount     flexInt          `json:"likes_count"`
	CommentsCount  flexInt          `json:"comments_count"`
	ReportsCount   flexInt          `json:"reports_count"`
	CreatedAt      flexTime         `json:"created_at"`
	UpdatedAt      flexTime         `json:"updated_at"`
	Snapshots      []snapshotRecord `json:"snapshots"`
}

type snapshotRecord struct {
	ID                 string   `json:"id"`
	VideoID            string   `json:"video_id"`
	ViewsCount         flexInt  `json:"views_count"`
	LikesCount         flexInt  `json:"likes_count"`
	CommentsCount      flexInt  `json:"comments_count"`
	ReportsCount       flexInt  `json:"reports_count"`
	DeltaViewsCount    flexInt  `json:"delta_views_count"`
	DeltaLikesCount    flexInt  `json:"delta_likes_count"`
	DeltaCommentsCount flexInt  `json:"delta_comments_count"`
	DeltaReportsCount  flexInt  `json:"delta_reports_count"`
	CreatedAt          flexTime `json:"created_at"`
	UpdatedAt          flexTime `json:"updated_at"`
}

func decodeDataset(raw []byte) ([]dataset.Video, []dataset.Snapshot, error) {
	var doc payload
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode dataset json: %w", err)
	}
	if doc.Videos == nil {
		return nil, nil, fmt.Errorf("invalid dataset: top-level \"videos\" list is missing")
	}

	videos := make([]dataset.Video, 0, len(doc.Videos))
	var snapshots []dataset.Snapshot
	for _, v := range doc.Videos {
		videos = append(videos, dataset.Video{
			ID:             v.ID,
			CreatorID:      v.CreatorID,
			VideoCreatedAt: v.VideoCreatedAt.Time,
			ViewsCount:     v.ViewsCount.Value,
			LikesCount:     v.LikesCount.Value,
			CommentsCount:  v.CommentsCount.Value,
			ReportsCount:   v.ReportsCount.Value,
			CreatedAt:      v.CreatedAt.Time,
			UpdatedAt:      v.UpdatedAt.Time,
		})
		for _, s := range v.Snapshots {
			videoID := s.VideoID
			if videoID == "" {
				videoID = v.ID
			}
			snapshots = append(snapshots, dataset.Snapshot{
				ID:                 s.ID,
				VideoID:            videoID,
				ViewsCount:         s.ViewsCount.Value,
				LikesCount:         s.LikesCount.Value,
				CommentsCount:      s.CommentsCount.Value,
				ReportsCount:       s.ReportsCount.Value,
				DeltaViewsCount:    s.DeltaViewsCount.Value,
				DeltaLikesCount:    s.DeltaLikesCount.Value,
				DeltaCommentsCount: s.DeltaCommentsCount.Value,
				DeltaReportsCount:  s.DeltaReportsCount.Value,
				CreatedAt:          s.CreatedAt.Time,
				UpdatedAt:          s.UpdatedAt.Time,
			})
		}
	}
	return videos, snapshots, nil
}

// flexInt accepts numbers, numeric strings with spaces, floats, booleans and
// null; anything empty or null coerces to zero.
type flexInt struct {
	Value int64
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		f.Value = 0
		return nil
	}
	switch trimmed {
	case "true":
		f.Value = 1
		return nil
	case "false":
		f.Value = 0
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
		if s == "" {
			f.Value = 0
			return nil
		}
		value, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("parse integer %q: %w", s, err)
		}
		f.Value = value
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	if value, err := number.Int64(); err == nil {
		f.Value = value
		return nil
	}
	floatValue, err := number.Float64()
	if err != nil {
		return fmt.Errorf("parse number %q: %w", number.String(), err)
	}
	f.Value = int64(floatValue)
	return nil
}

// flexTime accepts RFC 3339 timestamps with or without a zone designator and
// bare dates; null and empty strings coerce to the zero time.
type flexTime struct {
	Time time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		f.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		f.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			f.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", s)
}
