// Package dataset defines the video engagement domain model and the
// repository contract the answer services depend on.
package dataset

import (
	"context"
	"errors"
	"time"

	"github.com/vidstat/vidstat/internal/nlq"
)

var ErrNotFound = errors.New("dataset: not found")

// Video is one row of the videos table: the latest known counters for a
// single published video.
type Video struct {
	ID             string
	CreatorID      string
	VideoCreatedAt time.Time
	ViewsCount     int64
	LikesCount     int64
	CommentsCount  int64
	ReportsCount   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot is one row of the video_snapshots table: a periodic observation
// of a video's counters plus the deltas since the previous observation.
type Snapshot struct {
	ID                 string
	VideoID            string
	ViewsCount         int64
	LikesCount         int64
	CommentsCount      int64
	ReportsCount       int64
	DeltaViewsCount    int64
	DeltaLikesCount    int64
	DeltaCommentsCount int64
	DeltaReportsCount  int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LoadStats summarizes one bulk dataset load.
type LoadStats struct {
	Videos    int64
	Snapshots int64
	Elapsed   time.Duration
}

// Repository is the persistence surface for compiled queries and dataset
// loads.
type Repository interface {
	// FetchValue executes one compiled scalar query and returns its single
	// value, coercing SQL NULL to zero.
	FetchValue(ctx context.Context, query nlq.Query) (int64, error)
	CountVideos(ctx context.Context) (int64, error)
	CountSnapshots(ctx context.Context) (int64, error)
	// ReplaceAll atomically swaps the whole dataset for the given rows.
	ReplaceAll(ctx context.Context, videos []Video, snapshots []Snapshot) error
	HealthCheck(ctx context.Context) error
}
