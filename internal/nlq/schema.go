package nlq

// The column and table whitelist. Every identifier that appears in emitted
// SQL comes from the constants and maps in this file; user text only ever
// reaches the database as a bound parameter.

const (
	tableVideos    = "videos"
	tableSnapshots = "video_snapshots"

	colVideoID        = "id"
	colCreatorID      = "creator_id"
	colVideoCreatedAt = "video_created_at"
	colSnapshotVideo  = "video_id"
	colCreatedAt      = "created_at"
)

// Final counters on videos.
var metricFinalColumn = map[Metric]string{
	MetricViews:    "views_count",
	MetricLikes:    "likes_count",
	MetricComments: "comments_count",
	MetricReports:  "reports_count",
}

// Per-snapshot deltas on video_snapshots.
var metricDeltaColumn = map[Metric]string{
	MetricViews:    "delta_views_count",
	MetricLikes:    "delta_likes_count",
	MetricComments: "delta_comments_count",
	MetricReports:  "delta_reports_count",
}
