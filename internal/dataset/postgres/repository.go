package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vidstat/vidstat/internal/dataset"
	"github.com/vidstat/vidstat/internal/nlq"
)

// insertBatchRows keeps multi-row inserts well below the postgres wire
// protocol limit of 65535 bind parameters per statement.
const insertBatchRows = 500

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// FetchValue runs one compiled scalar query. A NULL result (for example an
// aggregate over zero rows) is coerced to 0.
func (r *Repository) FetchValue(ctx context.Context, query nlq.Query) (int64, error) {
	var value sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query.SQL, query.Args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("fetch value: %w", err)
	}
	if !value.Valid {
		return 0, nil
	}
	return value.Int64, nil
}

func (r *Repository) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return count, nil
}

func (r *Repository) CountSnapshots(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM video_snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return count, nil
}

// ReplaceAll swaps the full dataset inside a single transaction so readers
// never observe a half-loaded state.
func (r *Repository) ReplaceAll(ctx context.Context, videos []dataset.Video, snapshots []dataset.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE video_snapshots, videos`); err != nil {
		return fmt.Errorf("truncate dataset: %w", err)
	}
	if err := insertVideos(ctx, tx, videos); err != nil {
		return err
	}
	if err := insertSnapshots(ctx, tx, snapshots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func insertVideos(ctx context.Context, tx *sql.Tx, videos []dataset.Video) error {
	const columns = 9
	for start := 0; start < len(videos); start += insertBatchRows {
		end := min(start+insertBatchRows, len(videos))
		batch := videos[start:end]

		args := make([]any, 0, len(batch)*columns)
		for _, v := range batch {
			args = append(args,
				v.ID, v.CreatorID, v.VideoCreatedAt,
				v.ViewsCount, v.LikesCount, v.CommentsCount, v.ReportsCount,
				v.CreatedAt, v.UpdatedAt,
			)
		}
		query := `
INSERT INTO videos (id, creator_id, video_created_at, views_count, likes_count, comments_count, reports_count, created_at, updated_at)
VALUES ` + valuesClause(len(batch), columns)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert videos batch: %w", err)
		}
	}
	return nil
}

func insertSnapshots(ctx context.Context, tx *sql.Tx, snapshots []dataset.Snapshot) error {
	const columns = 12
	for start := 0; start < len(snapshots); start += insertBatchRows {
		end := min(start+insertBatchRows, len(snapshots))
		batch := snapshots[start:end]

		args := make([]any, 0, len(batch)*columns)
		for _, s := range batch {
			args = append(args,
				s.ID, s.VideoID,
				s.ViewsCount, s.LikesCount, s.CommentsCount, s.ReportsCount,
				s.DeltaViewsCount, s.DeltaLikesCount, s.DeltaCommentsCount, s.DeltaReportsCount,
				s.CreatedAt, s.UpdatedAt,
			)
		}
		query := `
INSERT INTO video_snapshots (id, video_id, views_count, likes_count, comments_count, reports_count, delta_views_count, delta_likes_count, delta_comments_count, delta_reports_count, created_at, updated_at)
VALUES ` + valuesClause(len(batch), columns)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert snapshots batch: %w", err)
		}
	}
	return nil
}

func valuesClause(rows, columns int) string {
	var sb strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for col := 0; col < columns; col++ {
			if col > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", row*columns+col+1)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
