package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"tubebrief-backend/internal/models"
)

type ScreenshotRepo struct {
	pool *pgxpool.Pool
}

func NewScreenshotRepo(pool *pgxpool.Pool) *ScreenshotRepo {
	return &ScreenshotRepo{pool: pool}
}

// Add attaches one screenshot to an existing summary. Screenshots are never
// updated after creation; they only get added or cascade-deleted with their
// summary.
func (r *ScreenshotRepo) Add(ctx context.Context, summaryID uuid.UUID, draft models.ScreenshotDraft) (*models.Screenshot, error) {
	shot := &models.Screenshot{
		ID:          uuid.New(),
		SummaryID:   summaryID,
		ImageURL:    draft.ImageURL,
		Timestamp:   draft.Timestamp,
		Description: draft.Description,
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO screenshots (id, summary_id, image_url, timestamp_seconds, description)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		shot.ID, shot.SummaryID, shot.ImageURL, shot.Timestamp, shot.Description,
	).Scan(&shot.CreatedAt)
	if err != nil {
		return nil, err
	}
	return shot, nil
}

func (r *ScreenshotRepo) ListBySummary(ctx context.Context, summaryID uuid.UUID) ([]models.Screenshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, summary_id, image_url, timestamp_seconds, description, created_at
		FROM screenshots WHERE summary_id = $1 ORDER BY timestamp_seconds ASC`, summaryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shots := make([]models.Screenshot, 0)
	for rows.Next() {
		var shot models.Screenshot
		if err := rows.Scan(&shot.ID, &shot.SummaryID, &shot.ImageURL, &shot.Timestamp, &shot.Description, &shot.CreatedAt); err != nil {
			return nil, err
		}
		shots = append(shots, shot)
	}
	return shots, rows.Err()
}
