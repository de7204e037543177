package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tubebrief-backend/internal/models"
)

type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

const summaryColumns = `id, user_id, video_id, video_url, video_title, video_author, video_duration,
	transcript, key_points, summary, structured_outline, full_prompt, created_at, updated_at`

// CreateWithScreenshots inserts the summary and all of its screenshots in a
// single transaction: either the whole record lands or none of it does.
func (r *SummaryRepo) CreateWithScreenshots(ctx context.Context, s *models.Summary, drafts []models.ScreenshotDraft) error {
	s.ID = uuid.New()

	outlineJSON, err := json.Marshal(s.StructuredOutline)
	if err != nil {
		return fmt.Errorf("failed to marshal outline: %w", err)
	}
	if s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO summaries
		(id, user_id, video_id, video_url, video_title, video_author, video_duration,
		 transcript, key_points, summary, structured_outline, full_prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		s.ID, s.UserID, s.VideoID, s.VideoURL, s.VideoTitle, s.VideoAuthor, s.VideoDuration,
		s.Transcript, s.KeyPoints, s.Summary, outlineJSON, s.FullPrompt,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}

	s.Screenshots = make([]models.Screenshot, 0, len(drafts))
	for _, d := range drafts {
		shot := models.Screenshot{
			ID:          uuid.New(),
			SummaryID:   s.ID,
			ImageURL:    d.ImageURL,
			Timestamp:   d.Timestamp,
			Description: d.Description,
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO screenshots (id, summary_id, image_url, timestamp_seconds, description)
			 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
			shot.ID, shot.SummaryID, shot.ImageURL, shot.Timestamp, shot.Description,
		).Scan(&shot.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert screenshot: %w", err)
		}
		s.Screenshots = append(s.Screenshots, shot)
	}

	return tx.Commit(ctx)
}

// GetWithScreenshots loads a summary and its screenshots. A non-nil userID
// scopes the lookup to that owner: a mismatch reads as pgx.ErrNoRows, so
// non-owners cannot tell a hidden record from a missing one. Pass nil to
// read unscoped (admin).
func (r *SummaryRepo) GetWithScreenshots(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries
		WHERE id = $1 AND ($2::uuid IS NULL OR user_id = $2)`

	s, err := scanSummary(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, err
	}

	if err := r.attachScreenshots(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListByUser returns all of one user's summaries, newest first, each with
// its screenshots.
func (r *SummaryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Summary, error) {
	return r.list(ctx, `SELECT `+summaryColumns+` FROM summaries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListAll is the admin view: every user's summaries, no filtering.
func (r *SummaryRepo) ListAll(ctx context.Context) ([]*models.Summary, error) {
	return r.list(ctx, `SELECT `+summaryColumns+` FROM summaries ORDER BY created_at DESC`)
}

func (r *SummaryRepo) list(ctx context.Context, query string, args ...any) ([]*models.Summary, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]*models.Summary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if err := r.attachScreenshots(ctx, s); err != nil {
			return nil, err
		}
	}
	return summaries, nil
}

// UpdateGeneration replaces the generated fields wholesale. Regeneration
// never merges with the prior key points or outline.
func (r *SummaryRepo) UpdateGeneration(ctx context.Context, id uuid.UUID, result *models.SummaryResult, fullPrompt string) error {
	outlineJSON, err := json.Marshal(result.StructuredOutline)
	if err != nil {
		return fmt.Errorf("failed to marshal outline: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE summaries
		SET key_points = $1, summary = $2, structured_outline = $3, full_prompt = $4, updated_at = NOW()
		WHERE id = $5`,
		result.KeyPoints, result.Summary, outlineJSON, fullPrompt, id)
	return err
}

func (r *SummaryRepo) UpdateTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE summaries SET transcript = $1, updated_at = NOW() WHERE id = $2`, transcript, id)
	return err
}

// Delete removes the summary and its screenshots in one transaction.
func (r *SummaryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM screenshots WHERE summary_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete screenshots: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM summaries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *SummaryRepo) attachScreenshots(ctx context.Context, s *models.Summary) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, summary_id, image_url, timestamp_seconds, description, created_at
		FROM screenshots WHERE summary_id = $1 ORDER BY timestamp_seconds ASC`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	s.Screenshots = make([]models.Screenshot, 0)
	for rows.Next() {
		var shot models.Screenshot
		if err := rows.Scan(&shot.ID, &shot.SummaryID, &shot.ImageURL, &shot.Timestamp, &shot.Description, &shot.CreatedAt); err != nil {
			return err
		}
		s.Screenshots = append(s.Screenshots, shot)
	}
	return rows.Err()
}

func scanSummary(row pgx.Row) (*models.Summary, error) {
	s := &models.Summary{}
	var outlineJSON []byte

	err := row.Scan(
		&s.ID, &s.UserID, &s.VideoID, &s.VideoURL, &s.VideoTitle, &s.VideoAuthor, &s.VideoDuration,
		&s.Transcript, &s.KeyPoints, &s.Summary, &outlineJSON, &s.FullPrompt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(outlineJSON) > 0 {
		if err := json.Unmarshal(outlineJSON, &s.StructuredOutline); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outline: %w", err)
		}
	}
	if s.StructuredOutline == nil {
		s.StructuredOutline = []models.OutlineSection{}
	}
	if s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}

	return s, nil
}
