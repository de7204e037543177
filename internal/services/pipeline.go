package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tubebrief-backend/internal/models"
)

// maxScreenshotTimestamp bounds user-supplied timestamps (24 hours).
const maxScreenshotTimestamp = 86400

type transcriptSource interface {
	GetTranscript(videoID string) (string, error)
	GetMetadata(ctx context.Context, videoID string) models.VideoMetadata
}

type summarizer interface {
	Summarize(ctx context.Context, transcript string, meta models.VideoMetadata, style PromptStyle) (*models.SummaryResult, string, error)
}

type screenshotter interface {
	Capture(ctx context.Context, videoID string, duration int) []models.ScreenshotDraft
	CaptureOne(ctx context.Context, videoID string, duration, timestamp int, descOverride string) (*models.ScreenshotDraft, error)
}

type summaryStore interface {
	CreateWithScreenshots(ctx context.Context, s *models.Summary, drafts []models.ScreenshotDraft) error
	GetWithScreenshots(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*models.Summary, error)
	UpdateGeneration(ctx context.Context, id uuid.UUID, result *models.SummaryResult, fullPrompt string) error
	UpdateTranscript(ctx context.Context, id uuid.UUID, transcript string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type screenshotStore interface {
	Add(ctx context.Context, summaryID uuid.UUID, draft models.ScreenshotDraft) (*models.Screenshot, error)
}

// PipelineService runs the summary-generation chain: resolve → transcript +
// metadata → summarize → annotate screenshots → persist. The whole chain
// executes synchronously within the calling request.
type PipelineService struct {
	videos      transcriptSource
	ai          summarizer
	screens     screenshotter
	summaries   summaryStore
	screenshots screenshotStore
}

func NewPipelineService(videos transcriptSource, ai summarizer, screens screenshotter, summaries summaryStore, screenshots screenshotStore) *PipelineService {
	return &PipelineService{
		videos:      videos,
		ai:          ai,
		screens:     screens,
		summaries:   summaries,
		screenshots: screenshots,
	}
}

// Create builds and persists a new summary for the given URL.
func (p *PipelineService) Create(ctx context.Context, userID uuid.UUID, rawURL string) (*models.Summary, error) {
	videoID, err := ResolveVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	transcript, err := p.videos.GetTranscript(videoID)
	if err != nil {
		return nil, err
	}

	// Metadata is best-effort and never blocks the pipeline
	meta := p.videos.GetMetadata(ctx, videoID)

	result, prompt, err := p.ai.Summarize(ctx, transcript, meta, StyleStandard)
	if err != nil {
		return nil, err
	}

	drafts := p.screens.Capture(ctx, videoID, meta.VideoDuration)
	if len(drafts) == 0 {
		log.Printf("no screenshots captured for %s, storing summary without them", videoID)
	}

	summary := &models.Summary{
		UserID:            userID,
		VideoID:           videoID,
		VideoURL:          rawURL,
		VideoTitle:        meta.VideoTitle,
		VideoAuthor:       meta.VideoAuthor,
		VideoDuration:     meta.VideoDuration,
		Transcript:        &transcript,
		KeyPoints:         result.KeyPoints,
		Summary:           result.Summary,
		StructuredOutline: result.StructuredOutline,
		FullPrompt:        &prompt,
	}

	if err := p.summaries.CreateWithScreenshots(ctx, summary, drafts); err != nil {
		return nil, err
	}

	return summary, nil
}

// Get loads one summary scoped to the requesting user. Records owned by
// someone else read as not found.
func (p *PipelineService) Get(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error) {
	return p.getOwned(ctx, userID, summaryID)
}

// Delete removes an owned summary; its screenshots go with it.
func (p *PipelineService) Delete(ctx context.Context, userID, summaryID uuid.UUID) error {
	summary, err := p.getOwned(ctx, userID, summaryID)
	if err != nil {
		return err
	}
	return p.summaries.Delete(ctx, summary.ID)
}

// Regenerate re-enters the summarization stage against the stored
// transcript, bypassing acquisition. Key points, summary and outline are
// replaced wholesale.
func (p *PipelineService) Regenerate(ctx context.Context, userID, summaryID uuid.UUID, promptType string) (*models.Summary, error) {
	if promptType == "" {
		promptType = string(StyleStandard)
	}
	if !ValidPromptStyle(promptType) {
		return nil, &ValidationError{Fields: map[string]string{"prompt_type": "Unknown prompt type: " + promptType}}
	}

	summary, err := p.getOwned(ctx, userID, summaryID)
	if err != nil {
		return nil, err
	}

	if summary.Transcript == nil || strings.TrimSpace(*summary.Transcript) == "" {
		return nil, &ValidationError{Fields: map[string]string{"transcript": "Summary has no stored transcript; refresh it first"}}
	}

	meta := models.VideoMetadata{
		VideoTitle:    summary.VideoTitle,
		VideoAuthor:   summary.VideoAuthor,
		VideoDuration: summary.VideoDuration,
	}

	result, prompt, err := p.ai.Summarize(ctx, *summary.Transcript, meta, PromptStyle(promptType))
	if err != nil {
		return nil, err
	}

	if err := p.summaries.UpdateGeneration(ctx, summary.ID, result, prompt); err != nil {
		return nil, err
	}

	summary.KeyPoints = result.KeyPoints
	summary.Summary = result.Summary
	summary.StructuredOutline = result.StructuredOutline
	summary.FullPrompt = &prompt

	return summary, nil
}

// RefreshTranscript re-runs caption acquisition for an existing summary.
// Like creation, a video without captions is an explicit error, not a
// sentinel transcript.
func (p *PipelineService) RefreshTranscript(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error) {
	summary, err := p.getOwned(ctx, userID, summaryID)
	if err != nil {
		return nil, err
	}

	transcript, err := p.videos.GetTranscript(summary.VideoID)
	if err != nil {
		return nil, err
	}

	if err := p.summaries.UpdateTranscript(ctx, summary.ID, transcript); err != nil {
		return nil, err
	}

	summary.Transcript = &transcript
	return summary, nil
}

// AddScreenshot captures a single user-chosen timestamp and attaches it to
// an owned summary.
func (p *PipelineService) AddScreenshot(ctx context.Context, userID, summaryID uuid.UUID, timestamp int, description string) (*models.Screenshot, error) {
	if timestamp < 0 || timestamp > maxScreenshotTimestamp {
		return nil, &ValidationError{Fields: map[string]string{"timestamp": "Timestamp must be between 0 and 86400 seconds"}}
	}

	summary, err := p.getOwned(ctx, userID, summaryID)
	if err != nil {
		return nil, err
	}

	draft, err := p.screens.CaptureOne(ctx, summary.VideoID, summary.VideoDuration, timestamp, description)
	if err != nil {
		return nil, err
	}

	return p.screenshots.Add(ctx, summary.ID, *draft)
}

// PreviewFrame returns the annotated frame for a timestamp without
// persisting anything.
func (p *PipelineService) PreviewFrame(ctx context.Context, videoID string, timestamp int) (string, error) {
	if videoID == "" {
		return "", &ValidationError{Fields: map[string]string{"video_id": "Video ID is required"}}
	}
	if timestamp < 0 || timestamp > maxScreenshotTimestamp {
		return "", &ValidationError{Fields: map[string]string{"timestamp": "Timestamp must be between 0 and 86400 seconds"}}
	}

	// Preview skips the AI description; only the image matters here
	draft, err := p.screens.CaptureOne(ctx, videoID, 0, timestamp, "preview")
	if err != nil {
		return "", err
	}
	return draft.ImageURL, nil
}

func (p *PipelineService) getOwned(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error) {
	summary, err := p.summaries.GetWithScreenshots(ctx, summaryID, &userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Ownership mismatches surface identically, hiding existence
			return nil, &NotFoundError{Message: "Summary not found"}
		}
		return nil, err
	}
	return summary, nil
}
