package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoMetadata is best-effort: fetch failures degrade to the placeholder
// values instead of aborting the summary pipeline.
type VideoMetadata struct {
	VideoTitle    string `json:"video_title"`
	VideoAuthor   string `json:"video_author"`
	VideoDuration int    `json:"video_duration"`
}

type OutlineSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// SummaryResult is the validated shape of one model completion.
type SummaryResult struct {
	KeyPoints         []string         `json:"key_points"`
	Summary           string           `json:"summary"`
	StructuredOutline []OutlineSection `json:"structured_outline"`
}

type Summary struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"user_id"`
	VideoID           string           `json:"video_id"`
	VideoURL          string           `json:"video_url"`
	VideoTitle        string           `json:"video_title"`
	VideoAuthor       string           `json:"video_author"`
	VideoDuration     int              `json:"video_duration"`
	Transcript        *string          `json:"transcript"`
	KeyPoints         []string         `json:"key_points"`
	Summary           string           `json:"summary"`
	StructuredOutline []OutlineSection `json:"structured_outline"`
	FullPrompt        *string          `json:"full_prompt,omitempty"`
	Screenshots       []Screenshot     `json:"screenshots"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type Screenshot struct {
	ID          uuid.UUID `json:"id"`
	SummaryID   uuid.UUID `json:"summary_id"`
	ImageURL    string    `json:"image_url"` // base64 data URI
	Timestamp   int       `json:"timestamp"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScreenshotDraft is an annotated frame before it is attached to a summary.
type ScreenshotDraft struct {
	ImageURL    string `json:"image_url"`
	Timestamp   int    `json:"timestamp"`
	Description string `json:"description"`
}

type CreateSummaryRequest struct {
	URL string `json:"url"`
}

type RegenerateSummaryRequest struct {
	PromptType string `json:"prompt_type"`
}

type AddScreenshotRequest struct {
	Timestamp   int    `json:"timestamp"`
	Description string `json:"description"`
}

type PreviewFrameRequest struct {
	VideoID   string `json:"video_id"`
	Timestamp int    `json:"timestamp"`
}

type ExtractTermsRequest struct {
	SummaryContent string `json:"summary_content"`
}
