package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tubebrief-backend/internal/middleware"
	"tubebrief-backend/internal/models"
)

type summaryPipeline interface {
	Create(ctx context.Context, userID uuid.UUID, rawURL string) (*models.Summary, error)
	Get(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error)
	Delete(ctx context.Context, userID, summaryID uuid.UUID) error
	Regenerate(ctx context.Context, userID, summaryID uuid.UUID, promptType string) (*models.Summary, error)
	RefreshTranscript(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error)
	AddScreenshot(ctx context.Context, userID, summaryID uuid.UUID, timestamp int, description string) (*models.Screenshot, error)
}

type summaryLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Summary, error)
}

type SummaryHandler struct {
	pipeline  summaryPipeline
	summaries summaryLister
}

func NewSummaryHandler(pipeline summaryPipeline, summaries summaryLister) *SummaryHandler {
	return &SummaryHandler{pipeline: pipeline, summaries: summaries}
}

func (h *SummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "URL is required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	summary, err := h.pipeline.Create(r.Context(), userID, req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.summaries.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch summaries", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summaries": summaries,
		"total":     len(summaries),
	})
}

func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid summary ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	summary, err := h.pipeline.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *SummaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid summary ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	if err := h.pipeline.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Summary deleted"})
}

func (h *SummaryHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid summary ID", r))
		return
	}

	var req models.RegenerateSummaryRequest
	if r.Body != nil {
		// Empty body means regenerate with the standard style
		json.NewDecoder(r.Body).Decode(&req)
	}

	userID := middleware.GetUserID(r.Context())

	summary, err := h.pipeline.Regenerate(r.Context(), userID, id, req.PromptType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *SummaryHandler) RefreshTranscript(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid summary ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	summary, err := h.pipeline.RefreshTranscript(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *SummaryHandler) AddScreenshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid summary ID", r))
		return
	}

	var req models.AddScreenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())

	shot, err := h.pipeline.AddScreenshot(r.Context(), userID, id, req.Timestamp, req.Description)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, shot)
}
