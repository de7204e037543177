package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tubebrief-backend/internal/models"
)

type framePreviewer interface {
	PreviewFrame(ctx context.Context, videoID string, timestamp int) (string, error)
}

type termExtractor interface {
	ExtractTerms(ctx context.Context, content string) []string
}

// ToolsHandler serves the stateless helper endpoints: frame preview and
// term extraction.
type ToolsHandler struct {
	previewer framePreviewer
	extractor termExtractor
}

func NewToolsHandler(previewer framePreviewer, extractor termExtractor) *ToolsHandler {
	return &ToolsHandler{previewer: previewer, extractor: extractor}
}

func (h *ToolsHandler) PreviewFrame(w http.ResponseWriter, r *http.Request) {
	var req models.PreviewFrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	imageData, err := h.previewer.PreviewFrame(r.Context(), req.VideoID, req.Timestamp)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image_data": imageData})
}

func (h *ToolsHandler) ExtractTerms(w http.ResponseWriter, r *http.Request) {
	var req models.ExtractTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.SummaryContent == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "summary_content is required", r))
		return
	}

	terms := h.extractor.ExtractTerms(r.Context(), req.SummaryContent)
	writeJSON(w, http.StatusOK, map[string][]string{"terms": terms})
}
