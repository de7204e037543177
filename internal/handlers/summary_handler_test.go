package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tubebrief-backend/internal/middleware"
	"tubebrief-backend/internal/models"
	"tubebrief-backend/internal/services"
)

type stubPipeline struct {
	summary    *models.Summary
	screenshot *models.Screenshot
	err        error

	lastUserID uuid.UUID
	lastURL    string
	lastStyle  string
	deleted    bool
}

func (s *stubPipeline) Create(ctx context.Context, userID uuid.UUID, rawURL string) (*models.Summary, error) {
	s.lastUserID = userID
	s.lastURL = rawURL
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubPipeline) Get(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubPipeline) Delete(ctx context.Context, userID, summaryID uuid.UUID) error {
	s.lastUserID = userID
	if s.err != nil {
		return s.err
	}
	s.deleted = true
	return nil
}

func (s *stubPipeline) Regenerate(ctx context.Context, userID, summaryID uuid.UUID, promptType string) (*models.Summary, error) {
	s.lastStyle = promptType
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubPipeline) RefreshTranscript(ctx context.Context, userID, summaryID uuid.UUID) (*models.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubPipeline) AddScreenshot(ctx context.Context, userID, summaryID uuid.UUID, timestamp int, description string) (*models.Screenshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.screenshot, nil
}

type stubLister struct {
	summaries []*models.Summary
	err       error
}

func (s *stubLister) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Summary, error) {
	return s.summaries, s.err
}

func authedRequest(method, target string, body []byte, userID uuid.UUID, summaryID string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	if summaryID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", summaryID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func TestSummaryHandler_Create(t *testing.T) {
	userID := uuid.New()
	pipeline := &stubPipeline{summary: &models.Summary{ID: uuid.New(), UserID: userID, VideoID: "dQw4w9WgXcQ"}}
	h := NewSummaryHandler(pipeline, &stubLister{})

	body, _ := json.Marshal(map[string]string{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	req := authedRequest(http.MethodPost, "/api/v1/summaries", body, userID, "")

	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	if pipeline.lastUserID != userID {
		t.Fatalf("expected pipeline to run as %s, got %s", userID, pipeline.lastUserID)
	}
	if pipeline.lastURL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("unexpected URL passed to pipeline: %q", pipeline.lastURL)
	}
}

func TestSummaryHandler_Create_MissingURL(t *testing.T) {
	h := NewSummaryHandler(&stubPipeline{}, &stubLister{})

	body, _ := json.Marshal(map[string]string{})
	req := authedRequest(http.MethodPost, "/api/v1/summaries", body, uuid.New(), "")

	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestSummaryHandler_Create_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid url", &services.ResolutionError{URL: "not-a-url"}, http.StatusBadRequest, "INVALID_URL"},
		{"no transcript", &services.TranscriptUnavailableError{VideoID: "abc123def45"}, http.StatusBadRequest, "NO_TRANSCRIPT"},
		{"malformed output", &services.MalformedOutputError{Reason: "missing key_points"}, http.StatusInternalServerError, "MALFORMED_MODEL_OUTPUT"},
		{"summarization failed", &services.SummarizationError{Message: "model unavailable"}, http.StatusInternalServerError, "SUMMARIZATION_FAILED"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewSummaryHandler(&stubPipeline{err: tc.err}, &stubLister{})

			body, _ := json.Marshal(map[string]string{"url": "https://youtu.be/abc123def45"})
			req := authedRequest(http.MethodPost, "/api/v1/summaries", body, uuid.New(), "")

			rr := httptest.NewRecorder()
			h.Create(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Fatalf("expected error code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestSummaryHandler_Get_HiddenFromNonOwner(t *testing.T) {
	// The data layer reports a non-owner lookup as not found, so the
	// response must be indistinguishable from a missing record.
	pipeline := &stubPipeline{err: &services.NotFoundError{Message: "Summary not found"}}
	h := NewSummaryHandler(pipeline, &stubLister{})

	req := authedRequest(http.MethodGet, "/api/v1/summaries/"+uuid.NewString(), nil, uuid.New(), uuid.NewString())

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSummaryHandler_Get_InvalidID(t *testing.T) {
	h := NewSummaryHandler(&stubPipeline{}, &stubLister{})

	req := authedRequest(http.MethodGet, "/api/v1/summaries/not-a-uuid", nil, uuid.New(), "not-a-uuid")

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestSummaryHandler_List(t *testing.T) {
	userID := uuid.New()
	lister := &stubLister{summaries: []*models.Summary{
		{ID: uuid.New(), UserID: userID},
		{ID: uuid.New(), UserID: userID},
	}}
	h := NewSummaryHandler(&stubPipeline{}, lister)

	req := authedRequest(http.MethodGet, "/api/v1/summaries", nil, userID, "")

	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var payload struct {
		Summaries []models.Summary `json:"summaries"`
		Total     int              `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Total != 2 || len(payload.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got total=%d len=%d", payload.Total, len(payload.Summaries))
	}
}

func TestSummaryHandler_Delete(t *testing.T) {
	pipeline := &stubPipeline{}
	h := NewSummaryHandler(pipeline, &stubLister{})

	req := authedRequest(http.MethodDelete, "/api/v1/summaries/"+uuid.NewString(), nil, uuid.New(), uuid.NewString())

	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !pipeline.deleted {
		t.Fatalf("expected delete to reach the pipeline")
	}
}

func TestSummaryHandler_Regenerate_EmptyBodyDefaultsToStandard(t *testing.T) {
	pipeline := &stubPipeline{summary: &models.Summary{ID: uuid.New()}}
	h := NewSummaryHandler(pipeline, &stubLister{})

	req := authedRequest(http.MethodPost, "/api/v1/summaries/"+uuid.NewString()+"/regenerate", nil, uuid.New(), uuid.NewString())

	rr := httptest.NewRecorder()
	h.Regenerate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if pipeline.lastStyle != "" {
		t.Fatalf("expected empty prompt type for empty body, got %q", pipeline.lastStyle)
	}
}

func TestSummaryHandler_AddScreenshot(t *testing.T) {
	pipeline := &stubPipeline{screenshot: &models.Screenshot{ID: uuid.New(), Timestamp: 120}}
	h := NewSummaryHandler(pipeline, &stubLister{})

	body, _ := json.Marshal(map[string]interface{}{"timestamp": 120, "description": "Architecture diagram"})
	req := authedRequest(http.MethodPost, "/api/v1/summaries/"+uuid.NewString()+"/screenshots", body, uuid.New(), uuid.NewString())

	rr := httptest.NewRecorder()
	h.AddScreenshot(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
}
