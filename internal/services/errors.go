package services

// Service error taxonomy, mapped to HTTP status codes in the handlers layer.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ResolutionError means the submitted URL could not be parsed into a video
// id. Terminal for the whole pipeline.
type ResolutionError struct{ URL string }

func (e *ResolutionError) Error() string {
	return "could not extract a video ID from URL: " + e.URL
}

// TranscriptUnavailableError means no caption track exists in any attempted
// language or mode.
type TranscriptUnavailableError struct{ VideoID string }

func (e *TranscriptUnavailableError) Error() string {
	return "no captions available for video " + e.VideoID
}

// SummarizationError wraps an upstream model or network failure.
type SummarizationError struct {
	Message string
	Err     error
}

func (e *SummarizationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// MalformedOutputError means the model returned parseable JSON that does not
// match the expected summary shape. Kept distinct from SummarizationError so
// callers can tell a bad completion from a failed one.
type MalformedOutputError struct{ Reason string }

func (e *MalformedOutputError) Error() string {
	return "model output did not match expected shape: " + e.Reason
}
