package services

import (
	"errors"
	"testing"

	"tubebrief-backend/internal/models"
)

func TestResolveVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"standard watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short URL with timestamp", "https://youtu.be/dQw4w9WgXcQ?t=30", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy /v/ URL", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"surrounding whitespace", "  https://youtu.be/dQw4w9WgXcQ  ", "dQw4w9WgXcQ"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveVideoID(tc.url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveVideoID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"not youtube", "https://vimeo.com/123456"},
		{"channel URL", "https://www.youtube.com/@somechannel"},
		{"bare homepage", "https://www.youtube.com/"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveVideoID(tc.url)
			if err == nil {
				t.Fatalf("expected error for %q", tc.url)
			}
			var resErr *ResolutionError
			if !errors.As(err, &resErr) {
				t.Fatalf("expected ResolutionError, got %T", err)
			}
		})
	}
}

func TestExtractCaptionURL(t *testing.T) {
	page := `{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[{"baseUrl":"https:\/\/www.youtube.com\/api\/timedtext?v=abc\u0026lang=en","name":{"simpleText":"English"}}],"audioTracks":[]}}}`

	u, err := extractCaptionURL(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://www.youtube.com/api/timedtext?v=abc\u0026lang=en"
	if u != want {
		t.Fatalf("expected %q, got %q", want, u)
	}
}

func TestExtractCaptionURL_NoCaptions(t *testing.T) {
	if _, err := extractCaptionURL(`<html><body>nothing here</body></html>`); err == nil {
		t.Fatalf("expected error for page without caption tracks")
	}
}

func TestParseCaptionsXML(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello world</text>
  <text start="2.5" dur="3.0">this is &amp; a test</text>
  <text start="5.5" dur="1.0">   </text>
</transcript>`)

	got, err := parseCaptionsXML(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Hello world this is & a test"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestParseCaptionsXML_Empty(t *testing.T) {
	data := []byte(`<transcript></transcript>`)
	if _, err := parseCaptionsXML(data); err == nil {
		t.Fatalf("expected error for empty transcript")
	}
}

func metadataFor(t *testing.T, title, author string, duration int) models.VideoMetadata {
	t.Helper()
	m := models.VideoMetadata{VideoTitle: title, VideoAuthor: author, VideoDuration: duration}
	fillMetadataDefaults(&m, "dQw4w9WgXcQ")
	return m
}

func TestFillMetadataDefaults(t *testing.T) {
	t.Run("missing everything", func(t *testing.T) {
		m := metadataFor(t, "", "", 0)
		if m.VideoTitle != unknownTitle {
			t.Fatalf("expected %q, got %q", unknownTitle, m.VideoTitle)
		}
		if m.VideoAuthor != unknownAuthor {
			t.Fatalf("expected %q, got %q", unknownAuthor, m.VideoAuthor)
		}
		if m.VideoDuration < 300 || m.VideoDuration >= 1800 {
			t.Fatalf("estimated duration %d outside 300..1799", m.VideoDuration)
		}
	})

	t.Run("real values survive", func(t *testing.T) {
		m := metadataFor(t, "Real Title", "Real Author", 642)
		if m.VideoTitle != "Real Title" || m.VideoAuthor != "Real Author" || m.VideoDuration != 642 {
			t.Fatalf("real metadata was overwritten: %+v", m)
		}
	})
}

func TestEstimateDuration_Deterministic(t *testing.T) {
	a := estimateDuration("dQw4w9WgXcQ")
	b := estimateDuration("dQw4w9WgXcQ")
	if a != b {
		t.Fatalf("estimate must be deterministic, got %d and %d", a, b)
	}
	if a < 300 || a >= 1800 {
		t.Fatalf("estimate %d outside 300..1799", a)
	}
}
