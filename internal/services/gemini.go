package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tubebrief-backend/internal/models"
)

// transcriptCharLimit is a hard ceiling applied before submission to respect
// model context limits. Transcripts longer than this are cut to exactly this
// many characters and the truncation marker is appended.
const transcriptCharLimit = 14000

const truncationMarker = "\n\n[Transcript truncated due to length]"

// PromptStyle selects among the named system-prompt variants.
type PromptStyle string

const (
	StyleStandard  PromptStyle = "standard"
	StyleDetailed  PromptStyle = "detailed"
	StyleConcise   PromptStyle = "concise"
	StyleBusiness  PromptStyle = "business"
	StyleAcademic  PromptStyle = "academic"
	StyleTechnical PromptStyle = "technical"
)

var promptStyles = map[PromptStyle]string{
	StyleStandard:  "You are an expert video content analyst. Produce a balanced, structured summary capturing the video's main ideas.",
	StyleDetailed:  "You are an expert video content analyst. Produce a thorough, in-depth summary covering every significant topic, argument, and example in the video.",
	StyleConcise:   "You are an expert video content analyst. Produce a tight, minimal summary containing only the most essential points. Brevity is the priority.",
	StyleBusiness:  "You are a business analyst. Summarize the video with a focus on actionable insights, strategy, market context, and practical takeaways for professionals.",
	StyleAcademic:  "You are an academic reviewer. Summarize the video with scholarly rigor: define key concepts, note methodology where relevant, and preserve nuance.",
	StyleTechnical: "You are a senior engineer reviewing technical content. Summarize the video with emphasis on technical concepts, architectures, tooling, and implementation details.",
}

// ValidPromptStyle reports whether the given style name is a known variant.
func ValidPromptStyle(s string) bool {
	_, ok := promptStyles[PromptStyle(s)]
	return ok
}

// GeminiService is the single AI client for the process: constructed once at
// startup and injected into everything that talks to the model.
type GeminiService struct {
	client    *genai.Client
	jsonModel *genai.GenerativeModel // structured-output mode
	textModel *genai.GenerativeModel // vision descriptions, plain completions
	rateChan  chan struct{}          // bounds concurrent outbound calls
}

func NewGeminiService(apiKey string, concurrentReqs int) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	jsonModel := client.GenerativeModel("gemini-3-flash-preview")
	jsonModel.SetTemperature(0.2)
	jsonModel.SetTopP(0.95)
	jsonModel.ResponseMIMEType = "application/json"

	textModel := client.GenerativeModel("gemini-3-flash-preview")
	textModel.SetTemperature(0.2)

	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:    client,
		jsonModel: jsonModel,
		textModel: textModel,
		rateChan:  rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Summarize sends the transcript and metadata to the model and returns the
// validated structured result plus the exact prompt text used.
func (s *GeminiService) Summarize(ctx context.Context, transcript string, meta models.VideoMetadata, style PromptStyle) (*models.SummaryResult, string, error) {
	if strings.TrimSpace(transcript) == "" {
		// Guard before any network call is made
		return nil, "", &SummarizationError{Message: "transcript is empty"}
	}

	prompt := buildSummaryPrompt(style, meta, truncateTranscript(transcript))

	if err := s.acquireRate(ctx); err != nil {
		return nil, "", &SummarizationError{Message: "rate slot unavailable", Err: err}
	}
	defer s.releaseRate()

	resp, err := s.jsonModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, "", &SummarizationError{Message: "Gemini API error", Err: err}
	}

	rawText := stripCodeFences(extractText(resp))
	if rawText == "" {
		return nil, "", &SummarizationError{Message: "Gemini returned an empty completion"}
	}

	result, err := parseSummaryPayload(rawText)
	if err != nil {
		return nil, "", err
	}

	return result, prompt, nil
}

// DescribeFrame returns an at-most-8-word description of the image. It never
// fails: any error falls back to a templated "Screenshot at MM:SS" string.
func (s *GeminiService) DescribeFrame(ctx context.Context, jpeg []byte, timestamp int) string {
	fallback := fmt.Sprintf("Screenshot at %s", FormatTimestamp(timestamp))

	if len(jpeg) == 0 {
		return fallback
	}
	if err := s.acquireRate(ctx); err != nil {
		return fallback
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf("Describe the visual content of this video frame (taken at %s) in at most 8 words. Return only the description, no punctuation at the end.", FormatTimestamp(timestamp))

	resp, err := s.textModel.GenerateContent(ctx,
		genai.Text(prompt),
		genai.ImageData("jpeg", jpeg),
	)
	if err != nil {
		log.Printf("frame description failed at %ds: %v", timestamp, err)
		return fallback
	}

	desc := strings.TrimSpace(extractText(resp))
	if desc == "" {
		return fallback
	}

	words := strings.Fields(desc)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}

// ExtractTerms returns up to 10 salient terms from summary text. On any model
// failure a local regex substitutes capitalized multi-word phrases; callers
// cannot tell the two sources apart.
func (s *GeminiService) ExtractTerms(ctx context.Context, content string) []string {
	if strings.TrimSpace(content) == "" {
		return []string{}
	}

	if err := s.acquireRate(ctx); err != nil {
		return fallbackTerms(content)
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`Extract up to 10 key terms or concepts from this summary. Return ONLY a JSON array of strings.

Summary:
%s`, content)

	resp, err := s.jsonModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("term extraction failed, using regex fallback: %v", err)
		return fallbackTerms(content)
	}

	rawText := stripCodeFences(extractText(resp))

	var terms []string
	if err := json.Unmarshal([]byte(rawText), &terms); err != nil {
		return fallbackTerms(content)
	}

	if len(terms) > 10 {
		terms = terms[:10]
	}
	return terms
}

// Helper functions

func truncateTranscript(transcript string) string {
	if len(transcript) <= transcriptCharLimit {
		return transcript
	}
	return transcript[:transcriptCharLimit] + truncationMarker
}

func buildSummaryPrompt(style PromptStyle, meta models.VideoMetadata, transcript string) string {
	system, ok := promptStyles[style]
	if !ok {
		system = promptStyles[StyleStandard]
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Video: %q by %s (%s long).\n\n", meta.VideoTitle, meta.VideoAuthor, FormatTimestamp(meta.VideoDuration)))
	b.WriteString(`Return ONLY a valid JSON object with exactly this shape:
{"key_points": ["string"], "summary": "string", "structured_outline": [{"title": "string", "items": ["string"]}]}

Rules:
- key_points: 5-8 standalone takeaways
- summary: a narrative summary in 2-4 paragraphs
- structured_outline: 3-6 sections with 2-5 items each, in the order topics appear
`)
	b.WriteString("\n---TRANSCRIPT START---\n")
	b.WriteString(transcript)
	b.WriteString("\n---TRANSCRIPT END---\n")

	return b.String()
}

// parseSummaryPayload validates the completion against the expected result
// shape. JSON that parses but is missing a field raises a
// MalformedOutputError rather than storing empty columns.
func parseSummaryPayload(rawText string) (*models.SummaryResult, error) {
	var payload struct {
		KeyPoints         *[]string                `json:"key_points"`
		Summary           *string                  `json:"summary"`
		StructuredOutline *[]models.OutlineSection `json:"structured_outline"`
	}

	if err := json.Unmarshal([]byte(rawText), &payload); err != nil {
		return nil, &SummarizationError{Message: "Gemini returned non-JSON output", Err: err}
	}

	switch {
	case payload.KeyPoints == nil || len(*payload.KeyPoints) == 0:
		return nil, &MalformedOutputError{Reason: "key_points missing or empty"}
	case payload.Summary == nil || strings.TrimSpace(*payload.Summary) == "":
		return nil, &MalformedOutputError{Reason: "summary missing or empty"}
	case payload.StructuredOutline == nil:
		return nil, &MalformedOutputError{Reason: "structured_outline missing"}
	}

	for i, section := range *payload.StructuredOutline {
		if section.Title == "" {
			return nil, &MalformedOutputError{Reason: fmt.Sprintf("outline section %d has no title", i)}
		}
	}

	return &models.SummaryResult{
		KeyPoints:         *payload.KeyPoints,
		Summary:           *payload.Summary,
		StructuredOutline: *payload.StructuredOutline,
	}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// FormatTimestamp renders seconds as MM:SS.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

var capitalizedPhraseRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

// fallbackTerms pulls capitalized multi-word phrases out of the text as a
// stand-in for model-extracted terms.
func fallbackTerms(content string) []string {
	matches := capitalizedPhraseRe.FindAllString(content, -1)

	seen := make(map[string]bool)
	terms := make([]string, 0, 10)
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		terms = append(terms, m)
		if len(terms) == 10 {
			break
		}
	}
	return terms
}
