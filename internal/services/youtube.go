package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"html"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"

	"tubebrief-backend/internal/models"
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown Author"
)

type YouTubeService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
	}
}

// Supported URL shapes: watch?v=ID, /embed/ID, /v/ID, youtu.be/ID.
// The character class excludes /, ?, # and & so trailing noise drops off
// with the match.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/v/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`),
}

// ResolveVideoID extracts the canonical video id from a YouTube URL.
// Unparseable URLs fail with a ResolutionError, which is terminal for all
// downstream pipeline stages.
func ResolveVideoID(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", &ResolutionError{URL: rawURL}
	}

	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(trimmed); len(m) > 1 && m[1] != "" {
			return m[1], nil
		}
	}

	return "", &ResolutionError{URL: rawURL}
}

// GetTranscript fetches the caption text for a video: preferred English
// tracks first, then any available language, then a timedtext page-scrape as
// the alternate provider. Absence of captions in every mode is an explicit
// TranscriptUnavailableError, never a sentinel string.
func (s *YouTubeService) GetTranscript(videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Retry requesting any language, which includes auto-generated tracks
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacy, legacyErr := s.getTranscriptViaTimedText(videoID)
			if legacyErr == nil {
				return legacy, nil
			}
			log.Printf("transcript unavailable for %s: api=%v timedtext=%v", videoID, err, legacyErr)
			return "", &TranscriptUnavailableError{VideoID: videoID}
		}
	}

	if len(transcript.Entries) == 0 {
		return "", &TranscriptUnavailableError{VideoID: videoID}
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", &TranscriptUnavailableError{VideoID: videoID}
	}

	return cleaned, nil
}

func (s *YouTubeService) getTranscriptViaTimedText(videoID string) (string, error) {
	pageHTML, err := s.fetchWatchPage(videoID)
	if err != nil {
		return "", err
	}

	captionURL, err := extractCaptionURL(pageHTML)
	if err != nil {
		return "", err
	}

	captionResp, err := s.httpClient.Get(captionURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	transcript, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	return transcript, nil
}

func (s *YouTubeService) fetchWatchPage(videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, _ := http.NewRequest("GET", pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}

	return string(body), nil
}

func extractCaptionURL(pageHTML string) (string, error) {
	re := regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	matches := re.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		re2 := regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
		matches = re2.FindStringSubmatch(pageHTML)
		if len(matches) < 2 {
			return "", fmt.Errorf("no captions available for this video")
		}
	}

	tracksJSON := matches[1]
	reURL := regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
	urlMatches := reURL.FindStringSubmatch(tracksJSON)
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")

	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := html.UnescapeString(t.Text)
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}

	return strings.Join(parts, " "), nil
}

// GetMetadata fetches video title, author and duration. It never returns an
// error: metadata is cosmetic, so provider failures degrade the record to
// placeholder values and an estimated duration instead of aborting the
// pipeline.
func (s *YouTubeService) GetMetadata(ctx context.Context, videoID string) models.VideoMetadata {
	if video, err := s.ytClient.GetVideoContext(ctx, videoID); err == nil {
		meta := models.VideoMetadata{
			VideoTitle:    video.Title,
			VideoAuthor:   video.Author,
			VideoDuration: int(video.Duration.Seconds()),
		}
		fillMetadataDefaults(&meta, videoID)
		return meta
	}

	if meta, err := s.scrapeMetadata(videoID); err == nil {
		fillMetadataDefaults(&meta, videoID)
		return meta
	}

	log.Printf("metadata unavailable for %s, using placeholders", videoID)
	meta := models.VideoMetadata{}
	fillMetadataDefaults(&meta, videoID)
	return meta
}

func (s *YouTubeService) scrapeMetadata(videoID string) (models.VideoMetadata, error) {
	pageHTML, err := s.fetchWatchPage(videoID)
	if err != nil {
		return models.VideoMetadata{}, err
	}

	var meta models.VideoMetadata

	titleRe := regexp.MustCompile(`<title>(.*?) - YouTube</title>`)
	if m := titleRe.FindStringSubmatch(pageHTML); len(m) > 1 {
		meta.VideoTitle = html.UnescapeString(m[1])
	}

	channelRe := regexp.MustCompile(`"ownerChannelName":"(.*?)"`)
	if m := channelRe.FindStringSubmatch(pageHTML); len(m) > 1 {
		meta.VideoAuthor = m[1]
	}

	durRe := regexp.MustCompile(`"lengthSeconds":"(\d+)"`)
	if m := durRe.FindStringSubmatch(pageHTML); len(m) > 1 {
		fmt.Sscanf(m[1], "%d", &meta.VideoDuration)
	}

	if meta.VideoTitle == "" && meta.VideoAuthor == "" && meta.VideoDuration == 0 {
		return models.VideoMetadata{}, fmt.Errorf("no metadata found in watch page")
	}

	return meta, nil
}

// fillMetadataDefaults applies the placeholder degradation. A missing
// duration gets a deterministic estimate derived from the video id so that
// downstream screenshot timestamp selection stays plausible; the estimate is
// a stand-in, not real metadata.
func fillMetadataDefaults(meta *models.VideoMetadata, videoID string) {
	if meta.VideoTitle == "" {
		meta.VideoTitle = unknownTitle
	}
	if meta.VideoAuthor == "" {
		meta.VideoAuthor = unknownAuthor
	}
	if meta.VideoDuration <= 0 {
		meta.VideoDuration = estimateDuration(videoID)
	}
}

// estimateDuration hashes the video id into a 5-30 minute range.
func estimateDuration(videoID string) int {
	h := fnv.New32a()
	h.Write([]byte(videoID))
	return 300 + int(h.Sum32()%1500)
}
