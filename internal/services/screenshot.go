package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"tubebrief-backend/internal/models"
)

const (
	minScreenshots = 4
	maxScreenshots = 6
)

// Thumbnail variants, ordered by position in the video. No real frame
// seeking happens here: a timestamp is bucketed onto one of YouTube's static
// thumbnail images, which is an approximation, not scrubbing.
var thumbnailVariants = []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

type frameDescriber interface {
	DescribeFrame(ctx context.Context, jpeg []byte, timestamp int) string
}

type ScreenshotService struct {
	httpClient *http.Client
	describer  frameDescriber
}

func NewScreenshotService(describer frameDescriber) *ScreenshotService {
	return &ScreenshotService{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		describer:  describer,
	}
}

// SelectTimestamps picks clamp(duration/120, 4, 6) timestamps evenly spaced
// between the 10th and 90th percentile of the duration, skipping intros and
// outros.
func SelectTimestamps(duration int) []int {
	if duration <= 0 {
		return nil
	}

	n := duration / 120
	if n < minScreenshots {
		n = minScreenshots
	}
	if n > maxScreenshots {
		n = maxScreenshots
	}

	start := float64(duration) * 0.1
	end := float64(duration) * 0.9
	step := (end - start) / float64(n-1)

	timestamps := make([]int, n)
	for i := 0; i < n; i++ {
		timestamps[i] = int(start + step*float64(i))
	}
	return timestamps
}

// ThumbnailURL maps a timestamp bucket to one of the fixed thumbnail
// variants for the video.
func ThumbnailURL(videoID string, timestamp, duration int) string {
	idx := 0
	if duration > 0 {
		idx = timestamp * len(thumbnailVariants) / duration
		if idx >= len(thumbnailVariants) {
			idx = len(thumbnailVariants) - 1
		}
		if idx < 0 {
			idx = 0
		}
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, thumbnailVariants[idx])
}

// Capture produces the automatic screenshot set for a video. Per-timestamp
// failures are logged and skipped; an all-failed run returns an empty list,
// which the persistence stage accepts as valid.
func (s *ScreenshotService) Capture(ctx context.Context, videoID string, duration int) []models.ScreenshotDraft {
	drafts := make([]models.ScreenshotDraft, 0, maxScreenshots)

	for _, ts := range SelectTimestamps(duration) {
		draft, err := s.CaptureOne(ctx, videoID, duration, ts, "")
		if err != nil {
			log.Printf("screenshot at %ds skipped for %s: %v", ts, videoID, err)
			continue
		}
		drafts = append(drafts, *draft)
	}

	return drafts
}

// CaptureOne fetches, annotates, and describes a single frame. The manual
// capture path passes a user-chosen timestamp and an optional description
// override, which skips the AI description call.
func (s *ScreenshotService) CaptureOne(ctx context.Context, videoID string, duration, timestamp int, descOverride string) (*models.ScreenshotDraft, error) {
	img, err := s.fetchThumbnail(ctx, ThumbnailURL(videoID, timestamp, duration))
	if err != nil {
		return nil, err
	}

	annotated := annotateFrame(img, timestamp)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}

	description := descOverride
	if description == "" {
		description = s.describer.DescribeFrame(ctx, buf.Bytes(), timestamp)
	}

	return &models.ScreenshotDraft{
		ImageURL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Timestamp:   timestamp,
		Description: description,
	}, nil
}

func (s *ScreenshotService) fetchThumbnail(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode thumbnail: %w", err)
	}
	return img, nil
}

// annotateFrame applies the fixed decoration pass: contrast tweak, border,
// timestamp watermark, and a few randomized highlight rectangles standing in
// for detected text regions.
func annotateFrame(src image.Image, timestamp int) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	applyContrast(out, 1.15)
	drawBorder(out, 6, color.RGBA{R: 20, G: 20, B: 20, A: 255})
	drawHighlights(out, timestamp)
	drawWatermark(out, FormatTimestamp(timestamp))

	return out
}

func applyContrast(img *image.RGBA, factor float64) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c])
				v = (v-128)*factor + 128
				if v < 0 {
					v = 0
				}
				if v > 255 {
					v = 255
				}
				img.Pix[i+c] = uint8(v)
			}
		}
	}
}

func drawBorder(img *image.RGBA, width int, c color.RGBA) {
	b := img.Bounds()
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+width), &image.Uniform{c}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Max.Y-width, b.Max.X, b.Max.Y), &image.Uniform{c}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y), &image.Uniform{c}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(b.Max.X-width, b.Min.Y, b.Max.X, b.Max.Y), &image.Uniform{c}, image.Point{}, draw.Src)
}

// drawHighlights paints 2-4 translucent rectangles at positions seeded by
// the timestamp. The regions are random, not derived from content analysis.
func drawHighlights(img *image.RGBA, timestamp int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 40 || h < 40 {
		return
	}

	rng := rand.New(rand.NewSource(int64(timestamp)))
	count := 2 + rng.Intn(3)
	highlight := color.RGBA{R: 255, G: 220, B: 60, A: 70}

	for i := 0; i < count; i++ {
		rw := w/8 + rng.Intn(w/6)
		rh := h / 14
		x := b.Min.X + rng.Intn(w-rw)
		y := b.Min.Y + rng.Intn(h-rh)
		draw.Draw(img, image.Rect(x, y, x+rw, y+rh), &image.Uniform{highlight}, image.Point{}, draw.Over)
	}
}

func drawWatermark(img *image.RGBA, label string) {
	b := img.Bounds()
	face := basicfont.Face7x13

	textW := len(label) * 7
	x := b.Min.X + 14
	y := b.Max.Y - 14

	// Dark backing strip so the label stays readable
	backing := image.Rect(x-4, y-12, x+textW+4, y+4)
	draw.Draw(img, backing, &image.Uniform{color.RGBA{A: 160}}, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}
