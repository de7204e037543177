package services

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
)

func TestSelectTimestamps(t *testing.T) {
	t.Run("ten minute video", func(t *testing.T) {
		got := SelectTimestamps(600)

		if len(got) < minScreenshots || len(got) > maxScreenshots {
			t.Fatalf("expected %d..%d timestamps, got %d", minScreenshots, maxScreenshots, len(got))
		}
		for _, ts := range got {
			if ts < 60 || ts > 540 {
				t.Fatalf("timestamp %d outside the 10%%..90%% window of a 600s video", ts)
			}
		}
		for i := 1; i < len(got); i++ {
			if got[i] <= got[i-1] {
				t.Fatalf("timestamps must be strictly increasing: %v", got)
			}
		}
	})

	t.Run("short video clamps to minimum", func(t *testing.T) {
		got := SelectTimestamps(120)
		if len(got) != minScreenshots {
			t.Fatalf("expected %d timestamps for a short video, got %d", minScreenshots, len(got))
		}
	})

	t.Run("long video clamps to maximum", func(t *testing.T) {
		got := SelectTimestamps(7200)
		if len(got) != maxScreenshots {
			t.Fatalf("expected %d timestamps for a long video, got %d", maxScreenshots, len(got))
		}
	})

	t.Run("even spacing", func(t *testing.T) {
		got := SelectTimestamps(1200)
		delta := got[1] - got[0]
		for i := 2; i < len(got); i++ {
			d := got[i] - got[i-1]
			if d < delta-1 || d > delta+1 {
				t.Fatalf("uneven spacing in %v", got)
			}
		}
	})

	t.Run("zero duration", func(t *testing.T) {
		if got := SelectTimestamps(0); got != nil {
			t.Fatalf("expected nil for zero duration, got %v", got)
		}
	})
}

func TestThumbnailURL(t *testing.T) {
	const videoID = "dQw4w9WgXcQ"

	tests := []struct {
		name      string
		timestamp int
		duration  int
		variant   string
	}{
		{"start of video", 0, 600, "maxresdefault"},
		{"first quarter", 100, 600, "maxresdefault"},
		{"second quarter", 200, 600, "sddefault"},
		{"third quarter", 350, 600, "hqdefault"},
		{"last quarter", 500, 600, "mqdefault"},
		{"timestamp at duration", 600, 600, "mqdefault"},
		{"zero duration", 42, 0, "maxresdefault"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ThumbnailURL(videoID, tc.timestamp, tc.duration)
			if !strings.Contains(got, videoID) {
				t.Fatalf("URL missing video id: %q", got)
			}
			if !strings.Contains(got, tc.variant+".jpg") {
				t.Fatalf("expected variant %q in %q", tc.variant, got)
			}
		})
	}
}

func testFrame(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	return img
}

func TestAnnotateFrame(t *testing.T) {
	src := testFrame(320, 180)
	out := annotateFrame(src, 125)

	if out.Bounds() != src.Bounds() {
		t.Fatalf("annotation must not resize the frame: %v vs %v", out.Bounds(), src.Bounds())
	}
}

func TestDrawBorder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 60))
	c := color.RGBA{R: 20, G: 20, B: 20, A: 255}
	drawBorder(img, 6, c)

	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 59}, {99, 59}, {50, 2}, {2, 30}} {
		if got := img.RGBAAt(p.X, p.Y); got != c {
			t.Fatalf("expected border color at %v, got %v", p, got)
		}
	}
	if got := img.RGBAAt(50, 30); got == c {
		t.Fatalf("interior pixel must not take the border color")
	}
}

func TestAnnotateFrame_Deterministic(t *testing.T) {
	a := annotateFrame(testFrame(320, 180), 300)
	b := annotateFrame(testFrame(320, 180), 300)

	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatalf("annotation for the same timestamp must be deterministic")
	}
}

func TestAnnotateFrame_EncodesAsJPEG(t *testing.T) {
	out := annotateFrame(testFrame(320, 180), 90)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("failed to encode annotated frame: %v", err)
	}

	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		t.Fatalf("annotated frame did not round-trip through JPEG: %v", err)
	}
	if decoded.Bounds() != out.Bounds() {
		t.Fatalf("decoded bounds changed: %v vs %v", decoded.Bounds(), out.Bounds())
	}
}

func TestApplyContrast_Clamps(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 250, G: 250, B: 250, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 5, G: 5, B: 5, A: 255})

	applyContrast(img, 2.0)

	bright := img.RGBAAt(0, 0)
	dark := img.RGBAAt(1, 0)
	if bright.R != 255 || dark.R != 0 {
		t.Fatalf("contrast must clamp to 0..255, got bright=%v dark=%v", bright, dark)
	}
	if bright.A != 255 || dark.A != 255 {
		t.Fatalf("alpha channel must be untouched")
	}
}
