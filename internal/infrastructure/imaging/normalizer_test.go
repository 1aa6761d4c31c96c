package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// canvasWithDarkRect draws a black rectangle on a white canvas and encodes
// it as PNG. rect coordinates are in pixel space of the canvas.
func canvasWithDarkRect(t *testing.T, width, height int, rect image.Rectangle) []byte {
	t.Helper()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if image.Pt(x, y).In(rect) {
				canvas.Set(x, y, color.Black)
			} else {
				canvas.Set(x, y, color.White)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeCropsCenteredContent(t *testing.T) {
	data := canvasWithDarkRect(t, 100, 100, image.Rect(25, 25, 75, 75))
	normalizer := NewNormalizer(DefaultConfig())

	result := normalizer.Normalize(data, "photo.png")
	if !result.WasCropped {
		t.Fatalf("expected crop for 75%% background image")
	}
	if result.FileName != "photo-cropped.png" {
		t.Fatalf("unexpected cropped file name %q", result.FileName)
	}
	if result.OriginalName != "photo.png" {
		t.Fatalf("unexpected original name %q", result.OriginalName)
	}
	if result.MimeType != "image/png" {
		t.Fatalf("unexpected mime %q", result.MimeType)
	}

	cropped, _, err := image.Decode(bytes.NewReader(result.Bytes))
	if err != nil {
		t.Fatalf("decode cropped output: %v", err)
	}
	// Content pixels span x,y in [25,74]; the crop keeps [25,74).
	if cropped.Bounds().Dx() != 49 || cropped.Bounds().Dy() != 49 {
		t.Fatalf("unexpected crop size %dx%d", cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
}

func TestNormalizeSkipsMarginalReduction(t *testing.T) {
	// Content fills all but a one-pixel border: reduction ~5.9%, below 8%.
	data := canvasWithDarkRect(t, 100, 100, image.Rect(1, 1, 99, 99))
	normalizer := NewNormalizer(DefaultConfig())

	result := normalizer.Normalize(data, "scan.png")
	if result.WasCropped {
		t.Fatalf("expected no crop below the area-reduction threshold")
	}
	if !bytes.Equal(result.Bytes, data) {
		t.Fatalf("uncropped output must be byte-identical to input")
	}
	if result.FileName != "scan.png" {
		t.Fatalf("uncropped output must keep the original name, got %q", result.FileName)
	}
}

func TestNormalizeSkipsUniformlyDarkImage(t *testing.T) {
	data := canvasWithDarkRect(t, 80, 80, image.Rect(0, 0, 80, 80))
	normalizer := NewNormalizer(DefaultConfig())

	result := normalizer.Normalize(data, "dark.png")
	if result.WasCropped {
		t.Fatalf("expected no crop when content spans the full image")
	}
	if !bytes.Equal(result.Bytes, data) {
		t.Fatalf("uncropped output must be byte-identical to input")
	}
}

func TestNormalizeSkipsAllWhiteImage(t *testing.T) {
	data := canvasWithDarkRect(t, 60, 60, image.Rect(0, 0, 0, 0))
	normalizer := NewNormalizer(DefaultConfig())

	result := normalizer.Normalize(data, "blank.png")
	if result.WasCropped {
		t.Fatalf("expected no crop for an image without content pixels")
	}
}

func TestNormalizeDegradesOnUndecodableInput(t *testing.T) {
	data := []byte("definitely not an image")
	normalizer := NewNormalizer(DefaultConfig())

	result := normalizer.Normalize(data, "broken.jpg")
	if result.WasCropped {
		t.Fatalf("expected passthrough for undecodable input")
	}
	if !bytes.Equal(result.Bytes, data) {
		t.Fatalf("passthrough must return the original bytes")
	}
}

func TestDetectContentBoundsFindsDarkRegion(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 50, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 50; x++ {
			canvas.Set(x, y, color.White)
		}
	}
	for y := 10; y < 30; y++ {
		for x := 5; x < 45; x++ {
			canvas.Set(x, y, color.Black)
		}
	}

	bounds, ok := detectContentBounds(canvas, DefaultLuminanceThreshold, DefaultMaxSamplesPerAxis)
	if !ok {
		t.Fatalf("expected content bounds")
	}
	if bounds.left != 5 || bounds.right != 44 || bounds.top != 10 || bounds.bottom != 29 {
		t.Fatalf("unexpected bounds %+v", bounds)
	}
}

func TestDetectContentBoundsRejectsDegenerateBox(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			canvas.Set(x, y, color.White)
		}
	}
	// A single dark pixel yields left==right and top==bottom.
	canvas.Set(15, 15, color.Black)

	if _, ok := detectContentBounds(canvas, DefaultLuminanceThreshold, DefaultMaxSamplesPerAxis); ok {
		t.Fatalf("expected degenerate bounds to be rejected")
	}
}

func TestNormalizeClampsBadConfig(t *testing.T) {
	normalizer := NewNormalizer(Config{LuminanceThreshold: -4, MinAreaReduction: 2, MaxSamplesPerAxis: -1})
	if normalizer.cfg.LuminanceThreshold != DefaultLuminanceThreshold {
		t.Fatalf("threshold not clamped: %v", normalizer.cfg.LuminanceThreshold)
	}
	if normalizer.cfg.MinAreaReduction != DefaultMinAreaReduction {
		t.Fatalf("area reduction not clamped: %v", normalizer.cfg.MinAreaReduction)
	}
	if normalizer.cfg.MaxSamplesPerAxis != DefaultMaxSamplesPerAxis {
		t.Fatalf("samples not clamped: %v", normalizer.cfg.MaxSamplesPerAxis)
	}
}
