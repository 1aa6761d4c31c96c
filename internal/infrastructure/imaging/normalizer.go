// Package imaging crops photographed clippings to their content region
// before text extraction. A photographed page usually carries desk, hand or
// shadow around the article; trimming that margin improves OCR accuracy.
// Already well-framed scans must pass through untouched.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

const (
	// DefaultLuminanceThreshold separates near-white background from ink,
	// photos and text. Empirical; overridable via config.
	DefaultLuminanceThreshold = 238.0

	// DefaultMinAreaReduction is the smallest background share worth
	// cropping away. Below it the risk of clipping edge text outweighs
	// the OCR gain.
	DefaultMinAreaReduction = 0.08

	// DefaultMaxSamplesPerAxis bounds the decimated luminance scan.
	DefaultMaxSamplesPerAxis = 1000

	jpegQuality = 95
)

type Config struct {
	LuminanceThreshold float64
	MinAreaReduction   float64
	MaxSamplesPerAxis  int
}

func DefaultConfig() Config {
	return Config{
		LuminanceThreshold: DefaultLuminanceThreshold,
		MinAreaReduction:   DefaultMinAreaReduction,
		MaxSamplesPerAxis:  DefaultMaxSamplesPerAxis,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()
	if out.LuminanceThreshold <= 0 || out.LuminanceThreshold > 255 {
		out.LuminanceThreshold = def.LuminanceThreshold
	}
	if out.MinAreaReduction <= 0 || out.MinAreaReduction >= 1 {
		out.MinAreaReduction = def.MinAreaReduction
	}
	if out.MaxSamplesPerAxis <= 0 {
		out.MaxSamplesPerAxis = def.MaxSamplesPerAxis
	}
	return out
}

type Normalizer struct {
	cfg Config
}

func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg.normalize()}
}

// Normalize detects the content bounding box of a clipping photo and crops
// to it when the crop removes at least MinAreaReduction of the area.
// It is pure and deterministic given the pixel data, and it never fails:
// any decode or encode problem degrades to the original bytes uncropped.
func (n *Normalizer) Normalize(data []byte, fileName string) domain.NormalizedImage {
	passthrough := domain.NormalizedImage{
		Bytes:        data,
		MimeType:     sniffImageMime(data),
		FileName:     fileName,
		OriginalName: fileName,
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("autocrop_decode_failed", "file", fileName, "error", err)
		return passthrough
	}
	passthrough.MimeType = "image/" + format

	bounds, ok := detectContentBounds(img, n.cfg.LuminanceThreshold, n.cfg.MaxSamplesPerAxis)
	if !ok {
		return passthrough
	}

	rect := img.Bounds()
	originalArea := rect.Dx() * rect.Dy()
	croppedArea := bounds.width() * bounds.height()
	if originalArea <= 0 {
		return passthrough
	}
	areaReduction := 1 - float64(croppedArea)/float64(originalArea)
	if areaReduction < n.cfg.MinAreaReduction {
		return passthrough
	}

	cropped := imaging.Crop(img, image.Rect(
		rect.Min.X+bounds.left,
		rect.Min.Y+bounds.top,
		rect.Min.X+bounds.right,
		rect.Min.Y+bounds.bottom,
	))

	encoded, err := encodeImage(cropped, format)
	if err != nil {
		slog.Warn("autocrop_encode_failed", "file", fileName, "format", format, "error", err)
		return passthrough
	}

	return domain.NormalizedImage{
		Bytes:        encoded,
		MimeType:     "image/" + format,
		FileName:     croppedFileName(fileName, format),
		OriginalName: fileName,
		WasCropped:   true,
	}
}

func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return nil, err
		}
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported encode format %q", format)
	}
	return buf.Bytes(), nil
}

func croppedFileName(fileName, format string) string {
	ext := extensionForFormat(format)
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if base == "" {
		base = "clipping"
	}
	return base + "-cropped." + ext
}

func extensionForFormat(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

func sniffImageMime(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
