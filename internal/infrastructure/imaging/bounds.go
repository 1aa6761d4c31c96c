package imaging

import "image"

// contentBounds is the pixel bounding box of the detected content region.
// right and bottom are inclusive sample coordinates.
type contentBounds struct {
	top    int
	bottom int
	left   int
	right  int
}

func (b contentBounds) width() int  { return b.right - b.left }
func (b contentBounds) height() int { return b.bottom - b.top }

// detectContentBounds scans a decimated grid of the image and returns the
// bounding box of all pixels darker than the luminance threshold. The stride
// is chosen so at most maxSamples positions per axis are visited, which keeps
// cost bounded on multi-megapixel photos. Returns false when no content
// pixel exists or the box is degenerate.
func detectContentBounds(img image.Image, threshold float64, maxSamples int) (contentBounds, bool) {
	rect := img.Bounds()
	width := rect.Dx()
	height := rect.Dy()
	if width <= 0 || height <= 0 {
		return contentBounds{}, false
	}
	if maxSamples <= 0 {
		maxSamples = 1000
	}

	stepX := width / maxSamples
	if stepX < 1 {
		stepX = 1
	}
	stepY := height / maxSamples
	if stepY < 1 {
		stepY = 1
	}

	bounds := contentBounds{top: height, bottom: 0, left: width, right: 0}
	found := false

	for y := 0; y < height; y += stepY {
		for x := 0; x < width; x += stepX {
			r, g, b, _ := img.At(rect.Min.X+x, rect.Min.Y+y).RGBA()
			luminance := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			if luminance >= threshold {
				continue
			}
			found = true
			if x < bounds.left {
				bounds.left = x
			}
			if x > bounds.right {
				bounds.right = x
			}
			if y < bounds.top {
				bounds.top = y
			}
			if y > bounds.bottom {
				bounds.bottom = y
			}
		}
	}

	if !found || bounds.left >= bounds.right || bounds.top >= bounds.bottom {
		return contentBounds{}, false
	}
	return bounds, true
}
