package fitness

import (
	"errors"
	"fmt"
	"math"

	"chromapaint/internal/canvas"
)

var ErrEmptyTarget = errors.New("target image is empty")

// Target is the read-only comparison context for a run: the target pixels as
// floats and their edge map. Build it once before evaluation starts.
type Target struct {
	Size  canvas.Size
	pix   []float64
	edges []float64
}

func NewTarget(r *canvas.Raster) (*Target, error) {
	if r == nil || r.Size.Empty() {
		return nil, ErrEmptyTarget
	}
	if want := r.Size.Width * r.Size.Height * 3; len(r.Pix) != want {
		return nil, fmt.Errorf("target raster has %d samples, want %d", len(r.Pix), want)
	}
	pix := r.Floats()
	return &Target{
		Size:  r.Size,
		pix:   pix,
		edges: EdgeMap(Grayscale(pix, r.Size), r.Size),
	}, nil
}

// Grayscale averages the three channels of each pixel.
func Grayscale(pix []float64, size canvas.Size) []float64 {
	gray := make([]float64, size.Width*size.Height)
	for i := range gray {
		gray[i] = (pix[3*i] + pix[3*i+1] + pix[3*i+2]) / 3
	}
	return gray
}

// EdgeMap returns the gradient magnitude of gray using forward differences.
// Neighbours past the last column or row wrap to the first.
func EdgeMap(gray []float64, size canvas.Size) []float64 {
	w, h := size.Width, size.Height
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		down := ((y + 1) % h) * w
		row := y * w
		for x := 0; x < w; x++ {
			v := gray[row+x]
			dx := gray[row+(x+1)%w] - v
			dy := gray[down+x] - v
			out[row+x] = math.Sqrt(dx*dx + dy*dy)
		}
	}
	return out
}
