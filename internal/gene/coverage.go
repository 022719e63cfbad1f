package gene

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"chromapaint/internal/canvas"
)

// A pixel belongs to a rasterized shape when at least half of it is covered.
const coverageThreshold = 0x80

// coverage rasterizes the closed polygon path and returns the part of its
// bounding box that lies on the canvas together with a binary mask for it.
// The mask is nil when nothing on the canvas is covered.
func coverage(size canvas.Size, path [][2]float32) (image.Rectangle, []float64) {
	if len(path) < 3 {
		return image.Rectangle{}, nil
	}
	minX, minY := float64(path[0][0]), float64(path[0][1])
	maxX, maxY := minX, minY
	for _, p := range path[1:] {
		minX = math.Min(minX, float64(p[0]))
		minY = math.Min(minY, float64(p[1]))
		maxX = math.Max(maxX, float64(p[0]))
		maxY = math.Max(maxY, float64(p[1]))
	}
	full := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	clipped := full.Intersect(image.Rect(0, 0, size.Width, size.Height))
	if clipped.Empty() {
		return clipped, nil
	}

	r := vector.NewRasterizer(full.Dx(), full.Dy())
	ox, oy := float32(full.Min.X), float32(full.Min.Y)
	r.MoveTo(path[0][0]-ox, path[0][1]-oy)
	for _, p := range path[1:] {
		r.LineTo(p[0]-ox, p[1]-oy)
	}
	r.ClosePath()

	alpha := image.NewAlpha(image.Rect(0, 0, full.Dx(), full.Dy()))
	r.Draw(alpha, alpha.Bounds(), image.Opaque, image.Point{})

	mask := make([]float64, clipped.Dx()*clipped.Dy())
	covered := false
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		src := (y - full.Min.Y) * alpha.Stride
		dst := (y - clipped.Min.Y) * clipped.Dx()
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			if alpha.Pix[src+x-full.Min.X] >= coverageThreshold {
				mask[dst+x-clipped.Min.X] = 1
				covered = true
			}
		}
	}
	if !covered {
		return clipped, nil
	}
	return clipped, mask
}
