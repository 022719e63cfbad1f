package canvas

import (
	"image"
	"image/color"
	"math"
)

// Size is the pixel extent of a canvas.
type Size struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// MaxDim returns the larger of the two dimensions.
func (s Size) MaxDim() int {
	if s.Width > s.Height {
		return s.Width
	}
	return s.Height
}

func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Color is an RGB triple; channels are kept in [0,255] but need not be integral.
type Color [3]float64

// Canvas is a floating-point RGB buffer. Pixels are stored row-major, three
// channels per pixel. Quantization happens only in Raster.
type Canvas struct {
	Size
	Pix []float64
}

// New returns a canvas filled with solid white.
func New(size Size) *Canvas {
	pix := make([]float64, size.Width*size.Height*3)
	for i := range pix {
		pix[i] = 255
	}
	return &Canvas{Size: size, Pix: pix}
}

// Blend composites color over pixel (x, y) with weight alpha*mask, i.e.
// result = (1 - w)*existing + w*color. Out of range pixels are ignored.
func (c *Canvas) Blend(x, y int, col Color, weight float64) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height || weight <= 0 {
		return
	}
	off := (y*c.Width + x) * 3
	keep := 1 - weight
	c.Pix[off] = keep*c.Pix[off] + weight*col[0]
	c.Pix[off+1] = keep*c.Pix[off+1] + weight*col[1]
	c.Pix[off+2] = keep*c.Pix[off+2] + weight*col[2]
}

// BlendMask composites color through a coverage mask anchored at origin.
// The mask holds one value in [0,1] per pixel of rect.
func (c *Canvas) BlendMask(rect image.Rectangle, mask []float64, col Color, alpha float64) {
	w := rect.Dx()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := (y - rect.Min.Y) * w
		for x := rect.Min.X; x < rect.Max.X; x++ {
			m := mask[row+x-rect.Min.X]
			if m == 0 {
				continue
			}
			c.Blend(x, y, col, alpha*m)
		}
	}
}

// Raster clamps every channel into [0,255] and truncates to 8 bits.
func (c *Canvas) Raster() *Raster {
	out := NewRaster(c.Size)
	for i, v := range c.Pix {
		out.Pix[i] = quantize(v)
	}
	return out
}

func quantize(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// Raster is an immutable-by-convention 8-bit RGB image.
type Raster struct {
	Size
	Pix []uint8
}

func NewRaster(size Size) *Raster {
	return &Raster{Size: size, Pix: make([]uint8, size.Width*size.Height*3)}
}

// Fill returns a raster of a single color.
func Fill(size Size, rgb [3]uint8) *Raster {
	out := NewRaster(size)
	for i := 0; i < len(out.Pix); i += 3 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = rgb[0], rgb[1], rgb[2]
	}
	return out
}

func (r *Raster) At(x, y int) [3]uint8 {
	off := (y*r.Width + x) * 3
	return [3]uint8{r.Pix[off], r.Pix[off+1], r.Pix[off+2]}
}

// Floats widens the raster into a new float64 slice with the same layout.
func (r *Raster) Floats() []float64 {
	out := make([]float64, len(r.Pix))
	for i, v := range r.Pix {
		out[i] = float64(v)
	}
	return out
}

func (r *Raster) Equal(other *Raster) bool {
	if r.Size != other.Size || len(r.Pix) != len(other.Pix) {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Image converts the raster into an opaque *image.RGBA.
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			px := r.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: px[0], G: px[1], B: px[2], A: 0xff})
		}
	}
	return img
}

// FromImage copies the straight (non-premultiplied) RGB channels of img;
// alpha is discarded.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	out := NewRaster(Size{Width: b.Dx(), Height: b.Dy()})
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := (y*out.Width + x) * 3
			out.Pix[off] = px.R
			out.Pix[off+1] = px.G
			out.Pix[off+2] = px.B
		}
	}
	return out
}
