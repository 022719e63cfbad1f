package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanvasIsWhite(t *testing.T) {
	c := New(Size{Width: 4, Height: 3})
	r := c.Raster()
	require.Equal(t, Size{Width: 4, Height: 3}, r.Size)
	require.Len(t, r.Pix, 4*3*3)
	for _, v := range r.Pix {
		assert.Equal(t, uint8(255), v)
	}
}

func TestBlendComposesWithoutIntermediateRounding(t *testing.T) {
	c := New(Size{Width: 1, Height: 1})
	for i := 0; i < 3; i++ {
		c.Blend(0, 0, Color{0, 100, 200}, 0.3)
	}
	// 255*0.7^3 = 87.465 stays fractional until quantized.
	assert.InDelta(t, 87.465, c.Pix[0], 1e-9)
	assert.Equal(t, uint8(87), c.Raster().Pix[0])
}

func TestBlendIgnoresOutOfRangeAndZeroWeight(t *testing.T) {
	c := New(Size{Width: 2, Height: 2})
	c.Blend(-1, 0, Color{}, 1)
	c.Blend(0, 2, Color{}, 1)
	c.Blend(1, 1, Color{}, 0)
	assert.True(t, c.Raster().Equal(Fill(Size{Width: 2, Height: 2}, [3]uint8{255, 255, 255})))
}

func TestRasterClampsOutOfRangeChannels(t *testing.T) {
	c := New(Size{Width: 1, Height: 1})
	c.Pix[0], c.Pix[1], c.Pix[2] = -12, 300, 254.9
	assert.Equal(t, [3]uint8{0, 255, 254}, c.Raster().At(0, 0))
}

func TestImageRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 2, 5, 4))
	src.Set(2, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(4, 3, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	r := FromImage(src)
	require.Equal(t, Size{Width: 3, Height: 2}, r.Size)
	assert.Equal(t, [3]uint8{10, 20, 30}, r.At(0, 0))
	assert.Equal(t, [3]uint8{200, 100, 50}, r.At(2, 1))

	back := FromImage(r.Image())
	assert.True(t, back.Equal(r))
}

func TestFromImageKeepsStraightColorOfTranslucentPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 80, B: 120, A: 0})

	r := FromImage(src)
	assert.Equal(t, [3]uint8{200, 100, 50}, r.At(0, 0))
	assert.Equal(t, [3]uint8{40, 80, 120}, r.At(1, 0))
}
