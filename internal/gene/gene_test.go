package gene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromapaint/internal/canvas"
)

var testSize = canvas.Size{Width: 32, Height: 24}

func requireWithinBounds(t *testing.T, g Gene, size canvas.Size) {
	t.Helper()
	inCanvas := func(p Point) {
		require.GreaterOrEqual(t, p.X, 0)
		require.Less(t, p.X, size.Width)
		require.GreaterOrEqual(t, p.Y, 0)
		require.Less(t, p.Y, size.Height)
	}
	switch v := g.(type) {
	case Ellipse:
		inCanvas(v.Center)
		require.GreaterOrEqual(t, v.RX, 1)
		require.LessOrEqual(t, v.RX, size.MaxDim())
		require.GreaterOrEqual(t, v.RY, 1)
		require.LessOrEqual(t, v.RY, size.MaxDim())
	case Triangle:
		for _, p := range v.Vertices {
			inCanvas(p)
		}
	case Line:
		inCanvas(v.From)
		inCanvas(v.To)
		require.GreaterOrEqual(t, v.Width, MinLineWidth)
		require.LessOrEqual(t, v.Width, MaxLineWidth)
	default:
		require.Failf(t, "unexpected gene type", "%T", g)
	}
	paint := g.Style()
	for _, ch := range paint.Color {
		require.GreaterOrEqual(t, ch, 0.0)
		require.LessOrEqual(t, ch, 255.0)
	}
	require.GreaterOrEqual(t, paint.Alpha, 0.0)
	require.LessOrEqual(t, paint.Alpha, MaxAlpha)
}

func TestRandomGenesStayInBoundsUnderRepeatedMutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	params := DefaultParams(testSize)
	params.SigmaPos = 40
	params.SigmaSize = 40
	params.SigmaColor = 300
	params.SigmaAlpha = 2

	for i := 0; i < 200; i++ {
		g := Random(rng, testSize)
		requireWithinBounds(t, g, testSize)
		for step := 0; step < 20; step++ {
			g = g.Mutate(rng, params)
			requireWithinBounds(t, g, testSize)
			assert.LessOrEqual(t, g.Style().Alpha, MaxAlpha)
		}
	}
}

func TestRandomCoversEveryKind(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[Kind]int{}
	for i := 0; i < 300; i++ {
		seen[Random(rng, testSize).Kind()]++
	}
	for _, k := range Kinds {
		assert.Greater(t, seen[k], 50, "kind %s underrepresented", k)
	}
}

func TestMutateLeavesReceiverUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tri := NewTriangle(rng, testSize)
	before := tri
	mutated := tri.Mutate(rng, DefaultParams(testSize))
	assert.Equal(t, before, tri)
	assert.NotEqual(t, tri, mutated)
}

func TestClampAbsorbsNonFiniteValues(t *testing.T) {
	assert.Equal(t, 0.0, clampFloat(math.NaN(), 0, 255))
	assert.Equal(t, 255.0, clampFloat(math.Inf(1), 0, 255))
	assert.Equal(t, 0.0, clampFloat(math.Inf(-1), 0, 255))

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		got := perturbInt(rng, 5, math.Inf(1), 0, 9)
		assert.Contains(t, []int{0, 9}, got)
	}
	got := perturbInt(rng, 4, math.NaN(), 2, 9)
	assert.Equal(t, 2, got)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("hexagon")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func paintedPixels(c *canvas.Canvas) int {
	n := 0
	for i := 0; i < len(c.Pix); i += 3 {
		if c.Pix[i] != 255 || c.Pix[i+1] != 255 || c.Pix[i+2] != 255 {
			n++
		}
	}
	return n
}

func TestEllipseApplyUsesAnalyticBoundary(t *testing.T) {
	c := canvas.New(testSize)
	e := Ellipse{Center: Point{X: 10, Y: 10}, RX: 3, RY: 2, Paint: Paint{Color: canvas.Color{0, 0, 0}, Alpha: 0.5}}
	e.Apply(c)

	r := c.Raster()
	assert.Equal(t, [3]uint8{127, 127, 127}, r.At(10, 10))
	assert.Equal(t, [3]uint8{127, 127, 127}, r.At(13, 10))
	assert.Equal(t, [3]uint8{255, 255, 255}, r.At(13, 11))
	assert.Equal(t, [3]uint8{255, 255, 255}, r.At(10, 13))
}

func TestApplyIsNoopForDegenerateOrOffCanvasShapes(t *testing.T) {
	paint := Paint{Color: canvas.Color{10, 20, 30}, Alpha: 0.9}
	cases := map[string]Gene{
		"ellipse off canvas":  Ellipse{Center: Point{X: -50, Y: -50}, RX: 3, RY: 3, Paint: paint},
		"ellipse zero radius": Ellipse{Center: Point{X: 5, Y: 5}, RX: 0, RY: 4, Paint: paint},
		"collinear triangle":  Triangle{Vertices: [3]Point{{1, 1}, {5, 5}, {9, 9}}, Paint: paint},
		"coincident triangle": Triangle{Vertices: [3]Point{{4, 4}, {4, 4}, {4, 4}}, Paint: paint},
		"zero length line":    Line{From: Point{3, 3}, To: Point{3, 3}, Width: 4, Paint: paint},
	}
	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			c := canvas.New(testSize)
			g.Apply(c)
			assert.Zero(t, paintedPixels(c))
		})
	}
}

func TestTriangleAndLineRasterizeInterior(t *testing.T) {
	paint := Paint{Color: canvas.Color{0, 0, 0}, Alpha: 0.99}

	c := canvas.New(testSize)
	Triangle{Vertices: [3]Point{{0, 0}, {20, 0}, {0, 20}}, Paint: paint}.Apply(c)
	r := c.Raster()
	assert.Equal(t, [3]uint8{2, 2, 2}, r.At(3, 3))
	assert.Equal(t, [3]uint8{255, 255, 255}, r.At(18, 18))

	c = canvas.New(testSize)
	Line{From: Point{2, 12}, To: Point{28, 12}, Width: 3, Paint: paint}.Apply(c)
	r = c.Raster()
	assert.Equal(t, [3]uint8{2, 2, 2}, r.At(15, 12))
	assert.Equal(t, [3]uint8{2, 2, 2}, r.At(15, 11))
	assert.Equal(t, [3]uint8{255, 255, 255}, r.At(15, 16))
}

func TestShapesPartlyOutsideCanvasAreClipped(t *testing.T) {
	c := canvas.New(testSize)
	Line{From: Point{0, 0}, To: Point{31, 0}, Width: 10, Paint: Paint{Alpha: 0.5}}.Apply(c)
	Ellipse{Center: Point{X: 31, Y: 23}, RX: 40, RY: 40, Paint: Paint{Alpha: 0.5}}.Apply(c)
	assert.Equal(t, testSize.Width*testSize.Height, paintedPixels(c))
}
