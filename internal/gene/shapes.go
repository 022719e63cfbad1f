package gene

import (
	"math"
	"math/rand"

	"chromapaint/internal/canvas"
)

// Ellipse is an axis-aligned ellipse given by center and radii.
type Ellipse struct {
	Center Point `json:"center"`
	RX     int   `json:"rx"`
	RY     int   `json:"ry"`
	Paint
}

func NewEllipse(rng *rand.Rand, size canvas.Size) Ellipse {
	maxRadius := size.MaxDim() / 4
	if maxRadius < 1 {
		maxRadius = 1
	}
	return Ellipse{
		Center: randomPoint(rng, size),
		RX:     1 + rng.Intn(maxRadius),
		RY:     1 + rng.Intn(maxRadius),
		Paint:  randomPaint(rng),
	}
}

func (Ellipse) Kind() Kind     { return KindEllipse }
func (e Ellipse) Style() Paint { return e.Paint }
func (Ellipse) sealed()        {}

func (e Ellipse) Apply(c *canvas.Canvas) {
	if e.RX <= 0 || e.RY <= 0 {
		return
	}
	x0 := max(0, e.Center.X-e.RX)
	x1 := min(c.Width-1, e.Center.X+e.RX)
	y0 := max(0, e.Center.Y-e.RY)
	y1 := min(c.Height-1, e.Center.Y+e.RY)
	if x0 > x1 || y0 > y1 {
		return
	}
	rx, ry := float64(e.RX), float64(e.RY)
	for y := y0; y <= y1; y++ {
		dy := float64(y-e.Center.Y) / ry
		for x := x0; x <= x1; x++ {
			dx := float64(x-e.Center.X) / rx
			if dx*dx+dy*dy <= 1 {
				c.Blend(x, y, e.Color, e.Alpha)
			}
		}
	}
}

func (e Ellipse) Mutate(rng *rand.Rand, p Params) Gene {
	out := e
	out.Center = e.Center.mutate(rng, p.SigmaPos, p.Size)
	maxRadius := max(1, p.Size.MaxDim())
	out.RX = perturbInt(rng, e.RX, p.SigmaSize, 1, maxRadius)
	out.RY = perturbInt(rng, e.RY, p.SigmaSize, 1, maxRadius)
	out.Paint = e.Paint.mutate(rng, p)
	return out
}

// Triangle is a filled triangle; vertex order does not matter.
type Triangle struct {
	Vertices [3]Point `json:"vertices"`
	Paint
}

func NewTriangle(rng *rand.Rand, size canvas.Size) Triangle {
	var t Triangle
	for i := range t.Vertices {
		t.Vertices[i] = randomPoint(rng, size)
	}
	t.Paint = randomPaint(rng)
	return t
}

func (Triangle) Kind() Kind     { return KindTriangle }
func (t Triangle) Style() Paint { return t.Paint }
func (Triangle) sealed()        {}

func (t Triangle) Apply(c *canvas.Canvas) {
	path := make([][2]float32, 0, len(t.Vertices))
	for _, v := range t.Vertices {
		x, y := v.center()
		path = append(path, [2]float32{x, y})
	}
	rect, mask := coverage(c.Size, path)
	if mask == nil {
		return
	}
	c.BlendMask(rect, mask, t.Color, t.Alpha)
}

func (t Triangle) Mutate(rng *rand.Rand, p Params) Gene {
	out := t
	for i, v := range t.Vertices {
		out.Vertices[i] = v.mutate(rng, p.SigmaPos, p.Size)
	}
	out.Paint = t.Paint.mutate(rng, p)
	return out
}

// Line is a straight stroke of integer width.
type Line struct {
	From  Point `json:"from"`
	To    Point `json:"to"`
	Width int   `json:"width"`
	Paint
}

func NewLine(rng *rand.Rand, size canvas.Size) Line {
	return Line{
		From:  randomPoint(rng, size),
		To:    randomPoint(rng, size),
		Width: MinLineWidth + rng.Intn(initLineWidth),
		Paint: randomPaint(rng),
	}
}

func (Line) Kind() Kind     { return KindLine }
func (l Line) Style() Paint { return l.Paint }
func (Line) sealed()        {}

// Apply strokes the segment as a quad of the line's width. A zero-length
// segment covers no area and paints nothing.
func (l Line) Apply(c *canvas.Canvas) {
	x0, y0 := l.From.center()
	x1, y1 := l.To.center()
	dx, dy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(dx, dy)
	if length == 0 || l.Width <= 0 {
		return
	}
	half := float64(l.Width) / 2
	nx := float32(-dy / length * half)
	ny := float32(dx / length * half)
	rect, mask := coverage(c.Size, [][2]float32{
		{x0 + nx, y0 + ny},
		{x1 + nx, y1 + ny},
		{x1 - nx, y1 - ny},
		{x0 - nx, y0 - ny},
	})
	if mask == nil {
		return
	}
	c.BlendMask(rect, mask, l.Color, l.Alpha)
}

func (l Line) Mutate(rng *rand.Rand, p Params) Gene {
	out := l
	out.From = l.From.mutate(rng, p.SigmaPos, p.Size)
	out.To = l.To.mutate(rng, p.SigmaPos, p.Size)
	out.Width = perturbInt(rng, l.Width, lineWidthSigma, MinLineWidth, MaxLineWidth)
	out.Paint = l.Paint.mutate(rng, p)
	return out
}
