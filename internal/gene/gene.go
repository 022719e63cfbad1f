// Package gene defines the visual primitives a chromosome is made of.
//
// Genes are value types. The set of variants is closed: a new shape kind is
// added by defining a struct, implementing Gene and registering a random
// constructor in constructors.
package gene

import (
	"errors"
	"fmt"
	"math/rand"

	"chromapaint/internal/canvas"
)

var ErrUnknownKind = errors.New("unknown gene kind")

type Kind int

const (
	KindEllipse Kind = iota
	KindTriangle
	KindLine
)

// Kinds lists every variant in declaration order.
var Kinds = []Kind{KindEllipse, KindTriangle, KindLine}

func (k Kind) String() string {
	switch k {
	case KindEllipse:
		return "ellipse"
	case KindTriangle:
		return "triangle"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownKind, name)
}

// Gene is one shape plus its paint. Mutate returns a perturbed copy and never
// touches the receiver.
type Gene interface {
	Kind() Kind
	Style() Paint
	Apply(c *canvas.Canvas)
	Mutate(rng *rand.Rand, p Params) Gene
	sealed()
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Paint is the fill shared by every variant.
type Paint struct {
	Color canvas.Color `json:"color"`
	Alpha float64      `json:"alpha"`
}

// Params bounds construction and local mutation.
type Params struct {
	Size       canvas.Size
	SigmaPos   float64
	SigmaSize  float64
	SigmaColor float64
	SigmaAlpha float64
}

const (
	MaxAlpha       = 0.99
	MinLineWidth   = 1
	MaxLineWidth   = 10
	lineWidthSigma = 1.0
	initLineWidth  = 5
)

func DefaultParams(size canvas.Size) Params {
	return Params{
		Size:       size,
		SigmaPos:   5.0,
		SigmaSize:  3.0,
		SigmaColor: 15.0,
		SigmaAlpha: 0.05,
	}
}

var constructors = map[Kind]func(rng *rand.Rand, size canvas.Size) Gene{
	KindEllipse:  func(rng *rand.Rand, size canvas.Size) Gene { return NewEllipse(rng, size) },
	KindTriangle: func(rng *rand.Rand, size canvas.Size) Gene { return NewTriangle(rng, size) },
	KindLine:     func(rng *rand.Rand, size canvas.Size) Gene { return NewLine(rng, size) },
}

// Random builds a gene of a uniformly chosen kind.
func Random(rng *rand.Rand, size canvas.Size) Gene {
	return constructors[Kinds[rng.Intn(len(Kinds))]](rng, size)
}

func RandomOfKind(rng *rand.Rand, kind Kind, size canvas.Size) (Gene, error) {
	build, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	return build(rng, size), nil
}

func randomPoint(rng *rand.Rand, size canvas.Size) Point {
	return Point{X: rng.Intn(size.Width), Y: rng.Intn(size.Height)}
}

func randomPaint(rng *rand.Rand) Paint {
	var col canvas.Color
	for i := range col {
		col[i] = float64(rng.Intn(256))
	}
	return Paint{Color: col, Alpha: rng.Float64() * MaxAlpha}
}

func (p Paint) mutate(rng *rand.Rand, params Params) Paint {
	out := p
	for i := range out.Color {
		out.Color[i] = clampFloat(out.Color[i]+rng.NormFloat64()*params.SigmaColor, 0, 255)
	}
	out.Alpha = clampFloat(out.Alpha+rng.NormFloat64()*params.SigmaAlpha, 0, MaxAlpha)
	return out
}

func (p Point) mutate(rng *rand.Rand, sigma float64, size canvas.Size) Point {
	return Point{
		X: perturbInt(rng, p.X, sigma, 0, size.Width-1),
		Y: perturbInt(rng, p.Y, sigma, 0, size.Height-1),
	}
}

func (p Point) center() (float32, float32) {
	return float32(p.X) + 0.5, float32(p.Y) + 0.5
}
