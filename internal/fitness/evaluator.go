package fitness

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"chromapaint/internal/canvas"
	"chromapaint/internal/genotype"
)

// Weights scale the two loss terms.
type Weights struct {
	Pixel float64 `json:"pixel" toml:"pixel_weight"`
	Edge  float64 `json:"edge" toml:"edge_weight"`
}

func DefaultWeights() Weights {
	return Weights{Pixel: 1.0, Edge: 0.5}
}

// Evaluator scores a chromosome; higher is better. Implementations must be
// safe for concurrent use.
type Evaluator interface {
	Evaluate(c *genotype.Chromosome) float64
}

// PixelEdge scores a render by the negated weighted sum of the per-channel
// mean squared error and the edge-map mean squared error.
type PixelEdge struct {
	target  *Target
	weights Weights
}

func NewPixelEdge(target *Target, weights Weights) (*PixelEdge, error) {
	if target == nil {
		return nil, ErrEmptyTarget
	}
	if weights.Pixel < 0 || weights.Edge < 0 {
		return nil, fmt.Errorf("loss weights must be non-negative: pixel=%v edge=%v", weights.Pixel, weights.Edge)
	}
	return &PixelEdge{target: target, weights: weights}, nil
}

func (e *PixelEdge) Target() *Target {
	return e.target
}

func (e *PixelEdge) Evaluate(c *genotype.Chromosome) float64 {
	return e.Score(c.Render(e.target.Size))
}

// Score compares an already rendered raster against the target. The raster
// must have the target's size.
func (e *PixelEdge) Score(r *canvas.Raster) float64 {
	pix := r.Floats()
	mseRGB := meanSquaredError(pix, e.target.pix)
	mseEdge := meanSquaredError(EdgeMap(Grayscale(pix, r.Size), r.Size), e.target.edges)
	return -(e.weights.Pixel*mseRGB + e.weights.Edge*mseEdge)
}

func meanSquaredError(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	d := floats.Distance(a, b, 2)
	return d * d / float64(len(a))
}
