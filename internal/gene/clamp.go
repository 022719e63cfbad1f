package gene

import (
	"math"
	"math/rand"

	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat maps NaN to lo; infinities land on the nearest bound.
func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return clamp(v, lo, hi)
}

// perturbInt adds N(0, sigma) noise to v, rounds, and clamps into [lo, hi].
func perturbInt(rng *rand.Rand, v int, sigma float64, lo, hi int) int {
	f := clampFloat(float64(v)+rng.NormFloat64()*sigma, float64(lo), float64(hi))
	return clamp(int(math.Round(f)), lo, hi)
}
