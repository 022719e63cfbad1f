package evo

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoRandomSource   = errors.New("random source is required")
	ErrEmptyPopulation  = errors.New("population is empty")
	ErrTournamentTooBig = errors.New("tournament size exceeds population size")
)

// Selector chooses one parent index from a scored population. Fitness is
// higher-is-better and indexes line up with the population slice.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, fitnesses []float64) (int, error)
}

// TournamentSelector samples Size distinct individuals and returns the
// fittest. Ties go to the earliest sampled.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) Select(rng *rand.Rand, fitnesses []float64) (int, error) {
	if rng == nil {
		return 0, ErrNoRandomSource
	}
	n := len(fitnesses)
	if n == 0 {
		return 0, ErrEmptyPopulation
	}
	if s.Size <= 0 {
		return 0, fmt.Errorf("tournament size must be > 0, got %d", s.Size)
	}
	if s.Size > n {
		return 0, fmt.Errorf("%w: %d > %d", ErrTournamentTooBig, s.Size, n)
	}

	// Partial Fisher-Yates: the first Size entries of order become the sample.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	best := -1
	for i := 0; i < s.Size; i++ {
		j := i + rng.Intn(n-i)
		order[i], order[j] = order[j], order[i]
		candidate := order[i]
		if best < 0 || fitnesses[candidate] > fitnesses[best] {
			best = candidate
		}
	}
	return best, nil
}

// SoftmaxSelector picks index i with probability exp(f_i) / sum_j exp(f_j).
type SoftmaxSelector struct{}

func (SoftmaxSelector) Name() string {
	return "softmax"
}

func (SoftmaxSelector) Select(rng *rand.Rand, fitnesses []float64) (int, error) {
	if rng == nil {
		return 0, ErrNoRandomSource
	}
	if len(fitnesses) == 0 {
		return 0, ErrEmptyPopulation
	}
	probs := SoftmaxProbabilities(fitnesses)
	cdf := floats.CumSum(make([]float64, len(probs)), probs)
	cdf[len(cdf)-1] = 1.0
	u := rng.Float64()
	return sort.SearchFloat64s(cdf, u), nil
}

// SoftmaxProbabilities normalises exp(f - max f) so large fitness values
// cannot overflow.
func SoftmaxProbabilities(fitnesses []float64) []float64 {
	if len(fitnesses) == 0 {
		return nil
	}
	peak := floats.Max(fitnesses)
	probs := make([]float64, len(fitnesses))
	for i, f := range fitnesses {
		probs[i] = math.Exp(f - peak)
	}
	floats.Scale(1/floats.Sum(probs), probs)
	return probs
}

// SelectParents draws two parents independently; both may be the same
// individual.
func SelectParents(rng *rand.Rand, s Selector, fitnesses []float64) (int, int, error) {
	first, err := s.Select(rng, fitnesses)
	if err != nil {
		return 0, 0, err
	}
	second, err := s.Select(rng, fitnesses)
	if err != nil {
		return 0, 0, err
	}
	return first, second, nil
}
