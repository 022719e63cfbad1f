package evo

import (
	"errors"
	"fmt"
	"math"

	"chromapaint/internal/canvas"
	"chromapaint/internal/gene"
	"chromapaint/internal/genotype"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the engine parameters of a run. All values are fixed for the
// lifetime of a PopulationMonitor.
type Config struct {
	Size              canvas.Size
	GeneCount         int
	PopulationSize    int
	Generations       int
	MutationRate      float64
	TournamentSize    int
	Selection         string
	Elitism           bool
	LocalMutationProb float64
	SigmaPos          float64
	SigmaSize         float64
	SigmaColor        float64
	SigmaAlpha        float64
	Workers           int
	Seed              int64
}

func DefaultConfig() Config {
	return Config{
		Size:              canvas.Size{Width: 128, Height: 128},
		GeneCount:         50,
		PopulationSize:    200,
		Generations:       1000,
		MutationRate:      0.1,
		TournamentSize:    20,
		Selection:         "tournament",
		Elitism:           true,
		LocalMutationProb: 0.8,
		SigmaPos:          5,
		SigmaSize:         3,
		SigmaColor:        15,
		SigmaAlpha:        0.05,
	}
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if c.Size.Empty() {
		return invalid("canvas size must be positive, got %dx%d", c.Size.Width, c.Size.Height)
	}
	if c.GeneCount < genotype.MinCrossoverGenes {
		return invalid("gene count must be >= %d, got %d", genotype.MinCrossoverGenes, c.GeneCount)
	}
	if c.PopulationSize <= 0 {
		return invalid("population size must be > 0")
	}
	if c.Generations <= 0 {
		return invalid("generations must be > 0")
	}
	if !isProbability(c.MutationRate) {
		return invalid("mutation rate must be in [0,1], got %v", c.MutationRate)
	}
	if !isProbability(c.LocalMutationProb) {
		return invalid("local mutation probability must be in [0,1], got %v", c.LocalMutationProb)
	}
	sigmas := []struct {
		name  string
		value float64
	}{
		{"position", c.SigmaPos},
		{"size", c.SigmaSize},
		{"color", c.SigmaColor},
		{"alpha", c.SigmaAlpha},
	}
	for _, sigma := range sigmas {
		if sigma.value < 0 || math.IsNaN(sigma.value) || math.IsInf(sigma.value, 0) {
			return invalid("%s sigma must be a finite value >= 0, got %v", sigma.name, sigma.value)
		}
	}
	if c.Workers < 0 {
		return invalid("workers must be >= 0")
	}
	if _, err := SelectorFromName(c.Selection, c.selectorOptions()); err != nil {
		return err
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

func (c Config) selectorOptions() SelectorOptions {
	return SelectorOptions{TournamentSize: c.TournamentSize, PopulationSize: c.PopulationSize}
}

// GenotypeParams derives the chromosome operator parameters.
func (c Config) GenotypeParams() genotype.Params {
	return genotype.Params{
		GeneCount:         c.GeneCount,
		LocalMutationProb: c.LocalMutationProb,
		Gene: gene.Params{
			Size:       c.Size,
			SigmaPos:   c.SigmaPos,
			SigmaSize:  c.SigmaSize,
			SigmaColor: c.SigmaColor,
			SigmaAlpha: c.SigmaAlpha,
		},
	}
}
