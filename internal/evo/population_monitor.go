package evo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"chromapaint/internal/fitness"
	"chromapaint/internal/genotype"
	"chromapaint/internal/model"
)

type Scored struct {
	Chromosome *genotype.Chromosome
	Fitness    float64
}

// GenerationReport describes one evaluated generation. Best and Population
// are shared with the monitor and must not be modified.
type GenerationReport struct {
	Generation  int
	Best        *genotype.Chromosome
	BestFitness float64
	Population  []*genotype.Chromosome
	Fitnesses   []float64
	Diagnostics model.GenerationDiagnostics
}

// Observer receives progress from a running monitor. An error aborts the run.
type Observer interface {
	OnGeneration(ctx context.Context, report GenerationReport) error
	OnComplete(ctx context.Context, result RunResult) error
}

type RunResult struct {
	BestByGeneration      []float64
	MeanByGeneration      []float64
	GenerationDiagnostics []model.GenerationDiagnostics
	FinalPopulation       []Scored
	Best                  Scored
}

type MonitorConfig struct {
	Config
	Evaluator fitness.Evaluator
	// Selector overrides the strategy named by Config.Selection.
	Selector  Selector
	Observers []Observer
}

// PopulationMonitor runs the generational loop. All randomness comes from a
// single source seeded from Config.Seed, so equal seeds give equal runs.
type PopulationMonitor struct {
	cfg    MonitorConfig
	params genotype.Params
	rng    *rand.Rand
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", ErrInvalidConfig)
	}
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}
	if cfg.Selector == nil {
		selector, err := SelectorFromName(cfg.Selection, cfg.selectorOptions())
		if err != nil {
			return nil, err
		}
		cfg.Selector = selector
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	for i, obs := range cfg.Observers {
		if obs == nil {
			return nil, fmt.Errorf("%w: observer %d is nil", ErrInvalidConfig, i)
		}
	}

	return &PopulationMonitor{
		cfg:    cfg,
		params: cfg.GenotypeParams(),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (m *PopulationMonitor) Selector() Selector {
	return m.cfg.Selector
}

// InitialPopulation draws PopulationSize random chromosomes from the
// monitor's random source.
func (m *PopulationMonitor) InitialPopulation() []*genotype.Chromosome {
	population := make([]*genotype.Chromosome, m.cfg.PopulationSize)
	for i := range population {
		population[i] = genotype.NewRandom(m.rng, m.params)
	}
	return population
}

// Run evolves initial for Generations generations, then evaluates the final
// population once more and reports its best individual.
func (m *PopulationMonitor) Run(ctx context.Context, initial []*genotype.Chromosome) (RunResult, error) {
	if len(initial) != m.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), m.cfg.PopulationSize)
	}
	for i, c := range initial {
		if c == nil || c.Len() != m.cfg.GeneCount {
			return RunResult{}, fmt.Errorf("initial chromosome %d does not have %d genes", i, m.cfg.GeneCount)
		}
	}

	population := make([]*genotype.Chromosome, len(initial))
	copy(population, initial)

	result := RunResult{
		BestByGeneration:      make([]float64, 0, m.cfg.Generations),
		MeanByGeneration:      make([]float64, 0, m.cfg.Generations),
		GenerationDiagnostics: make([]model.GenerationDiagnostics, 0, m.cfg.Generations),
	}

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		started := time.Now()

		scores := m.evaluatePopulation(population)
		best := floats.MaxIdx(scores)

		next, err := m.nextGeneration(population, scores, best)
		if err != nil {
			return RunResult{}, fmt.Errorf("generation %d: %w", gen, err)
		}

		diag := summarizeGeneration(gen, population, scores)
		diag.DurationMillis = time.Since(started).Milliseconds()
		result.BestByGeneration = append(result.BestByGeneration, scores[best])
		result.MeanByGeneration = append(result.MeanByGeneration, diag.MeanFitness)
		result.GenerationDiagnostics = append(result.GenerationDiagnostics, diag)

		report := GenerationReport{
			Generation:  gen,
			Best:        population[best],
			BestFitness: scores[best],
			Population:  population,
			Fitnesses:   scores,
			Diagnostics: diag,
		}
		for _, obs := range m.cfg.Observers {
			if err := obs.OnGeneration(ctx, report); err != nil {
				return RunResult{}, fmt.Errorf("observer at generation %d: %w", gen, err)
			}
		}

		population = next
	}

	scores := m.evaluatePopulation(population)
	result.FinalPopulation = make([]Scored, len(population))
	for i := range population {
		result.FinalPopulation[i] = Scored{Chromosome: population[i], Fitness: scores[i]}
	}
	result.Best = result.FinalPopulation[floats.MaxIdx(scores)]

	for _, obs := range m.cfg.Observers {
		if err := obs.OnComplete(ctx, result); err != nil {
			return RunResult{}, fmt.Errorf("observer on completion: %w", err)
		}
	}
	return result, nil
}

// evaluatePopulation scores every chromosome on a bounded pool. Results are
// written by index, so the outcome does not depend on scheduling.
func (m *PopulationMonitor) evaluatePopulation(population []*genotype.Chromosome) []float64 {
	scores := make([]float64, len(population))
	p := pool.New().WithMaxGoroutines(min(m.cfg.Workers, len(population)))
	for i, c := range population {
		p.Go(func() {
			scores[i] = m.cfg.Evaluator.Evaluate(c)
		})
	}
	p.Wait()
	return scores
}

// nextGeneration builds a fresh population; current and scores are only read.
func (m *PopulationMonitor) nextGeneration(current []*genotype.Chromosome, scores []float64, best int) ([]*genotype.Chromosome, error) {
	size := m.cfg.PopulationSize
	next := make([]*genotype.Chromosome, 0, size)
	if m.cfg.Elitism {
		next = append(next, current[best].Clone())
	}

	for len(next) < size {
		i, j, err := SelectParents(m.rng, m.cfg.Selector, scores)
		if err != nil {
			return nil, err
		}
		child1, child2, err := current[i].Crossover(m.rng, current[j])
		if err != nil {
			return nil, err
		}
		if m.rng.Float64() < m.cfg.MutationRate {
			child1.Mutate(m.rng, m.params)
		}
		if m.rng.Float64() < m.cfg.MutationRate {
			child2.Mutate(m.rng, m.params)
		}

		next = append(next, child1)
		if len(next) < size {
			next = append(next, child2)
		}
	}
	return next, nil
}

func summarizeGeneration(gen int, population []*genotype.Chromosome, scores []float64) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{Generation: gen}
	if len(scores) == 0 {
		return diag
	}
	diag.BestFitness = floats.Max(scores)
	diag.MinFitness = floats.Min(scores)
	if len(scores) > 1 {
		diag.MeanFitness, diag.StdFitness = stat.MeanStdDev(scores, nil)
	} else {
		diag.MeanFitness = scores[0]
	}

	fingerprints := make(map[string]struct{}, len(population))
	diag.KindCounts = make(map[string]int)
	for _, c := range population {
		fingerprints[genotype.Fingerprint(c)] = struct{}{}
		for _, g := range c.Genes {
			diag.KindCounts[g.Kind().String()]++
		}
	}
	diag.FingerprintDiversity = len(fingerprints)
	return diag
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
