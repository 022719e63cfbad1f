package genotype

import (
	"errors"
	"fmt"
	"math/rand"

	"chromapaint/internal/canvas"
	"chromapaint/internal/gene"
)

var (
	ErrLengthMismatch = errors.New("chromosome length mismatch")
	ErrTooShort       = errors.New("chromosome too short for crossover")
)

// MinCrossoverGenes is the smallest length for which a split in [1, N-2]
// exists.
const MinCrossoverGenes = 3

type Params struct {
	GeneCount         int
	LocalMutationProb float64
	Gene              gene.Params
}

// Chromosome is an ordered list of genes painted first to last.
type Chromosome struct {
	Genes []gene.Gene
}

// New wraps a copy of genes.
func New(genes []gene.Gene) *Chromosome {
	return &Chromosome{Genes: append([]gene.Gene(nil), genes...)}
}

// NewRandom draws GeneCount genes, each of a uniformly random kind.
func NewRandom(rng *rand.Rand, p Params) *Chromosome {
	genes := make([]gene.Gene, p.GeneCount)
	for i := range genes {
		genes[i] = gene.Random(rng, p.Gene.Size)
	}
	return &Chromosome{Genes: genes}
}

func (c *Chromosome) Len() int {
	return len(c.Genes)
}

// Clone returns an independent copy. Gene variants are plain values, so
// copying the slice copies every gene.
func (c *Chromosome) Clone() *Chromosome {
	return New(c.Genes)
}

// Mutate changes exactly one gene and returns its index. With probability
// LocalMutationProb the gene is perturbed in place; otherwise it is replaced
// by a fresh gene of a random kind.
func (c *Chromosome) Mutate(rng *rand.Rand, p Params) int {
	if len(c.Genes) == 0 {
		return -1
	}
	idx := rng.Intn(len(c.Genes))
	if rng.Float64() < p.LocalMutationProb {
		c.Genes[idx] = c.Genes[idx].Mutate(rng, p.Gene)
	} else {
		c.Genes[idx] = gene.Random(rng, p.Gene.Size)
	}
	return idx
}

// Crossover performs single-point crossover at a split drawn uniformly from
// [1, N-2]. Neither parent is modified.
func (c *Chromosome) Crossover(rng *rand.Rand, other *Chromosome) (*Chromosome, *Chromosome, error) {
	if len(c.Genes) != len(other.Genes) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(c.Genes), len(other.Genes))
	}
	if len(c.Genes) < MinCrossoverGenes {
		return nil, nil, fmt.Errorf("%w: %d genes", ErrTooShort, len(c.Genes))
	}
	split := 1 + rng.Intn(len(c.Genes)-2)
	child1, child2 := c.CrossoverAt(other, split)
	return child1, child2, nil
}

// CrossoverAt builds self[:split]+other[split:] and other[:split]+self[split:].
func (c *Chromosome) CrossoverAt(other *Chromosome, split int) (*Chromosome, *Chromosome) {
	n := len(c.Genes)
	child1 := make([]gene.Gene, 0, n)
	child1 = append(child1, c.Genes[:split]...)
	child1 = append(child1, other.Genes[split:]...)

	child2 := make([]gene.Gene, 0, n)
	child2 = append(child2, other.Genes[:split]...)
	child2 = append(child2, c.Genes[split:]...)
	return &Chromosome{Genes: child1}, &Chromosome{Genes: child2}
}

// Render paints every gene in order onto a white canvas of the given size.
func (c *Chromosome) Render(size canvas.Size) *canvas.Raster {
	cv := canvas.New(size)
	for _, g := range c.Genes {
		g.Apply(cv)
	}
	return cv.Raster()
}
