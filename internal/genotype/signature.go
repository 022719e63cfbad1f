package genotype

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"chromapaint/internal/gene"
)

type CompositionSummary struct {
	TotalGenes       int            `json:"total_genes"`
	KindDistribution map[string]int `json:"kind_distribution"`
	MeanAlpha        float64        `json:"mean_alpha"`
}

type Signature struct {
	Fingerprint string             `json:"fingerprint"`
	Summary     CompositionSummary `json:"summary"`
}

// Fingerprint identifies a chromosome by the exact value of every gene in
// order. Chromosomes with equal fingerprints render identically.
func Fingerprint(c *Chromosome) string {
	var b strings.Builder
	for i, g := range c.Genes {
		if i > 0 {
			b.WriteByte('|')
		}
		writeGene(&b, g)
	}
	digest := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(digest[:])
}

func ComputeSignature(c *Chromosome) Signature {
	dist := make(map[string]int, len(gene.Kinds))
	alpha := 0.0
	for _, g := range c.Genes {
		dist[g.Kind().String()]++
		alpha += g.Style().Alpha
	}
	summary := CompositionSummary{
		TotalGenes:       len(c.Genes),
		KindDistribution: dist,
	}
	if len(c.Genes) > 0 {
		summary.MeanAlpha = alpha / float64(len(c.Genes))
	}
	return Signature{Fingerprint: Fingerprint(c), Summary: summary}
}

func writeGene(b *strings.Builder, g gene.Gene) {
	b.WriteString(g.Kind().String())
	switch v := g.(type) {
	case gene.Ellipse:
		fmt.Fprintf(b, ":%d,%d,%d,%d", v.Center.X, v.Center.Y, v.RX, v.RY)
	case gene.Triangle:
		for _, p := range v.Vertices {
			fmt.Fprintf(b, ":%d,%d", p.X, p.Y)
		}
	case gene.Line:
		fmt.Fprintf(b, ":%d,%d,%d,%d,%d", v.From.X, v.From.Y, v.To.X, v.To.Y, v.Width)
	}
	paint := g.Style()
	for _, ch := range paint.Color {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(ch, 'g', -1, 64))
	}
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(paint.Alpha, 'g', -1, 64))
}
