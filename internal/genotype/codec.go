package genotype

import (
	"errors"
	"fmt"

	"chromapaint/internal/canvas"
	"chromapaint/internal/gene"
	"chromapaint/internal/model"
)

var ErrMalformedGene = errors.New("malformed gene record")

func EncodeGene(g gene.Gene) model.GeneRecord {
	paint := g.Style()
	rec := model.GeneRecord{
		Kind:  g.Kind().String(),
		Color: paint.Color,
		Alpha: paint.Alpha,
	}
	switch v := g.(type) {
	case gene.Ellipse:
		rec.Center = &[2]int{v.Center.X, v.Center.Y}
		rec.RX, rec.RY = v.RX, v.RY
	case gene.Triangle:
		for _, p := range v.Vertices {
			rec.Vertices = append(rec.Vertices, [2]int{p.X, p.Y})
		}
	case gene.Line:
		rec.Vertices = [][2]int{{v.From.X, v.From.Y}, {v.To.X, v.To.Y}}
		rec.Width = v.Width
	}
	return rec
}

func DecodeGene(rec model.GeneRecord) (gene.Gene, error) {
	kind, err := gene.ParseKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	paint := gene.Paint{Color: canvas.Color(rec.Color), Alpha: rec.Alpha}
	point := func(p [2]int) gene.Point { return gene.Point{X: p[0], Y: p[1]} }

	switch kind {
	case gene.KindEllipse:
		if rec.Center == nil {
			return nil, fmt.Errorf("%w: ellipse without center", ErrMalformedGene)
		}
		return gene.Ellipse{Center: point(*rec.Center), RX: rec.RX, RY: rec.RY, Paint: paint}, nil
	case gene.KindTriangle:
		if len(rec.Vertices) != 3 {
			return nil, fmt.Errorf("%w: triangle with %d vertices", ErrMalformedGene, len(rec.Vertices))
		}
		var t gene.Triangle
		for i, v := range rec.Vertices {
			t.Vertices[i] = point(v)
		}
		t.Paint = paint
		return t, nil
	case gene.KindLine:
		if len(rec.Vertices) != 2 {
			return nil, fmt.Errorf("%w: line with %d endpoints", ErrMalformedGene, len(rec.Vertices))
		}
		return gene.Line{From: point(rec.Vertices[0]), To: point(rec.Vertices[1]), Width: rec.Width, Paint: paint}, nil
	}
	return nil, fmt.Errorf("%w: %s", gene.ErrUnknownKind, rec.Kind)
}

func EncodeGenes(c *Chromosome) []model.GeneRecord {
	out := make([]model.GeneRecord, 0, len(c.Genes))
	for _, g := range c.Genes {
		out = append(out, EncodeGene(g))
	}
	return out
}

func DecodeGenes(records []model.GeneRecord) (*Chromosome, error) {
	genes := make([]gene.Gene, 0, len(records))
	for i, rec := range records {
		g, err := DecodeGene(rec)
		if err != nil {
			return nil, fmt.Errorf("gene %d: %w", i, err)
		}
		genes = append(genes, g)
	}
	return &Chromosome{Genes: genes}, nil
}
