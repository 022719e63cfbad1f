package chromapaint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"chromapaint/internal/canvas"
	"chromapaint/internal/evo"
	"chromapaint/internal/genotype"
	"chromapaint/internal/imageio"
	"chromapaint/internal/model"
	"chromapaint/internal/stats"
	"chromapaint/internal/storage"
)

// snapshotObserver writes the best individual of every save_every-th
// generation, the last generation and the final population.
type snapshotObserver struct {
	client      *Client
	runID       string
	dir         string
	size        canvas.Size
	saveEvery   int
	generations int
	paths       []string
}

func (o *snapshotObserver) OnGeneration(ctx context.Context, report evo.GenerationReport) error {
	gen := report.Generation
	if gen%o.saveEvery != 0 && gen != o.generations-1 {
		return nil
	}
	return o.save(ctx, gen, evo.Scored{Chromosome: report.Best, Fitness: report.BestFitness})
}

func (o *snapshotObserver) OnComplete(ctx context.Context, result evo.RunResult) error {
	return o.save(ctx, o.generations, result.Best)
}

func (o *snapshotObserver) save(ctx context.Context, gen int, best evo.Scored) error {
	path := filepath.Join(o.dir, snapshotName(gen))
	if err := saveRender(path, best.Chromosome, o.size); err != nil {
		return err
	}
	o.paths = append(o.paths, path)
	klog.V(1).InfoS("Saved snapshot", "run", o.runID, "generation", gen, "path", path)
	return o.client.store.SaveSnapshot(ctx, chromosomeRecord(o.runID, gen, best, o.size))
}

func snapshotName(gen int) string {
	return fmt.Sprintf("gen_%04d.png", gen)
}

func saveRender(path string, c *genotype.Chromosome, size canvas.Size) error {
	return imageio.SavePNG(path, c.Render(size))
}

type logObserver struct {
	runID string
}

func (o *logObserver) OnGeneration(_ context.Context, report evo.GenerationReport) error {
	d := report.Diagnostics
	klog.InfoS("Generation evaluated",
		"run", o.runID,
		"generation", d.Generation,
		"best", d.BestFitness,
		"mean", d.MeanFitness,
		"min", d.MinFitness,
		"diversity", d.FingerprintDiversity,
		"durationMs", d.DurationMillis,
	)
	return nil
}

func (o *logObserver) OnComplete(_ context.Context, result evo.RunResult) error {
	klog.V(1).InfoS("Final population evaluated", "run", o.runID, "best", result.Best.Fitness, "individuals", len(result.FinalPopulation))
	return nil
}

func chromosomeRecord(runID string, gen int, scored evo.Scored, size canvas.Size) model.ChromosomeRecord {
	return model.ChromosomeRecord{
		VersionedRecord: storage.CurrentVersion(),
		RunID:           runID,
		Generation:      gen,
		Fitness:         scored.Fitness,
		Fingerprint:     genotype.Fingerprint(scored.Chromosome),
		Width:           size.Width,
		Height:          size.Height,
		Genes:           genotype.EncodeGenes(scored.Chromosome),
	}
}

func readChromosomeFile(path string) (model.ChromosomeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ChromosomeRecord{}, fmt.Errorf("read chromosome %s: %w", path, err)
	}
	record, err := storage.DecodeChromosome(data)
	if err != nil {
		return model.ChromosomeRecord{}, fmt.Errorf("decode chromosome %s: %w", path, err)
	}
	return record, nil
}

func runConfig(runID string, seed int64, req RunRequest) stats.RunConfig {
	return stats.RunConfig{
		RunID:             runID,
		Target:            req.Target,
		Width:             req.Width,
		Height:            req.Height,
		Genes:             req.Genes,
		PopulationSize:    req.Population,
		Generations:       req.Generations,
		MutationRate:      req.MutationRate,
		TournamentSize:    req.TournamentSize,
		Selection:         req.Selection,
		Elitism:           req.Elitism,
		SaveEvery:         req.SaveEvery,
		PixelWeight:       req.PixelWeight,
		EdgeWeight:        req.EdgeWeight,
		LocalMutationProb: req.LocalMutationProb,
		SigmaPos:          req.SigmaPos,
		SigmaSize:         req.SigmaSize,
		SigmaColor:        req.SigmaColor,
		SigmaAlpha:        req.SigmaAlpha,
		Seed:              seed,
		Workers:           req.Workers,
		FitnessCache:      req.FitnessCache,
	}
}
