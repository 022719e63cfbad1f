package storage

import (
	"context"

	"chromapaint/internal/model"
)

// Store persists run records, per-generation statistics and snapshot
// chromosomes.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
	SaveSnapshot(ctx context.Context, snapshot model.ChromosomeRecord) error
	GetSnapshot(ctx context.Context, runID string, generation int) (model.ChromosomeRecord, bool, error)
	// ListSnapshots returns a run's snapshots by ascending generation.
	ListSnapshots(ctx context.Context, runID string) ([]model.ChromosomeRecord, error)
}
