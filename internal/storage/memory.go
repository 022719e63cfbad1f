package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"chromapaint/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

type snapshotKey struct {
	runID      string
	generation int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	history     map[string][]float64
	diagnostics map[string][]model.GenerationDiagnostics
	snapshots   map[snapshotKey]model.ChromosomeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.GenerationDiagnostics)
	s.snapshots = make(map[snapshotKey]model.ChromosomeRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRunsNewestFirst(runs)
	return runs, nil
}

func sortRunsNewestFirst(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveGenerationDiagnostics(_ context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.diagnostics[runID] = copyDiagnostics(diagnostics)
	return nil
}

func (s *MemoryStore) GetGenerationDiagnostics(_ context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	return copyDiagnostics(diagnostics), true, nil
}

func copyDiagnostics(in []model.GenerationDiagnostics) []model.GenerationDiagnostics {
	out := make([]model.GenerationDiagnostics, len(in))
	for i, d := range in {
		out[i] = d
		if d.KindCounts != nil {
			out[i].KindCounts = make(map[string]int, len(d.KindCounts))
			for k, v := range d.KindCounts {
				out[i].KindCounts[k] = v
			}
		}
	}
	return out
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, snapshot model.ChromosomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.snapshots[snapshotKey{snapshot.RunID, snapshot.Generation}] = copyChromosome(snapshot)
	return nil
}

func (s *MemoryStore) GetSnapshot(_ context.Context, runID string, generation int) (model.ChromosomeRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[snapshotKey{runID, generation}]
	if !ok {
		return model.ChromosomeRecord{}, false, nil
	}
	return copyChromosome(snapshot), true, nil
}

func (s *MemoryStore) ListSnapshots(_ context.Context, runID string) ([]model.ChromosomeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.ChromosomeRecord
	for key, snapshot := range s.snapshots {
		if key.runID == runID {
			out = append(out, copyChromosome(snapshot))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}

func copyChromosome(in model.ChromosomeRecord) model.ChromosomeRecord {
	out := in
	out.Genes = make([]model.GeneRecord, len(in.Genes))
	for i, g := range in.Genes {
		out.Genes[i] = g
		if g.Center != nil {
			center := *g.Center
			out.Genes[i].Center = &center
		}
		out.Genes[i].Vertices = append([][2]int(nil), g.Vertices...)
	}
	return out
}
