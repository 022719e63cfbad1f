package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chromapaint/internal/model"
)

func sampleSnapshot(runID string, generation int) model.ChromosomeRecord {
	return model.ChromosomeRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Generation:      generation,
		Fitness:         -120.5,
		Fingerprint:     "abc",
		Width:           8,
		Height:          6,
		Genes: []model.GeneRecord{
			{Kind: "ellipse", Center: &[2]int{3, 2}, RX: 2, RY: 1, Color: [3]float64{1, 2, 3}, Alpha: 0.4},
			{Kind: "triangle", Vertices: [][2]int{{0, 0}, {7, 0}, {3, 5}}, Color: [3]float64{9, 8, 7}, Alpha: 0.9},
		},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	runs := []model.RunRecord{
		{VersionedRecord: CurrentVersion(), ID: "run-a", Seed: 1, CreatedAtUTC: "2024-01-01T00:00:00Z"},
		{VersionedRecord: CurrentVersion(), ID: "run-b", Seed: 2, CreatedAtUTC: "2024-03-01T00:00:00Z"},
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	listed, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "run-b" || listed[1].ID != "run-a" {
		t.Fatalf("expected newest first, got %+v", listed)
	}
	run, ok, err := store.GetRun(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(runs[0], run); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
	if _, ok, err := store.GetRun(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	history := []float64{-900, -850.25, -700}
	if err := store.SaveFitnessHistory(ctx, "run-a", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	gotHistory, ok, err := store.GetFitnessHistory(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(history, gotHistory); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	diagnostics := []model.GenerationDiagnostics{{
		Generation:           0,
		BestFitness:          -700,
		MeanFitness:          -800,
		MinFitness:           -900,
		StdFitness:           12.5,
		FingerprintDiversity: 4,
		KindCounts:           map[string]int{"ellipse": 3, "line": 1},
	}}
	if err := store.SaveGenerationDiagnostics(ctx, "run-a", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	gotDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-a")
	if err != nil || !ok {
		t.Fatalf("get diagnostics: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(diagnostics, gotDiagnostics); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	for _, gen := range []int{50, 0, 100} {
		if err := store.SaveSnapshot(ctx, sampleSnapshot("run-a", gen)); err != nil {
			t.Fatalf("save snapshot: %v", err)
		}
	}
	if err := store.SaveSnapshot(ctx, sampleSnapshot("run-b", 7)); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	snapshot, ok, err := store.GetSnapshot(ctx, "run-a", 50)
	if err != nil || !ok {
		t.Fatalf("get snapshot: ok=%t err=%v", ok, err)
	}
	if diff := cmp.Diff(sampleSnapshot("run-a", 50), snapshot); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	listedSnapshots, err := store.ListSnapshots(ctx, "run-a")
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	var generations []int
	for _, s := range listedSnapshots {
		generations = append(generations, s.Generation)
	}
	if diff := cmp.Diff([]int{0, 50, 100}, generations); diff != "" {
		t.Fatalf("snapshot order mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	snapshot := sampleSnapshot("run-1", 3)
	if err := store.SaveSnapshot(ctx, snapshot); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}
	snapshot.Genes[0].Center[0] = 99

	loaded, _, err := store.GetSnapshot(ctx, "run-1", 3)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if loaded.Genes[0].Center[0] != 3 {
		t.Fatalf("stored snapshot aliased caller data: %+v", loaded.Genes[0])
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	err := NewMemoryStore().SaveRun(context.Background(), model.RunRecord{ID: "x"})
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
