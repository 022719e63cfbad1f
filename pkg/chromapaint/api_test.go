package chromapaint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chromapaint/internal/canvas"
	"chromapaint/internal/evo"
	"chromapaint/internal/imageio"
	"chromapaint/internal/stats"
)

func writeTarget(t *testing.T, dir string) string {
	t.Helper()
	size := canvas.Size{Width: 12, Height: 10}
	r := canvas.NewRaster(size)
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			i := (y*size.Width + x) * 3
			if x < size.Width/2 {
				r.Pix[i] = 220
			} else {
				r.Pix[i+2] = 180
			}
		}
	}
	path := filepath.Join(dir, "target.png")
	if err := imageio.SavePNG(path, r); err != nil {
		t.Fatalf("save target: %v", err)
	}
	return path
}

func smallRequest(target string, seed int64) RunRequest {
	req := DefaultRunRequest()
	req.Target = target
	req.Width = 12
	req.Height = 10
	req.Genes = 6
	req.Population = 8
	req.Generations = 5
	req.TournamentSize = 3
	req.SaveEvery = 2
	req.Seed = &seed
	req.Workers = 2
	return req
}

func newTestClient(t *testing.T, outputDir string) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", OutputDir: outputDir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return client
}

func TestClientRunWritesSnapshotsAndArtifacts(t *testing.T) {
	base := t.TempDir()
	target := writeTarget(t, base)
	outputDir := filepath.Join(base, "outputs")
	client := newTestClient(t, outputDir)

	req := smallRequest(target, 42)
	req.RunID = "run-a"
	summary, err := client.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-a" || summary.Seed != 42 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.BestByGeneration) != req.Generations {
		t.Fatalf("unexpected history length: %d", len(summary.BestByGeneration))
	}

	runDir := stats.RunDir(outputDir, "run-a")
	wantSnapshots := []string{
		filepath.Join(runDir, "gen_0000.png"),
		filepath.Join(runDir, "gen_0002.png"),
		filepath.Join(runDir, "gen_0004.png"),
		filepath.Join(runDir, "gen_0005.png"),
	}
	if diff := cmp.Diff(wantSnapshots, summary.Snapshots); diff != "" {
		t.Fatalf("unexpected snapshots (-want +got):\n%s", diff)
	}
	for _, path := range wantSnapshots {
		img, err := imageio.Load(path, canvas.Size{Width: 12, Height: 10})
		if err != nil {
			t.Fatalf("load snapshot %s: %v", path, err)
		}
		if img.Size != (canvas.Size{Width: 12, Height: 10}) {
			t.Fatalf("unexpected snapshot size: %+v", img.Size)
		}
	}
	for _, name := range []string{"config.json", "fitness_history.json", "generation_diagnostics.csv", "best_chromosome.json", "fitness.png", "fitness.html"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("expected artifact %s: %v", name, err)
		}
	}

	for i := 1; i < len(summary.BestByGeneration); i++ {
		if summary.BestByGeneration[i] < summary.BestByGeneration[i-1] {
			t.Fatalf("elitist best decreased at generation %d: %v", i, summary.BestByGeneration)
		}
	}
	if summary.FinalBestFitness < summary.BestByGeneration[len(summary.BestByGeneration)-1] {
		t.Fatalf("final best %v below last generation best %v", summary.FinalBestFitness, summary.BestByGeneration)
	}

	cfg, ok, err := stats.ReadRunConfig(outputDir, "run-a")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.Seed != 42 || cfg.PopulationSize != 8 || cfg.SaveEvery != 2 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestClientRunIsReproducibleForSeed(t *testing.T) {
	base := t.TempDir()
	target := writeTarget(t, base)
	client := newTestClient(t, filepath.Join(base, "outputs"))

	first, err := client.Run(context.Background(), smallRequest(target, 7))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	req := smallRequest(target, 7)
	req.Workers = 1
	req.FitnessCache = true
	second, err := client.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected generated run ids to differ")
	}
	if diff := cmp.Diff(first.BestByGeneration, second.BestByGeneration); diff != "" {
		t.Fatalf("seeded runs differ (-first +second):\n%s", diff)
	}
}

func TestClientRunsHistoryPlotAndRender(t *testing.T) {
	base := t.TempDir()
	target := writeTarget(t, base)
	outputDir := filepath.Join(base, "outputs")
	client := newTestClient(t, outputDir)
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2"} {
		req := smallRequest(target, 3)
		req.RunID = id
		if _, err := client.Run(ctx, req); err != nil {
			t.Fatalf("run %s: %v", id, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 1})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-2" {
		t.Fatalf("expected latest run first: %+v", runs)
	}

	history, err := client.History(ctx, HistoryRequest{Latest: true, Limit: 3})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 || history[0].Generation != 0 {
		t.Fatalf("unexpected history: %+v", history)
	}

	// A fresh client has an empty memory store and falls back to the CSV artifact.
	fresh := newTestClient(t, outputDir)
	fromDisk, err := fresh.History(ctx, HistoryRequest{RunID: "run-2"})
	if err != nil {
		t.Fatalf("history from artifacts: %v", err)
	}
	if len(fromDisk) != 5 {
		t.Fatalf("unexpected artifact history length: %d", len(fromDisk))
	}

	plotDir, err := client.Plot(ctx, PlotRequest{RunID: "run-1"})
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if _, err := os.Stat(filepath.Join(plotDir, "fitness.png")); err != nil {
		t.Fatalf("expected plot: %v", err)
	}

	out := filepath.Join(base, "best.png")
	rendered, err := client.Render(ctx, RenderRequest{Latest: true, Out: out})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if rendered != out {
		t.Fatalf("unexpected render path: %s", rendered)
	}
	final, err := imageio.Load(filepath.Join(stats.RunDir(outputDir, "run-2"), "gen_0005.png"), canvas.Size{Width: 12, Height: 10})
	if err != nil {
		t.Fatalf("load final snapshot: %v", err)
	}
	got, err := imageio.Load(out, canvas.Size{Width: 12, Height: 10})
	if err != nil {
		t.Fatalf("load render: %v", err)
	}
	if !final.Equal(got) {
		t.Fatal("rendered best chromosome differs from final snapshot")
	}

	gen := 2
	snapshotPath, err := client.Render(ctx, RenderRequest{RunID: "run-1", Generation: &gen})
	if err != nil {
		t.Fatalf("render snapshot: %v", err)
	}
	if want := filepath.Join(stats.RunDir(outputDir, "run-1"), "render_gen_0002.png"); snapshotPath != want {
		t.Fatalf("unexpected snapshot render path: got=%s want=%s", snapshotPath, want)
	}

	fromFile, err := client.Render(ctx, RenderRequest{
		ChromosomePath: filepath.Join(stats.RunDir(outputDir, "run-1"), "best_chromosome.json"),
		Out:            filepath.Join(base, "from-file.png"),
	})
	if err != nil {
		t.Fatalf("render from file: %v", err)
	}
	if _, err := os.Stat(fromFile); err != nil {
		t.Fatalf("expected render from file: %v", err)
	}
}

func TestClientRejectsInvalidRequests(t *testing.T) {
	base := t.TempDir()
	target := writeTarget(t, base)
	client := newTestClient(t, filepath.Join(base, "outputs"))
	ctx := context.Background()

	cases := map[string]func(*RunRequest){
		"missing target":  func(r *RunRequest) { r.Target = "" },
		"zero population": func(r *RunRequest) { r.Population = 0 },
		"big tournament":  func(r *RunRequest) { r.TournamentSize = 9 },
		"unknown selection": func(r *RunRequest) {
			r.Selection = "roulette"
		},
		"zero save every": func(r *RunRequest) { r.SaveEvery = 0 },
		"negative weight": func(r *RunRequest) { r.EdgeWeight = -1 },
		"too few genes":   func(r *RunRequest) { r.Genes = 2 },
	}
	for name, mutate := range cases {
		req := smallRequest(target, 1)
		mutate(&req)
		if _, err := client.Run(ctx, req); !errors.Is(err, evo.ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config, got %v", name, err)
		}
	}

	req := smallRequest(filepath.Join(base, "missing.png"), 1)
	if _, err := client.Run(ctx, req); err == nil {
		t.Fatal("expected missing target error")
	}

	if _, err := client.History(ctx, HistoryRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected run id and latest conflict")
	}
	if _, err := client.History(ctx, HistoryRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs error")
	}
	if _, err := client.Render(ctx, RenderRequest{RunID: "nope"}); err == nil {
		t.Fatal("expected missing chromosome error")
	}
}

func TestClientRunStopsOnCanceledContext(t *testing.T) {
	base := t.TempDir()
	target := writeTarget(t, base)
	client := newTestClient(t, filepath.Join(base, "outputs"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Run(ctx, smallRequest(target, 5))
	if !evo.IsCanceled(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
