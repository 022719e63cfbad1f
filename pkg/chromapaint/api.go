package chromapaint

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"chromapaint/internal/canvas"
	"chromapaint/internal/evo"
	"chromapaint/internal/fitness"
	"chromapaint/internal/genotype"
	"chromapaint/internal/imageio"
	"chromapaint/internal/metrics"
	"chromapaint/internal/model"
	"chromapaint/internal/stats"
	"chromapaint/internal/storage"
)

const (
	defaultOutputDir = "outputs"
	defaultDBPath    = "chromapaint.db"

	// Fixed width so timestamps sort lexically in the run index.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type Options struct {
	StoreKind string
	DBPath    string
	OutputDir string
}

type Client struct {
	store     storage.Store
	outputDir string
}

// RunRequest is the full configuration of one evolution run.
type RunRequest struct {
	RunID             string
	Target            string
	Width             int
	Height            int
	Genes             int
	Population        int
	Generations       int
	MutationRate      float64
	TournamentSize    int
	Selection         string
	Elitism           bool
	SaveEvery         int
	PixelWeight       float64
	EdgeWeight        float64
	LocalMutationProb float64
	SigmaPos          float64
	SigmaSize         float64
	SigmaColor        float64
	SigmaAlpha        float64
	// Seed is drawn from the clock when nil.
	Seed         *int64
	Workers      int
	FitnessCache bool
	MetricsAddr  string
}

// DefaultRunRequest returns the stock configuration without a target.
func DefaultRunRequest() RunRequest {
	engine := evo.DefaultConfig()
	weights := fitness.DefaultWeights()
	return RunRequest{
		Width:             engine.Size.Width,
		Height:            engine.Size.Height,
		Genes:             engine.GeneCount,
		Population:        engine.PopulationSize,
		Generations:       engine.Generations,
		MutationRate:      engine.MutationRate,
		TournamentSize:    engine.TournamentSize,
		Selection:         engine.Selection,
		Elitism:           engine.Elitism,
		SaveEvery:         50,
		PixelWeight:       weights.Pixel,
		EdgeWeight:        weights.Edge,
		LocalMutationProb: engine.LocalMutationProb,
		SigmaPos:          engine.SigmaPos,
		SigmaSize:         engine.SigmaSize,
		SigmaColor:        engine.SigmaColor,
		SigmaAlpha:        engine.SigmaAlpha,
	}
}

func (r RunRequest) size() canvas.Size {
	return canvas.Size{Width: r.Width, Height: r.Height}
}

func (r RunRequest) engineConfig(seed int64) evo.Config {
	return evo.Config{
		Size:              r.size(),
		GeneCount:         r.Genes,
		PopulationSize:    r.Population,
		Generations:       r.Generations,
		MutationRate:      r.MutationRate,
		TournamentSize:    r.TournamentSize,
		Selection:         r.Selection,
		Elitism:           r.Elitism,
		LocalMutationProb: r.LocalMutationProb,
		SigmaPos:          r.SigmaPos,
		SigmaSize:         r.SigmaSize,
		SigmaColor:        r.SigmaColor,
		SigmaAlpha:        r.SigmaAlpha,
		Workers:           r.Workers,
		Seed:              seed,
	}
}

// Validate checks everything that can be checked before the target is read.
func (r RunRequest) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("%w: target image is required", evo.ErrInvalidConfig)
	}
	if r.SaveEvery <= 0 {
		return fmt.Errorf("%w: save every must be > 0", evo.ErrInvalidConfig)
	}
	if r.PixelWeight < 0 || r.EdgeWeight < 0 {
		return fmt.Errorf("%w: loss weights must be >= 0", evo.ErrInvalidConfig)
	}
	return r.engineConfig(0).Validate()
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Seed             int64
	BestByGeneration []float64
	FinalBestFitness float64
	Snapshots        []string
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Target           string
	Seed             int64
	Population       int
	Generations      int
	Genes            int
	Selection        string
	FinalBestFitness float64
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type PlotRequest struct {
	RunID  string
	Latest bool
}

type RenderRequest struct {
	RunID  string
	Latest bool
	// Generation selects a stored snapshot; nil renders the final best.
	Generation *int
	// ChromosomePath renders a chromosome JSON file instead of a run.
	ChromosomePath string
	Out            string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, outputDir: outputDir}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) OutputDir() string {
	return c.outputDir
}

// Run evolves a population toward the target image, saving periodic
// snapshots of the best individual and the run artifacts.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := req.Validate(); err != nil {
		return RunSummary{}, err
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	size := req.size()

	targetRaster, err := imageio.Load(req.Target, size)
	if err != nil {
		return RunSummary{}, fmt.Errorf("load target: %w", err)
	}
	target, err := fitness.NewTarget(targetRaster)
	if err != nil {
		return RunSummary{}, fmt.Errorf("build target %s: %w", req.Target, err)
	}
	pixelEdge, err := fitness.NewPixelEdge(target, fitness.Weights{Pixel: req.PixelWeight, Edge: req.EdgeWeight})
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: %v", evo.ErrInvalidConfig, err)
	}
	var evaluator fitness.Evaluator = pixelEdge
	if req.FitnessCache {
		evaluator = fitness.NewCachedEvaluator(pixelEdge, 0)
	}

	runDir := stats.RunDir(c.outputDir, runID)
	snapshots := &snapshotObserver{
		client:      c,
		runID:       runID,
		dir:         runDir,
		size:        size,
		saveEvery:   req.SaveEvery,
		generations: req.Generations,
	}
	observers := []evo.Observer{&logObserver{runID: runID}, snapshots}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if req.MetricsAddr != "" {
		recorder := metrics.NewRecorder(runID)
		addr, err := metrics.Serve(runCtx, req.MetricsAddr, recorder.Registry())
		if err != nil {
			return RunSummary{}, fmt.Errorf("start metrics endpoint: %w", err)
		}
		klog.InfoS("Serving metrics", "addr", addr)
		observers = append(observers, recorder)
	}

	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Config:    req.engineConfig(seed),
		Evaluator: evaluator,
		Observers: observers,
	})
	if err != nil {
		return RunSummary{}, err
	}

	created := time.Now().UTC()
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              runID,
		Target:          req.Target,
		Seed:            seed,
		PopulationSize:  req.Population,
		Generations:     req.Generations,
		GeneCount:       req.Genes,
		Selection:       monitor.Selector().Name(),
		CreatedAtUTC:    created.Format(timestampLayout),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	klog.InfoS("Starting run",
		"run", runID,
		"seed", seed,
		"target", req.Target,
		"size", imageio.FormatSize(size),
		"population", humanize.Comma(int64(req.Population)),
		"evaluations", humanize.Comma(int64(req.Population)*int64(req.Generations+1)),
		"selection", run.Selection,
	)

	result, err := monitor.Run(runCtx, monitor.InitialPopulation())
	if err != nil {
		return RunSummary{}, err
	}

	run.CompletedAtUTC = time.Now().UTC().Format(timestampLayout)
	run.FinalBestFitness = result.Best.Fitness
	if err := c.persistRun(ctx, run, result); err != nil {
		return RunSummary{}, err
	}

	history := stats.FitnessHistory{
		BestByGeneration: result.BestByGeneration,
		MeanByGeneration: result.MeanByGeneration,
		FinalBestFitness: result.Best.Fitness,
	}
	artifactsDir, err := stats.WriteRunArtifacts(c.outputDir, stats.RunArtifacts{
		Config:                runConfig(runID, seed, req),
		History:               history,
		GenerationDiagnostics: result.GenerationDiagnostics,
		BestChromosome:        chromosomeRecord(runID, req.Generations, result.Best, size),
	})
	if err != nil {
		return RunSummary{}, fmt.Errorf("write artifacts: %w", err)
	}
	if err := stats.AppendRunIndex(c.outputDir, stats.RunIndexEntry{
		RunID:            runID,
		Target:           req.Target,
		PopulationSize:   req.Population,
		Generations:      req.Generations,
		Genes:            req.Genes,
		Selection:        run.Selection,
		Seed:             seed,
		FinalBestFitness: result.Best.Fitness,
		CreatedAtUTC:     run.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, fmt.Errorf("update run index: %w", err)
	}

	klog.InfoS("Finished run",
		"run", runID,
		"finalBest", result.Best.Fitness,
		"elapsed", time.Since(created).Round(time.Millisecond).String(),
		"artifacts", artifactsDir,
	)
	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     artifactsDir,
		Seed:             seed,
		BestByGeneration: result.BestByGeneration,
		FinalBestFitness: result.Best.Fitness,
		Snapshots:        snapshots.paths,
	}, nil
}

func (c *Client) persistRun(ctx context.Context, run model.RunRecord, result evo.RunResult) error {
	if err := c.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, run.ID, result.BestByGeneration); err != nil {
		return fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, run.ID, result.GenerationDiagnostics); err != nil {
		return fmt.Errorf("save diagnostics: %w", err)
	}
	return nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.outputDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Target:           e.Target,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			Genes:            e.Genes,
			Selection:        e.Selection,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

// History returns per-generation diagnostics of a run, from the store when
// it has them and from the run artifacts otherwise.
func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.outputDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

// Plot regenerates the fitness plots of a run and returns its directory.
func (c *Client) Plot(_ context.Context, req PlotRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return "", err
	}
	history, ok, err := stats.ReadFitnessHistory(c.outputDir, runID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	runDir := stats.RunDir(c.outputDir, runID)
	if err := stats.WritePlots(runDir, history); err != nil {
		return "", err
	}
	return runDir, nil
}

// Render paints a stored chromosome to a PNG and returns the written path.
func (c *Client) Render(ctx context.Context, req RenderRequest) (string, error) {
	record, err := c.loadChromosomeRecord(ctx, req)
	if err != nil {
		return "", err
	}
	chromosome, err := genotype.DecodeGenes(record.Genes)
	if err != nil {
		return "", err
	}
	size := canvas.Size{Width: record.Width, Height: record.Height}
	if size.Empty() {
		return "", fmt.Errorf("%w: chromosome record has size %dx%d", imageio.ErrInvalidSize, record.Width, record.Height)
	}

	out := req.Out
	if out == "" {
		out = fmt.Sprintf("render_gen_%04d.png", record.Generation)
		if record.RunID != "" {
			out = filepath.Join(stats.RunDir(c.outputDir, record.RunID), out)
		}
	}
	if err := imageio.SavePNG(out, chromosome.Render(size)); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) loadChromosomeRecord(ctx context.Context, req RenderRequest) (model.ChromosomeRecord, error) {
	if req.ChromosomePath != "" {
		if req.RunID != "" || req.Latest {
			return model.ChromosomeRecord{}, errors.New("use either a chromosome file or a run")
		}
		return readChromosomeFile(req.ChromosomePath)
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return model.ChromosomeRecord{}, err
	}
	if req.Generation != nil {
		record, ok, err := c.store.GetSnapshot(ctx, runID, *req.Generation)
		if err != nil {
			return model.ChromosomeRecord{}, err
		}
		if !ok {
			return model.ChromosomeRecord{}, fmt.Errorf("snapshot not found: run=%s generation=%d", runID, *req.Generation)
		}
		return record, nil
	}
	record, ok, err := stats.ReadBestChromosome(c.outputDir, runID)
	if err != nil {
		return model.ChromosomeRecord{}, err
	}
	if !ok {
		return model.ChromosomeRecord{}, fmt.Errorf("best chromosome not found for run id: %s", runID)
	}
	return record, nil
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if !latest {
		if runID == "" {
			return "", errors.New("run id or latest is required")
		}
		return runID, nil
	}
	entries, err := stats.ListRunIndex(c.outputDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}
