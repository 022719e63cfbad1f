package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"chromapaint/internal/imageio"
	paintapi "chromapaint/pkg/chromapaint"
)

const (
	defaultOutputDir = "outputs"
	defaultStoreKind = "memory"
	defaultDBPath    = "chromapaint.db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "prepare":
		return runPrepare(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "plot":
		return runPlot(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// newFlagSet builds a subcommand flag set carrying the klog flags.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	klogFlags := flag.NewFlagSet(name, flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	fs.AddGoFlagSet(klogFlags)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError(err.Error())
	}
	if fs.NArg() > 0 {
		return usageError(fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := newFlagSet("run")
	configPath := fs.String("config", "", "TOML run configuration; explicit flags override it")
	flags := defaultRunConfig()
	seed := bindRunFlags(fs, &flags)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	base := defaultRunConfig()
	if *configPath != "" {
		loaded, err := loadRunConfig(*configPath)
		if err != nil {
			return err
		}
		base = loaded
	}
	cfg := mergeRunConfig(base, fs, flags, *seed)
	if cfg.Target == "" {
		return usageError("run requires --target or a config file with target")
	}

	client, err := paintapi.New(paintapi.Options{
		StoreKind: cfg.Store,
		DBPath:    cfg.DBPath,
		OutputDir: cfg.OutputDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, cfg.runRequest())
	if err != nil {
		return err
	}
	fmt.Printf("run_id=%s seed=%d generations=%s final_best=%.6f artifacts=%s\n",
		summary.RunID,
		summary.Seed,
		humanize.Comma(int64(len(summary.BestByGeneration))),
		summary.FinalBestFitness,
		summary.ArtifactsDir,
	)
	for _, path := range summary.Snapshots {
		fmt.Printf("snapshot=%s\n", path)
	}
	return nil
}

func runPrepare(_ context.Context, args []string) error {
	fs := newFlagSet("prepare")
	rawDir := fs.String("raw-dir", "data/raw", "directory of source images")
	targetDir := fs.String("target-dir", "data/targets", "directory for resized targets")
	sizesFlag := fs.String("sizes", "64x64,128x128", "comma-separated WxH sizes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	sizes, err := imageio.ParseSizes(*sizesFlag)
	if err != nil {
		return usageError(err.Error())
	}

	written, err := imageio.Prepare(*rawDir, *targetDir, sizes)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Println(path)
	}
	klog.InfoS("Prepared targets", "images", humanize.Comma(int64(len(written))), "dir", *targetDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := newFlagSet("runs")
	limit := fs.Int("limit", 20, "max runs to list")
	outputDir := fs.String("output-dir", defaultOutputDir, "run artifacts directory")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := paintapi.New(paintapi.Options{OutputDir: *outputDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, paintapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s created_at=%s target=%s seed=%d population=%d generations=%d genes=%d selection=%s final_best=%.6f\n",
			r.RunID,
			r.CreatedAtUTC,
			r.Target,
			r.Seed,
			r.Population,
			r.Generations,
			r.Genes,
			r.Selection,
			r.FinalBestFitness,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := newFlagSet("history")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from the run index")
	limit := fs.Int("limit", 50, "max generations to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	client, err := newReadClient(ctx, fs, args)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if *runID != "" && *latest {
		return usageError("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return usageError("history requires --run-id or --latest")
	}

	history, err := client.History(ctx, paintapi.HistoryRequest{RunID: *runID, Latest: *latest, Limit: max(*limit, 0)})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(history)
	}
	for _, d := range history {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f std=%.6f fingerprints=%d duration_ms=%d\n",
			d.Generation,
			d.BestFitness,
			d.MeanFitness,
			d.MinFitness,
			d.StdFitness,
			d.FingerprintDiversity,
			d.DurationMillis,
		)
	}
	return nil
}

func runPlot(ctx context.Context, args []string) error {
	fs := newFlagSet("plot")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "plot the most recent run from the run index")
	outputDir := fs.String("output-dir", defaultOutputDir, "run artifacts directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	client, err := paintapi.New(paintapi.Options{OutputDir: *outputDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	dir, err := client.Plot(ctx, paintapi.PlotRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	fmt.Printf("plots=%s\n", dir)
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := newFlagSet("render")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "render from the most recent run")
	generation := fs.Int("generation", 0, "render the stored snapshot of this generation")
	chromosome := fs.String("chromosome", "", "render a chromosome JSON file")
	out := fs.String("out", "", "output PNG path")
	client, err := newReadClient(ctx, fs, args)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := paintapi.RenderRequest{
		RunID:          *runID,
		Latest:         *latest,
		ChromosomePath: *chromosome,
		Out:            *out,
	}
	if fs.Changed("generation") {
		req.Generation = generation
	}
	path, err := client.Render(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("rendered=%s\n", path)
	return nil
}

// newReadClient adds the store flags, parses args and opens the client.
func newReadClient(ctx context.Context, fs *pflag.FlagSet, args []string) (*paintapi.Client, error) {
	outputDir := fs.String("output-dir", defaultOutputDir, "run artifacts directory")
	storeKind := fs.String("store", defaultStoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}

	client, err := paintapi.New(paintapi.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
		OutputDir: *outputDir,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func writeJSON(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("usage: %s\nchromapaintctl <run|prepare|runs|history|plot|render> [flags]", msg)
}
