package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	paintapi "chromapaint/pkg/chromapaint"
)

// runConfig is the TOML form of a run. Keys missing from the file keep
// their defaults.
type runConfig struct {
	Target            string  `toml:"target"`
	RunID             string  `toml:"run_id"`
	Width             int     `toml:"width"`
	Height            int     `toml:"height"`
	Genes             int     `toml:"genes"`
	Population        int     `toml:"population"`
	Generations       int     `toml:"generations"`
	MutationRate      float64 `toml:"mutation_rate"`
	TournamentSize    int     `toml:"tournament_size"`
	Selection         string  `toml:"selection"`
	Elitism           bool    `toml:"elitism"`
	SaveEvery         int     `toml:"save_every"`
	OutputDir         string  `toml:"output_dir"`
	PixelWeight       float64 `toml:"pixel_weight"`
	EdgeWeight        float64 `toml:"edge_weight"`
	LocalMutationProb float64 `toml:"local_mutation_prob"`
	SigmaPos          float64 `toml:"sigma_pos"`
	SigmaSize         float64 `toml:"sigma_size"`
	SigmaColor        float64 `toml:"sigma_color"`
	SigmaAlpha        float64 `toml:"sigma_alpha"`
	Seed              *int64  `toml:"seed"`
	Workers           int     `toml:"workers"`
	FitnessCache      bool    `toml:"fitness_cache"`
	Store             string  `toml:"store"`
	DBPath            string  `toml:"db_path"`
	MetricsAddr       string  `toml:"metrics_addr"`
}

func defaultRunConfig() runConfig {
	req := paintapi.DefaultRunRequest()
	return runConfig{
		Width:             req.Width,
		Height:            req.Height,
		Genes:             req.Genes,
		Population:        req.Population,
		Generations:       req.Generations,
		MutationRate:      req.MutationRate,
		TournamentSize:    req.TournamentSize,
		Selection:         req.Selection,
		Elitism:           req.Elitism,
		SaveEvery:         req.SaveEvery,
		OutputDir:         defaultOutputDir,
		PixelWeight:       req.PixelWeight,
		EdgeWeight:        req.EdgeWeight,
		LocalMutationProb: req.LocalMutationProb,
		SigmaPos:          req.SigmaPos,
		SigmaSize:         req.SigmaSize,
		SigmaColor:        req.SigmaColor,
		SigmaAlpha:        req.SigmaAlpha,
		Store:             defaultStoreKind,
		DBPath:            defaultDBPath,
	}
}

// loadRunConfig reads a TOML file over the defaults. Unknown keys are errors.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return runConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return runConfig{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// bindRunFlags registers the run flags on fs, writing into cfg.
func bindRunFlags(fs *pflag.FlagSet, cfg *runConfig) *int64 {
	fs.StringVar(&cfg.Target, "target", cfg.Target, "target image path")
	fs.StringVar(&cfg.RunID, "run-id", cfg.RunID, "run id (generated when empty)")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "canvas width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "canvas height")
	fs.IntVar(&cfg.Genes, "genes", cfg.Genes, "genes per chromosome")
	fs.IntVar(&cfg.Population, "population", cfg.Population, "population size")
	fs.IntVar(&cfg.Generations, "generations", cfg.Generations, "number of generations")
	fs.Float64Var(&cfg.MutationRate, "mutation-rate", cfg.MutationRate, "per-child mutation probability")
	fs.IntVar(&cfg.TournamentSize, "tournament-size", cfg.TournamentSize, "tournament sample size")
	fs.StringVar(&cfg.Selection, "selection", cfg.Selection, "selection strategy: tournament|softmax")
	fs.BoolVar(&cfg.Elitism, "elitism", cfg.Elitism, "carry the best individual over unchanged")
	fs.IntVar(&cfg.SaveEvery, "save-every", cfg.SaveEvery, "snapshot interval in generations")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for snapshots and run artifacts")
	fs.Float64Var(&cfg.PixelWeight, "pixel-weight", cfg.PixelWeight, "weight of the pixel error term")
	fs.Float64Var(&cfg.EdgeWeight, "edge-weight", cfg.EdgeWeight, "weight of the edge error term")
	fs.Float64Var(&cfg.LocalMutationProb, "local-mutation-prob", cfg.LocalMutationProb, "probability of a local perturbation instead of a reset")
	fs.Float64Var(&cfg.SigmaPos, "sigma-pos", cfg.SigmaPos, "position perturbation sigma")
	fs.Float64Var(&cfg.SigmaSize, "sigma-size", cfg.SigmaSize, "size perturbation sigma")
	fs.Float64Var(&cfg.SigmaColor, "sigma-color", cfg.SigmaColor, "color perturbation sigma")
	fs.Float64Var(&cfg.SigmaAlpha, "sigma-alpha", cfg.SigmaAlpha, "alpha perturbation sigma")
	seed := fs.Int64("seed", 0, "random seed (time based when unset)")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "evaluation workers (0 uses GOMAXPROCS)")
	fs.BoolVar(&cfg.FitnessCache, "fitness-cache", cfg.FitnessCache, "memoise fitness by chromosome fingerprint")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "store backend: memory|sqlite")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve prometheus metrics on this address")
	return seed
}

// mergeRunConfig lays the flags the user set explicitly over base.
func mergeRunConfig(base runConfig, fs *pflag.FlagSet, flags runConfig, seed int64) runConfig {
	merged := base
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "target":
			merged.Target = flags.Target
		case "run-id":
			merged.RunID = flags.RunID
		case "width":
			merged.Width = flags.Width
		case "height":
			merged.Height = flags.Height
		case "genes":
			merged.Genes = flags.Genes
		case "population":
			merged.Population = flags.Population
		case "generations":
			merged.Generations = flags.Generations
		case "mutation-rate":
			merged.MutationRate = flags.MutationRate
		case "tournament-size":
			merged.TournamentSize = flags.TournamentSize
		case "selection":
			merged.Selection = flags.Selection
		case "elitism":
			merged.Elitism = flags.Elitism
		case "save-every":
			merged.SaveEvery = flags.SaveEvery
		case "output-dir":
			merged.OutputDir = flags.OutputDir
		case "pixel-weight":
			merged.PixelWeight = flags.PixelWeight
		case "edge-weight":
			merged.EdgeWeight = flags.EdgeWeight
		case "local-mutation-prob":
			merged.LocalMutationProb = flags.LocalMutationProb
		case "sigma-pos":
			merged.SigmaPos = flags.SigmaPos
		case "sigma-size":
			merged.SigmaSize = flags.SigmaSize
		case "sigma-color":
			merged.SigmaColor = flags.SigmaColor
		case "sigma-alpha":
			merged.SigmaAlpha = flags.SigmaAlpha
		case "seed":
			merged.Seed = &seed
		case "workers":
			merged.Workers = flags.Workers
		case "fitness-cache":
			merged.FitnessCache = flags.FitnessCache
		case "store":
			merged.Store = flags.Store
		case "db-path":
			merged.DBPath = flags.DBPath
		case "metrics-addr":
			merged.MetricsAddr = flags.MetricsAddr
		}
	})
	return merged
}

func (c runConfig) runRequest() paintapi.RunRequest {
	return paintapi.RunRequest{
		RunID:             c.RunID,
		Target:            c.Target,
		Width:             c.Width,
		Height:            c.Height,
		Genes:             c.Genes,
		Population:        c.Population,
		Generations:       c.Generations,
		MutationRate:      c.MutationRate,
		TournamentSize:    c.TournamentSize,
		Selection:         c.Selection,
		Elitism:           c.Elitism,
		SaveEvery:         c.SaveEvery,
		PixelWeight:       c.PixelWeight,
		EdgeWeight:        c.EdgeWeight,
		LocalMutationProb: c.LocalMutationProb,
		SigmaPos:          c.SigmaPos,
		SigmaSize:         c.SigmaSize,
		SigmaColor:        c.SigmaColor,
		SigmaAlpha:        c.SigmaAlpha,
		Seed:              c.Seed,
		Workers:           c.Workers,
		FitnessCache:      c.FitnessCache,
		MetricsAddr:       c.MetricsAddr,
	}
}
