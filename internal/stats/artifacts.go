package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chromapaint/internal/model"
)

const (
	runIndexFile       = "run_index.json"
	configFile         = "config.json"
	fitnessHistoryFile = "fitness_history.json"
	diagnosticsFile    = "generation_diagnostics.csv"
	bestChromosomeFile = "best_chromosome.json"
	fitnessPlotFile    = "fitness.png"
	fitnessChartFile   = "fitness.html"
)

// RunConfig is the resolved configuration of a run as written to config.json.
type RunConfig struct {
	RunID             string  `json:"run_id"`
	Target            string  `json:"target"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Genes             int     `json:"genes"`
	PopulationSize    int     `json:"population_size"`
	Generations       int     `json:"generations"`
	MutationRate      float64 `json:"mutation_rate"`
	TournamentSize    int     `json:"tournament_size"`
	Selection         string  `json:"selection"`
	Elitism           bool    `json:"elitism"`
	SaveEvery         int     `json:"save_every"`
	PixelWeight       float64 `json:"pixel_weight"`
	EdgeWeight        float64 `json:"edge_weight"`
	LocalMutationProb float64 `json:"local_mutation_prob"`
	SigmaPos          float64 `json:"sigma_pos"`
	SigmaSize         float64 `json:"sigma_size"`
	SigmaColor        float64 `json:"sigma_color"`
	SigmaAlpha        float64 `json:"sigma_alpha"`
	Seed              int64   `json:"seed"`
	Workers           int     `json:"workers"`
	FitnessCache      bool    `json:"fitness_cache"`
}

type FitnessHistory struct {
	BestByGeneration []float64 `json:"best_by_generation"`
	MeanByGeneration []float64 `json:"mean_by_generation"`
	FinalBestFitness float64   `json:"final_best_fitness"`
}

type RunArtifacts struct {
	Config                RunConfig
	History               FitnessHistory
	GenerationDiagnostics []model.GenerationDiagnostics
	BestChromosome        model.ChromosomeRecord
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Target           string  `json:"target"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Genes            int     `json:"genes"`
	Selection        string  `json:"selection"`
	Seed             int64   `json:"seed"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// WriteRunArtifacts writes every per-run file into baseDir/<run id> and
// returns that directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if !validRunID(artifacts.Config.RunID) {
		return "", fmt.Errorf("invalid run id %q", artifacts.Config.RunID)
	}

	runDir := RunDir(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), artifacts.History); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, bestChromosomeFile), artifacts.BestChromosome); err != nil {
		return "", err
	}
	if err := WriteGenerationDiagnosticsCSV(filepath.Join(runDir, diagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := WritePlots(runDir, artifacts.History); err != nil {
		return "", err
	}
	return runDir, nil
}

// WritePlots renders the fitness curves of a run as PNG and HTML.
func WritePlots(runDir string, history FitnessHistory) error {
	if err := WriteFitnessPlot(filepath.Join(runDir, fitnessPlotFile), history); err != nil {
		return fmt.Errorf("fitness plot: %w", err)
	}
	if err := WriteFitnessChart(filepath.Join(runDir, fitnessChartFile), history); err != nil {
		return fmt.Errorf("fitness chart: %w", err)
	}
	return nil
}

func RunDir(baseDir, runID string) string {
	return filepath.Join(baseDir, runID)
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if !validRunID(entry.RunID) {
		return fmt.Errorf("invalid run id %q", entry.RunID)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// readRunIndex returns entries in append order.
func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRunIndex returns the run index newest first; later appends win ties.
// A missing index is empty.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(RunDir(baseDir, runID), configFile), &cfg)
	return cfg, ok, err
}

func ReadFitnessHistory(baseDir, runID string) (FitnessHistory, bool, error) {
	var history FitnessHistory
	ok, err := readJSON(filepath.Join(RunDir(baseDir, runID), fitnessHistoryFile), &history)
	return history, ok, err
}

func ReadBestChromosome(baseDir, runID string) (model.ChromosomeRecord, bool, error) {
	var record model.ChromosomeRecord
	ok, err := readJSON(filepath.Join(RunDir(baseDir, runID), bestChromosomeFile), &record)
	return record, ok, err
}

func ReadGenerationDiagnostics(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	return ReadGenerationDiagnosticsCSV(filepath.Join(RunDir(baseDir, runID), diagnosticsFile))
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, into any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func validRunID(runID string) bool {
	return strings.TrimSpace(runID) != "" && !strings.ContainsAny(runID, `/\`)
}
