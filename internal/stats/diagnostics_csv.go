package stats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"chromapaint/internal/model"
)

var diagnosticsHeader = []string{
	"generation",
	"best_fitness",
	"mean_fitness",
	"min_fitness",
	"std_fitness",
	"fingerprint_diversity",
	"kind_counts",
	"duration_ms",
}

// WriteGenerationDiagnosticsCSV writes one row per generation. Kind counts
// are encoded as kind=count pairs joined by ';' in sorted kind order.
func WriteGenerationDiagnosticsCSV(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(diagnosticsHeader); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Generation),
			formatFloat(d.BestFitness),
			formatFloat(d.MeanFitness),
			formatFloat(d.MinFitness),
			formatFloat(d.StdFitness),
			strconv.Itoa(d.FingerprintDiversity),
			formatKindCounts(d.KindCounts),
			strconv.FormatInt(d.DurationMillis, 10),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Sync()
}

func ReadGenerationDiagnosticsCSV(path string) ([]model.GenerationDiagnostics, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(diagnosticsHeader)
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.GenerationDiagnostics{}, true, nil
		}
		return nil, false, err
	}

	var out []model.GenerationDiagnostics
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		d, err := parseDiagnosticsRow(record)
		if err != nil {
			return nil, false, err
		}
		out = append(out, d)
	}
	return out, true, nil
}

func parseDiagnosticsRow(record []string) (model.GenerationDiagnostics, error) {
	var (
		d    model.GenerationDiagnostics
		errs []error
	)
	atoi := func(s string) int {
		v, err := strconv.Atoi(s)
		errs = append(errs, err)
		return v
	}
	parse := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}
	d.Generation = atoi(record[0])
	d.BestFitness = parse(record[1])
	d.MeanFitness = parse(record[2])
	d.MinFitness = parse(record[3])
	d.StdFitness = parse(record[4])
	d.FingerprintDiversity = atoi(record[5])
	counts, err := parseKindCounts(record[6])
	errs = append(errs, err)
	d.KindCounts = counts
	duration, err := strconv.ParseInt(record[7], 10, 64)
	errs = append(errs, err)
	d.DurationMillis = duration
	if err := errors.Join(errs...); err != nil {
		return model.GenerationDiagnostics{}, fmt.Errorf("diagnostics row %q: %w", record[0], err)
	}
	return d, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatKindCounts(counts map[string]int) string {
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, kind+"="+strconv.Itoa(counts[kind]))
	}
	return strings.Join(parts, ";")
}

func parseKindCounts(raw string) (map[string]int, error) {
	if raw == "" {
		return nil, nil
	}
	counts := make(map[string]int)
	for _, part := range strings.Split(raw, ";") {
		kind, n, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed kind count %q", part)
		}
		v, err := strconv.Atoi(n)
		if err != nil {
			return nil, err
		}
		counts[kind] = v
	}
	return counts, nil
}
