package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chromapaint/internal/evo"
	"chromapaint/internal/model"
)

func TestRecorderTracksGenerations(t *testing.T) {
	r := NewRecorder("run-1")
	ctx := context.Background()
	for gen, best := range []float64{-300, -250, -240} {
		require.NoError(t, r.OnGeneration(ctx, evo.GenerationReport{
			Generation:  gen,
			BestFitness: best,
			Diagnostics: model.GenerationDiagnostics{Generation: gen, MeanFitness: best * 2, FingerprintDiversity: 10 - gen, DurationMillis: 20},
		}))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(r.generation.WithLabelValues("run-1")))
	assert.Equal(t, -240.0, testutil.ToFloat64(r.bestFitness.WithLabelValues("run-1")))
	assert.Equal(t, -480.0, testutil.ToFloat64(r.meanFitness.WithLabelValues("run-1")))
	assert.Equal(t, 8.0, testutil.ToFloat64(r.diversity.WithLabelValues("run-1")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.generations.WithLabelValues("run-1")))

	require.NoError(t, r.OnComplete(ctx, evo.RunResult{Best: evo.Scored{Fitness: -230}}))
	assert.Equal(t, -230.0, testutil.ToFloat64(r.bestFitness.WithLabelValues("run-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.completed.WithLabelValues("run-1")))
}

func TestServeExposesMetrics(t *testing.T) {
	r := NewRecorder("run-2")
	require.NoError(t, r.OnGeneration(context.Background(), evo.GenerationReport{Generation: 4, BestFitness: -12}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := Serve(ctx, "127.0.0.1:0", r.Registry())
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `chromapaint_best_fitness{run_id="run-2"} -12`), string(body))
}
