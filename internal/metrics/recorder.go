// Package metrics exports run progress as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"

	"chromapaint/internal/evo"
)

const namespace = "chromapaint"

// Recorder is an evo.Observer that mirrors per-generation diagnostics into
// gauges labelled by run id.
type Recorder struct {
	runID    string
	registry *prometheus.Registry

	generation  *prometheus.GaugeVec
	bestFitness *prometheus.GaugeVec
	meanFitness *prometheus.GaugeVec
	diversity   *prometheus.GaugeVec
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	completed   *prometheus.CounterVec
}

func NewRecorder(runID string) *Recorder {
	labels := []string{"run_id"}
	r := &Recorder{
		runID:    runID,
		registry: prometheus.NewRegistry(),
		generation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "generation", Help: "Index of the last evaluated generation.",
		}, labels),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "best_fitness", Help: "Best fitness of the last evaluated generation.",
		}, labels),
		meanFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "mean_fitness", Help: "Mean fitness of the last evaluated generation.",
		}, labels),
		diversity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "fingerprint_diversity", Help: "Distinct chromosomes in the last evaluated generation.",
		}, labels),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generations_total", Help: "Generations evaluated.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "generation_duration_seconds", Help: "Wall time per generation.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, labels),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_completed_total", Help: "Runs that finished every generation.",
		}, labels),
	}
	r.registry.MustRegister(r.generation, r.bestFitness, r.meanFitness, r.diversity, r.generations, r.duration, r.completed)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) OnGeneration(_ context.Context, report evo.GenerationReport) error {
	labels := prometheus.Labels{"run_id": r.runID}
	d := report.Diagnostics
	r.generation.With(labels).Set(float64(report.Generation))
	r.bestFitness.With(labels).Set(report.BestFitness)
	r.meanFitness.With(labels).Set(d.MeanFitness)
	r.diversity.With(labels).Set(float64(d.FingerprintDiversity))
	r.generations.With(labels).Inc()
	r.duration.With(labels).Observe(float64(d.DurationMillis) / 1000)
	return nil
}

func (r *Recorder) OnComplete(_ context.Context, result evo.RunResult) error {
	labels := prometheus.Labels{"run_id": r.runID}
	r.bestFitness.With(labels).Set(result.Best.Fitness)
	r.completed.With(labels).Inc()
	return nil
}

// Serve exposes the registry on addr at /metrics until ctx is done. It
// returns the bound address once listening.
func Serve(ctx context.Context, addr string, registry *prometheus.Registry) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.ErrorS(err, "Metrics server stopped", "addr", listener.Addr().String())
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	return listener.Addr().String(), nil
}
