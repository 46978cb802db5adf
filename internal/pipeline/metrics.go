package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "factorynet_"

// Episode outcome labels for the episodes counter.
const (
	outcomeProcessed  = "processed"
	outcomeNormalized = "normalized"
	outcomePassed     = "passed"
	outcomeFailed     = "failed"
	outcomeDropped    = "dropped"
	outcomeSaved      = "saved"
	outcomeErrored    = "errored"
)

// Metrics records run counters on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	episodes     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	qaPairs      *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	runDuration  *prometheus.GaugeVec
	passRate     *prometheus.GaugeVec
	qualityScore *prometheus.GaugeVec
}

// NewMetrics registers the pipeline collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		episodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "episodes_total",
				Help: "Episodes by dataset and pipeline outcome",
			},
			[]string{"dataset", "outcome"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "episode_errors_total",
				Help: "Per-episode failures by dataset, stage, and error kind",
			},
			[]string{"dataset", "stage", "kind"},
		),
		qaPairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "qa_pairs_total",
				Help: "Generated Q&A pairs by dataset",
			},
			[]string{"dataset"},
		),
		stageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "stage_latency_seconds",
				Help:    "Per-episode stage latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"stage"},
		),
		runDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "run_duration_seconds",
				Help: "Wall-clock duration of the last run per dataset",
			},
			[]string{"dataset"},
		),
		passRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "pass_rate_percent",
				Help: "Validation pass rate of the last run per dataset",
			},
			[]string{"dataset"},
		),
		qualityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "avg_quality_score",
				Help: "Average episode quality score of the last run per dataset",
			},
			[]string{"dataset"},
		),
	}
	m.registry.MustRegister(m.episodes, m.errors, m.qaPairs, m.stageLatency, m.runDuration, m.passRate, m.qualityScore)
	return m
}

// Registry exposes the underlying registry for scraping or inspection.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes the current values in the node-exporter textfile
// format, creating the parent directory if needed.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) episode(dataset, outcome string) {
	if m == nil {
		return
	}
	m.episodes.WithLabelValues(dataset, outcome).Inc()
}

func (m *Metrics) failure(dataset, stage, kind string) {
	if m == nil {
		return
	}
	m.episodes.WithLabelValues(dataset, outcomeErrored).Inc()
	m.errors.WithLabelValues(dataset, stage, kind).Inc()
}

func (m *Metrics) qa(dataset string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.qaPairs.WithLabelValues(dataset).Add(float64(n))
}

func (m *Metrics) observeStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) runFinished(stats Stats) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(stats.DatasetName).Set(stats.Duration().Seconds())
	m.passRate.WithLabelValues(stats.DatasetName).Set(stats.PassRate())
	m.qualityScore.WithLabelValues(stats.DatasetName).Set(stats.AvgQualityScore)
}
