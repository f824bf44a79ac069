// Package metrics defines the Prometheus collectors recorded by a pipeline
// run and pushes them to a Pushgateway when the run finishes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for one pipeline run.
type Metrics struct {
	Registry *prometheus.Registry

	StageDuration    *prometheus.HistogramVec
	StageFailures    *prometheus.CounterVec
	DownloadBytes    prometheus.Counter
	ReviewsLoaded    *prometheus.CounterVec
	FilesSkipped     *prometheus.CounterVec
	VocabularySize   prometheus.Gauge
	TrainIterations  prometheus.Gauge
	Accuracy         prometheus.Gauge
	ClassPrecision   *prometheus.GaugeVec
	ClassRecall      *prometheus.GaugeVec
	ClassF1          *prometheus.GaugeVec
	PredictionsTotal *prometheus.CounterVec
	ReportSinkErrors *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry, so
// several runs in one process (tests) never collide.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentiment_stage_duration_seconds",
				Help:    "Wall time of each pipeline stage in seconds.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_stage_failures_total",
				Help: "Pipeline stages that returned an error.",
			},
			[]string{"stage"},
		),
		DownloadBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentiment_download_bytes_total",
				Help: "Bytes fetched while downloading the dataset archive.",
			},
		),
		ReviewsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_reviews_loaded_total",
				Help: "Reviews loaded by partition and label.",
			},
			[]string{"partition", "label"},
		),
		FilesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_files_skipped_total",
				Help: "Review files skipped while loading, by reason (decode, read).",
			},
			[]string{"partition", "reason"},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentiment_vocabulary_size",
				Help: "Number of terms in the fitted TF-IDF vocabulary.",
			},
		),
		TrainIterations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentiment_train_iterations",
				Help: "Optimizer major iterations used to fit the classifier.",
			},
		),
		Accuracy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentiment_test_accuracy",
				Help: "Accuracy on the held-out partition.",
			},
		),
		ClassPrecision: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_class_precision",
				Help: "Held-out precision per class.",
			},
			[]string{"label"},
		),
		ClassRecall: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_class_recall",
				Help: "Held-out recall per class.",
			},
			[]string{"label"},
		),
		ClassF1: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_class_f1",
				Help: "Held-out F1 score per class.",
			},
			[]string{"label"},
		),
		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_predictions_total",
				Help: "Predictions made by the predictor, by label.",
			},
			[]string{"label"},
		),
		ReportSinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_report_sink_errors_total",
				Help: "Failures publishing the run summary, by sink.",
			},
			[]string{"sink"},
		),
	}

	m.Registry.MustRegister(
		m.StageDuration,
		m.StageFailures,
		m.DownloadBytes,
		m.ReviewsLoaded,
		m.FilesSkipped,
		m.VocabularySize,
		m.TrainIterations,
		m.Accuracy,
		m.ClassPrecision,
		m.ClassRecall,
		m.ClassF1,
		m.PredictionsTotal,
		m.ReportSinkErrors,
	)

	return m
}

// ObserveStage records how long a stage took and whether it failed.
func (m *Metrics) ObserveStage(stage string, started time.Time, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	if err != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}
