// Package pipeline runs the sentiment workflow end to end: acquire the
// archive, load both partitions, fit TF-IDF on the training text, train the
// classifier, evaluate on the held-out partition and report the run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/classifier"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/dataset/acquire"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/evaluate"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/report"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/textproc"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/vectorizer"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/tracing"
)

// Summary describes a finished run.
type Summary = report.Summary

const (
	trainPartition = "train"
	testPartition  = "test"
)

// Runner executes the pipeline. It is single use.
type Runner struct {
	cfg      *config.Config
	out      io.Writer
	metrics  *metrics.Metrics
	client   *http.Client
	sinks    []report.Sink
	prompter Prompter
}

// Option configures a Runner.
type Option func(*Runner)

// WithSinks sets where the run summary is published.
func WithSinks(sinks ...report.Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithHTTPClient sets the client used to download the archive.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithPrompter replaces the terminal prompt used in interactive mode.
func WithPrompter(p Prompter) Option {
	return func(r *Runner) { r.prompter = p }
}

// WithMetrics records into m instead of a fresh collector set.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// New creates a Runner that prints its report to out.
func New(cfg *config.Config, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		out:      out,
		prompter: SurveyPrompter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

// Metrics returns the collectors the runner records into.
func (r *Runner) Metrics() *metrics.Metrics {
	return r.metrics
}

// Run opens the sinks enabled in cfg and runs the pipeline once.
func Run(ctx context.Context, cfg *config.Config, out io.Writer) (*Summary, error) {
	m := metrics.New()
	sinks, closeSinks := OpenSinks(ctx, cfg, m)
	defer closeSinks()
	return New(cfg, out, WithSinks(sinks...), WithMetrics(m)).Run(ctx)
}

// Run executes every stage in order. Stage errors are fatal and wrapped in
// a StageError; report sink and metrics push failures are only logged.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		RunID:        uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		StageSeconds: make(map[string]float64),
	}
	ctx = logger.WithRunID(ctx, sum.RunID)
	log := logger.FromContext(ctx).With("component", "pipeline")
	log.Info("pipeline started", "work_dir", r.cfg.Dataset.WorkDir)

	ctx, trace := tracing.Start(ctx, "pipeline", sum.RunID)
	defer func() {
		trace.End(nil)
		trace.Log(ctx, log)
	}()

	var root string
	err := r.stage(ctx, sum, apperrors.StageAcquire, func(span *tracing.Span) error {
		res, err := acquire.New(r.client).Acquire(ctx, r.cfg.Dataset)
		if err != nil {
			return err
		}
		r.metrics.DownloadBytes.Add(float64(res.DownloadedBytes))
		span.SetAttr("downloaded", res.Downloaded)
		span.SetAttr("extracted", res.Extracted)
		root = res.Root
		return nil
	})
	if err != nil {
		return nil, err
	}

	var train, test *dataset.Dataset
	err = r.stage(ctx, sum, apperrors.StageLoad, func(span *tracing.Span) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		loader := dataset.NewLoader(logger.FromContext(ctx))
		train = loader.Load(filepath.Join(root, trainPartition))
		test = loader.Load(filepath.Join(root, testPartition))
		r.recordLoad(trainPartition, train)
		r.recordLoad(testPartition, test)
		span.SetAttr("train_reviews", train.Len())
		span.SetAttr("test_reviews", test.Len())
		return nil
	})
	if err != nil {
		return nil, err
	}
	sum.TrainReviews = train.Len()
	sum.TestReviews = test.Len()
	sum.SkippedFiles = train.Stats.Skipped() + test.Stats.Skipped()

	fmt.Fprintln(r.out, "\nTrain data info:")
	train.Summary(r.out, r.cfg.Pipeline.HeadRows)
	fmt.Fprintln(r.out, "\nTest data info:")
	test.Summary(r.out, r.cfg.Pipeline.HeadRows)

	analyzer, err := textproc.NewAnalyzer(r.cfg.Text)
	if err != nil {
		return nil, apperrors.InStage(apperrors.StageVectorize, err)
	}
	defer analyzer.Close()

	vec := vectorizer.New(analyzer, r.cfg.Vectorizer.MaxFeatures)
	var trainX, testX *vectorizer.Matrix
	err = r.stage(ctx, sum, apperrors.StageVectorize, func(span *tracing.Span) error {
		if train.Len() == 0 {
			return apperrors.Newf(apperrors.ErrEmptyCorpus, "no training reviews under %s", filepath.Join(root, trainPartition))
		}
		var err error
		if trainX, err = vec.FitTransform(train.Texts()); err != nil {
			return err
		}
		testX, err = vec.Transform(test.Texts())
		span.SetAttr("vocabulary_size", vec.Size())
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.VocabularySize = vec.Size()
	sum.TrainShape = shape(trainX)
	sum.TestShape = shape(testX)
	r.metrics.VocabularySize.Set(float64(vec.Size()))
	fmt.Fprintf(r.out, "\nTrain vectors shape: (%d, %d)\n", sum.TrainShape.Rows, sum.TrainShape.Cols)
	fmt.Fprintf(r.out, "Test vectors shape: (%d, %d)\n", sum.TestShape.Rows, sum.TestShape.Cols)

	var model *classifier.Model
	err = r.stage(ctx, sum, apperrors.StageTrain, func(span *tracing.Span) error {
		var err error
		model, err = classifier.Train(ctx, trainX, train.Labels(), r.cfg.Classifier)
		if err == nil {
			span.SetAttr("iterations", model.Iterations)
			span.SetAttr("status", model.Status)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Iterations = model.Iterations
	r.metrics.TrainIterations.Set(float64(model.Iterations))

	var rep *evaluate.Report
	err = r.stage(ctx, sum, apperrors.StageEvaluate, func(span *tracing.Span) error {
		var err error
		rep, err = evaluate.Evaluate(model, testX, test.Labels())
		if err == nil {
			span.SetAttr("accuracy", rep.Accuracy)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	sum.Accuracy = rep.Accuracy
	sum.Report = rep
	r.recordReport(rep)
	fmt.Fprintf(r.out, "\nAccuracy: %.4f\n", rep.Accuracy)
	fmt.Fprintf(r.out, "Classification report:\n%s", rep)

	sum.FinishedAt = time.Now().UTC()
	if len(r.sinks) > 0 {
		_, span := tracing.StartChild(ctx, string(apperrors.StageReport))
		err := report.NewFanout(r.metrics.ReportSinkErrors, r.sinks...).Publish(ctx, *sum)
		span.End(err)
		r.metrics.ObserveStage(string(apperrors.StageReport), span.Start, err)
		if err != nil {
			log.Warn("run summary not delivered to every sink", "error", err)
		}
	}

	if r.cfg.Pipeline.Interactive {
		predictor, err := classifier.NewPredictor(vec, model)
		if err != nil {
			return nil, err
		}
		if err := r.interact(ctx, predictor); err != nil {
			log.Warn("interactive prompt ended", "error", err)
		}
	}

	if r.cfg.Metrics.PushURL != "" {
		if err := r.metrics.Push(ctx, r.cfg.Metrics.PushURL, r.cfg.Metrics.Job, sum.RunID); err != nil {
			log.Warn("pushing metrics failed", "url", r.cfg.Metrics.PushURL, "error", err)
		}
	}

	log.Info("pipeline finished",
		"accuracy", sum.Accuracy,
		"duration", sum.FinishedAt.Sub(sum.StartedAt),
	)
	return sum, nil
}

// stage runs fn in a child span, records its duration and tags any error
// with name.
func (r *Runner) stage(ctx context.Context, sum *Summary, name apperrors.Stage, fn func(span *tracing.Span) error) error {
	log := logger.FromContext(ctx).With("component", "pipeline", "stage", string(name))
	log.Debug("stage started")
	_, span := tracing.StartChild(ctx, string(name))
	err := fn(span)
	span.End(err)
	r.metrics.ObserveStage(string(name), span.Start, err)
	sum.StageSeconds[string(name)] = span.Duration.Seconds()
	if err != nil {
		log.Error("stage failed", "duration", span.Duration, "error", err)
		return apperrors.InStage(name, err)
	}
	log.Info("stage finished", "duration", span.Duration)
	return nil
}

func (r *Runner) recordLoad(partition string, ds *dataset.Dataset) {
	for _, label := range dataset.Labels {
		r.metrics.ReviewsLoaded.WithLabelValues(partition, label.String()).Add(float64(ds.Stats.Loaded[label]))
	}
	r.metrics.FilesSkipped.WithLabelValues(partition, "decode").Add(float64(ds.Stats.DecodeSkipped))
	r.metrics.FilesSkipped.WithLabelValues(partition, "read").Add(float64(ds.Stats.ReadSkipped))
	if ds.Len() == 0 {
		slog.Default().Warn("partition is empty", "partition", partition)
	}
}

func (r *Runner) recordReport(rep *evaluate.Report) {
	r.metrics.Accuracy.Set(rep.Accuracy)
	for label, m := range rep.Classes {
		r.metrics.ClassPrecision.WithLabelValues(label.String()).Set(m.Precision)
		r.metrics.ClassRecall.WithLabelValues(label.String()).Set(m.Recall)
		r.metrics.ClassF1.WithLabelValues(label.String()).Set(m.F1)
	}
}

func shape(m *vectorizer.Matrix) report.Shape {
	rows, cols := m.Dims()
	return report.Shape{Rows: rows, Cols: cols}
}
