package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

// Sink receives the summary of a completed run.
type Sink interface {
	Name() string
	Publish(ctx context.Context, s Summary) error
}

// Fanout publishes to every sink in order. A failing sink is logged and
// counted; the remaining sinks still run.
type Fanout struct {
	sinks    []Sink
	failures *prometheus.CounterVec
	logger   *slog.Logger
}

// NewFanout creates a Fanout. failures may be nil; when set it is
// incremented with the failing sink's name.
func NewFanout(failures *prometheus.CounterVec, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:    sinks,
		failures: failures,
		logger:   slog.Default().With("component", "report"),
	}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Publish sends s to every sink and joins their errors.
func (f *Fanout) Publish(ctx context.Context, s Summary) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, s); err != nil {
			f.logger.Error("publishing run summary failed",
				"sink", sink.Name(),
				"run_id", s.RunID,
				"error", err,
			)
			if f.failures != nil {
				f.failures.WithLabelValues(sink.Name()).Inc()
			}
			errs = append(errs, fmt.Errorf("%w: %s: %w", apperrors.ErrSinkUnavailable, sink.Name(), err))
			continue
		}
		f.logger.Info("run summary published", "sink", sink.Name(), "run_id", s.RunID)
	}
	return errors.Join(errs...)
}
