package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends every collector to the Pushgateway at url under job, grouped by
// run ID.
func (m *Metrics) Push(ctx context.Context, url, job, runID string) error {
	pusher := push.New(url, job).
		Gatherer(m.Registry).
		Grouping("run_id", runID)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	slog.Info("metrics pushed", "url", url, "job", job)
	return nil
}
