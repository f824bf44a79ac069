package pipeline

import (
	"context"
	"errors"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/report"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/redis"
)

// OpenSinks connects to every report backend enabled in cfg. A backend
// that cannot be reached is logged, counted and left out; it never stops
// the run. The returned func closes whatever was opened.
func OpenSinks(ctx context.Context, cfg *config.Config, m *metrics.Metrics) ([]report.Sink, func()) {
	log := logger.WithComponent("report")
	var (
		sinks   []report.Sink
		closers []func() error
	)
	unavailable := func(name string, err error) {
		log.Warn("report sink disabled", "sink", name, "error", err)
		m.ReportSinkErrors.WithLabelValues(name).Inc()
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err == nil {
			store := report.NewPostgresStore(db)
			if err = store.EnsureSchema(ctx); err == nil {
				sinks = append(sinks, store)
				closers = append(closers, db.Close)
			} else {
				db.Close()
			}
		}
		if err != nil {
			unavailable("postgres", err)
		}
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			unavailable("kafka", errors.New("no brokers configured"))
		} else {
			producer := kafka.NewProducer(cfg.Kafka)
			sinks = append(sinks, report.NewKafkaPublisher(producer))
			closers = append(closers, producer.Close)
		}
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			unavailable("redis", err)
		} else {
			sinks = append(sinks, report.NewRedisRecorder(client, cfg.Redis.RunTTL))
			closers = append(closers, client.Close)
		}
	}

	return sinks, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("closing report sink", "error", err)
			}
		}
	}
}
