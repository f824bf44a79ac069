package report

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/kafka"
)

// EventRunCompleted is the type of the event published after each run.
const EventRunCompleted = "run.completed"

// RunCompletedEvent is the JSON payload published to Kafka.
type RunCompletedEvent struct {
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	Accuracy   float64   `json:"accuracy"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// KafkaPublisher announces finished runs, keyed by run ID.
type KafkaPublisher struct {
	producer EventPublisher
}

func NewKafkaPublisher(producer EventPublisher) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (k *KafkaPublisher) Name() string { return "kafka" }

func (k *KafkaPublisher) Publish(ctx context.Context, s Summary) error {
	return k.producer.Publish(ctx, kafka.Event{
		Key: s.RunID,
		Value: RunCompletedEvent{
			Type:       EventRunCompleted,
			RunID:      s.RunID,
			Accuracy:   s.Accuracy,
			FinishedAt: s.FinishedAt,
			Summary:    s,
		},
	})
}
