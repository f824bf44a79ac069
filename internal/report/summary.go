// Package report delivers the summary of a finished pipeline run to
// optional backends: PostgreSQL run history, a Kafka event and a Redis
// latest-run record.
package report

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/evaluate"
)

// Shape is a (rows, columns) pair.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Summary describes one completed pipeline run.
type Summary struct {
	RunID          string             `json:"run_id"`
	StartedAt      time.Time          `json:"started_at"`
	FinishedAt     time.Time          `json:"finished_at"`
	TrainReviews   int                `json:"train_reviews"`
	TestReviews    int                `json:"test_reviews"`
	SkippedFiles   int                `json:"skipped_files"`
	VocabularySize int                `json:"vocabulary_size"`
	TrainShape     Shape              `json:"train_shape"`
	TestShape      Shape              `json:"test_shape"`
	Iterations     int                `json:"iterations"`
	Accuracy       float64            `json:"accuracy"`
	Report         *evaluate.Report   `json:"report"`
	StageSeconds   map[string]float64 `json:"stage_seconds"`
}
