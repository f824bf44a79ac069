package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/evaluate"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/redis"
)

func sampleSummary(t *testing.T, runID string) Summary {
	t.Helper()
	rep, err := evaluate.Score(
		[]dataset.Sentiment{dataset.Positive, dataset.Negative},
		[]dataset.Sentiment{dataset.Positive, dataset.Positive},
	)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	return Summary{
		RunID:          runID,
		StartedAt:      now.Add(-time.Minute),
		FinishedAt:     now,
		TrainReviews:   2,
		TestReviews:    2,
		VocabularySize: 3,
		Accuracy:       rep.Accuracy,
		Report:         rep,
		StageSeconds:   map[string]float64{"train": 1.5},
	}
}

type recordingSink struct {
	name string
	err  error
	got  []Summary
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, sum Summary) error {
	s.got = append(s.got, sum)
	return s.err
}

func TestFanoutContinuesAfterFailure(t *testing.T) {
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "sink_errors_total"}, []string{"sink"})
	broken := &recordingSink{name: "broken", err: errors.New("connection refused")}
	healthy := &recordingSink{name: "healthy"}

	f := NewFanout(failures, broken, healthy)
	err := f.Publish(context.Background(), sampleSummary(t, "run-1"))
	if !errors.Is(err, apperrors.ErrSinkUnavailable) {
		t.Fatalf("err = %v, want ErrSinkUnavailable", err)
	}
	if len(healthy.got) != 1 {
		t.Errorf("healthy sink received %d summaries, want 1", len(healthy.got))
	}
	if got := testutil.ToFloat64(failures.WithLabelValues("broken")); got != 1 {
		t.Errorf("failures{broken} = %g, want 1", got)
	}
}

func TestFanoutNoSinks(t *testing.T) {
	if err := NewFanout(nil).Publish(context.Background(), Summary{}); err != nil {
		t.Errorf("err = %v", err)
	}
}

type fakeProducer struct {
	events []kafka.Event
}

func (p *fakeProducer) Publish(_ context.Context, e kafka.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	p := &fakeProducer{}
	sum := sampleSummary(t, "run-42")
	if err := NewKafkaPublisher(p).Publish(context.Background(), sum); err != nil {
		t.Fatal(err)
	}
	if len(p.events) != 1 {
		t.Fatalf("published %d events", len(p.events))
	}
	e := p.events[0]
	if e.Key != "run-42" {
		t.Errorf("Key = %q", e.Key)
	}
	data, err := json.Marshal(e.Value)
	if err != nil {
		t.Fatal(err)
	}
	var decoded RunCompletedEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != EventRunCompleted || decoded.RunID != "run-42" || decoded.Summary.VocabularySize != 3 {
		t.Errorf("event = %+v", decoded)
	}
}

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) SetAll(_ context.Context, entries ...redis.Entry) error {
	for _, e := range entries {
		m.values[e.Key] = string(e.Value.([]byte))
		m.ttls[e.Key] = e.TTL
	}
	return nil
}

func TestRedisRecorder(t *testing.T) {
	store := newMemoryStore()
	rec := NewRedisRecorder(store, time.Hour)
	ctx := context.Background()

	if got, err := rec.Latest(ctx); got != nil || err != nil {
		t.Fatalf("Latest on empty store = %v, %v", got, err)
	}
	if err := rec.Publish(ctx, sampleSummary(t, "abc")); err != nil {
		t.Fatal(err)
	}
	if store.ttls[RunKey("abc")] != time.Hour {
		t.Errorf("run key ttl = %v", store.ttls[RunKey("abc")])
	}
	if store.ttls[latestKey] != 0 {
		t.Errorf("latest key should not expire, ttl = %v", store.ttls[latestKey])
	}
	latest, err := rec.Latest(ctx)
	if err != nil || latest == nil || latest.RunID != "abc" {
		t.Fatalf("Latest = %+v, %v", latest, err)
	}
	if latest.Report.Classes[dataset.Positive].Support != 1 {
		t.Errorf("report lost in round trip: %+v", latest.Report)
	}
	run, err := rec.Run(ctx, "abc")
	if err != nil || run == nil {
		t.Fatalf("Run = %+v, %v", run, err)
	}
}

func testPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	cfg := config.Default().Postgres
	if v := os.Getenv("TEST_POSTGRES_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("TEST_POSTGRES_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port = n
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresStore(t *testing.T) {
	db := testPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	first := sampleSummary(t, "00000000-0000-4000-8000-000000000001")
	second := sampleSummary(t, "00000000-0000-4000-8000-000000000002")
	second.FinishedAt = first.FinishedAt.Add(time.Second)
	t.Cleanup(func() {
		db.DB.Exec(`DELETE FROM sentiment_runs WHERE id IN ($1, $2)`, first.RunID, second.RunID)
	})

	for _, s := range []Summary{first, second, second} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	latest, err := store.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || latest.RunID != second.RunID {
		t.Errorf("Latest = %+v, want %s", latest, second.RunID)
	}
	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("List returned %d runs, want 2", len(runs))
	}
}
