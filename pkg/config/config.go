// Package config loads and validates pipeline configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// stage (Dataset, Text, Vectorizer, Classifier) and for the optional run
// reporting backends (Postgres, Kafka, Redis, Metrics).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level pipeline configuration.
type Config struct {
	Dataset    DatasetConfig    `yaml:"dataset"`
	Text       TextConfig       `yaml:"text"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
}

// DatasetConfig describes where the review archive comes from and where it
// is unpacked.
type DatasetConfig struct {
	URL        string `yaml:"url"`
	Archive    string `yaml:"archive"`
	WorkDir    string `yaml:"workDir"`
	ExtractDir string `yaml:"extractDir"`
}

// Root returns the directory the archive unpacks into.
func (d DatasetConfig) Root() string {
	return filepath.Join(d.WorkDir, d.ExtractDir)
}

// ArchivePath returns the local path of the downloaded archive.
func (d DatasetConfig) ArchivePath() string {
	return filepath.Join(d.WorkDir, d.Archive)
}

// TextConfig controls tokenisation.
type TextConfig struct {
	StripHTML bool   `yaml:"stripHtml"`
	StopWords bool   `yaml:"stopWords"`
	Stemmer   string `yaml:"stemmer"` // snowball, suffix or none
	MinLength int    `yaml:"minLength"`
}

// VectorizerConfig controls the TF-IDF vocabulary.
type VectorizerConfig struct {
	MaxFeatures int `yaml:"maxFeatures"`
}

// ClassifierConfig controls logistic regression training. MaxIterations
// bounds the number of optimiser update steps, not counting the evaluation
// of the starting point.
type ClassifierConfig struct {
	MaxIterations int     `yaml:"maxIterations"`
	C             float64 `yaml:"c"`
	Tolerance     float64 `yaml:"tolerance"`
}

// PipelineConfig toggles optional pipeline behaviour.
type PipelineConfig struct {
	Interactive bool `yaml:"interactive"`
	HeadRows    int  `yaml:"headRows"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls where pipeline metrics are pushed at the end of a
// run. An empty PushURL disables pushing.
type MetricsConfig struct {
	PushURL string `yaml:"pushUrl"`
	Job     string `yaml:"job"`
}

// PostgresConfig holds PostgreSQL connection parameters for run history.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds broker and topic settings for run-completed events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig holds Redis connection parameters for the latest-run record.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	RunTTL   time.Duration `yaml:"runTTL"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration the pipeline runs with when no file is
// given.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			URL:        "https://ai.stanford.edu/~amaas/data/sentiment/aclImdb_v1.tar.gz",
			Archive:    "aclImdb_v1.tar.gz",
			WorkDir:    ".",
			ExtractDir: "aclImdb",
		},
		Text: TextConfig{
			StripHTML: true,
			StopWords: true,
			Stemmer:   "snowball",
			MinLength: 2,
		},
		Vectorizer: VectorizerConfig{
			MaxFeatures: 5000,
		},
		Classifier: ClassifierConfig{
			MaxIterations: 1000,
			C:             1.0,
			Tolerance:     1e-4,
		},
		Pipeline: PipelineConfig{
			HeadRows: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Job: "imdb_sentiment",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "sentiment",
			User:            "sentiment",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "sentiment-runs",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 2,
			RunTTL:   7 * 24 * time.Hour,
		},
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Vectorizer.MaxFeatures <= 0 {
		return fmt.Errorf("vectorizer.maxFeatures must be positive, got %d", c.Vectorizer.MaxFeatures)
	}
	if c.Classifier.MaxIterations <= 0 {
		return fmt.Errorf("classifier.maxIterations must be positive, got %d", c.Classifier.MaxIterations)
	}
	if c.Classifier.C <= 0 {
		return fmt.Errorf("classifier.c must be positive, got %g", c.Classifier.C)
	}
	switch c.Text.Stemmer {
	case "snowball", "suffix", "none":
	default:
		return fmt.Errorf("text.stemmer must be one of snowball, suffix, none; got %q", c.Text.Stemmer)
	}
	if c.Dataset.Archive == "" || c.Dataset.ExtractDir == "" {
		return fmt.Errorf("dataset.archive and dataset.extractDir are required")
	}
	return nil
}

// applyEnvOverrides reads SA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SA_DATASET_URL"); v != "" {
		cfg.Dataset.URL = v
	}
	if v := os.Getenv("SA_DATASET_WORKDIR"); v != "" {
		cfg.Dataset.WorkDir = v
	}
	if v := os.Getenv("SA_VECTORIZER_MAX_FEATURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vectorizer.MaxFeatures = n
		}
	}
	if v := os.Getenv("SA_CLASSIFIER_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Classifier.MaxIterations = n
		}
	}
	if v := os.Getenv("SA_TEXT_STEMMER"); v != "" {
		cfg.Text.Stemmer = v
	}
	if v := os.Getenv("SA_PIPELINE_INTERACTIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pipeline.Interactive = b
		}
	}
	if v := os.Getenv("SA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SA_METRICS_PUSH_URL"); v != "" {
		cfg.Metrics.PushURL = v
	}
	if v := os.Getenv("SA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
		cfg.Postgres.Enabled = true
	}
	if v := os.Getenv("SA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("SA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("SA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}
