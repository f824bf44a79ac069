package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	interactive := flag.Bool("interactive", false, "prompt for reviews to classify after evaluation")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *interactive {
		cfg.Pipeline.Interactive = true
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting sentiment pipeline",
		"dataset_url", cfg.Dataset.URL,
		"max_features", cfg.Vectorizer.MaxFeatures,
		"max_iterations", cfg.Classifier.MaxIterations,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.Run(ctx, cfg, os.Stdout)
	if err != nil {
		slog.Error("pipeline failed", "stage", string(apperrors.StageOf(err)), "error", err)
		stop()
		os.Exit(1)
	}
	slog.Info("pipeline complete", "run_id", summary.RunID, "accuracy", summary.Accuracy)
}
