package dataset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Loader reads one partition directory (for example aclImdb/train) that
// holds a pos/ and a neg/ subdirectory of plain-text reviews.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader logging with the given logger, or the default
// one when nil.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With("component", "loader")}
}

// Load reads every review under root/pos and root/neg, positives first, in
// directory listing order. A missing subdirectory or an unreadable file is
// logged and skipped; Load never fails because of them.
func (l *Loader) Load(root string) *Dataset {
	var reviews []Review
	stats := LoadStats{Loaded: make(map[Sentiment]int, len(Labels))}

	for _, label := range Labels {
		dir := filepath.Join(root, label.Dir())
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("label directory missing, skipping", "dir", dir, "label", label)
			} else {
				l.logger.Error("listing label directory failed, skipping", "dir", dir, "error", err)
			}
			stats.MissingLabels = append(stats.MissingLabels, label)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			text, err := readText(path)
			if err != nil {
				if errors.Is(err, encoding.ErrInvalidUTF8) {
					stats.DecodeSkipped++
					l.logger.Warn("review is not valid UTF-8, skipping", "file", path)
				} else {
					stats.ReadSkipped++
					l.logger.Warn("reading review failed, skipping", "file", path, "error", err)
				}
				continue
			}
			reviews = append(reviews, Review{Text: text, Label: label})
			stats.Loaded[label]++
		}
	}

	ds := New(filepath.Base(root), reviews)
	ds.Stats = stats
	l.logger.Info("partition loaded",
		"root", root,
		"reviews", len(reviews),
		"positive", stats.Loaded[Positive],
		"negative", stats.Loaded[Negative],
		"skipped", stats.Skipped(),
	)
	return ds
}

// Load reads a partition with the default logger.
func Load(root string) *Dataset {
	return NewLoader(nil).Load(root)
}

func readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(transform.NewReader(f, encoding.UTF8Validator))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(data), nil
}
