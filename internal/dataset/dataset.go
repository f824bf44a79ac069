// Package dataset holds labeled review records and loads them from the
// pos/neg directory layout of the IMDB archive.
package dataset

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names of the tabular view.
const (
	ColumnReview    = "review"
	ColumnSentiment = "sentiment"
)

// Sentiment is the binary classification target. The numeric encoding is
// fixed: Negative is 0 and Positive is 1.
type Sentiment int

const (
	Negative Sentiment = iota
	Positive
)

func (s Sentiment) String() string {
	switch s {
	case Negative:
		return "negative"
	case Positive:
		return "positive"
	default:
		return fmt.Sprintf("sentiment(%d)", int(s))
	}
}

// MarshalText encodes s by name.
func (s Sentiment) MarshalText() ([]byte, error) {
	if s != Negative && s != Positive {
		return nil, fmt.Errorf("invalid sentiment %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a sentiment name.
func (s *Sentiment) UnmarshalText(text []byte) error {
	switch string(text) {
	case "negative":
		*s = Negative
	case "positive":
		*s = Positive
	default:
		return fmt.Errorf("invalid sentiment %q", text)
	}
	return nil
}

// Dir returns the archive subdirectory that holds reviews with this label.
func (s Sentiment) Dir() string {
	if s == Positive {
		return "pos"
	}
	return "neg"
}

// Labels lists the sentiments in the order their directories are scanned.
var Labels = []Sentiment{Positive, Negative}

// Review is one labeled review, created from a single file.
type Review struct {
	Text  string
	Label Sentiment
}

// LoadStats counts what happened while loading a partition.
type LoadStats struct {
	Loaded        map[Sentiment]int
	DecodeSkipped int
	ReadSkipped   int
	MissingLabels []Sentiment
}

// Skipped is the total number of files that could not be used.
func (s LoadStats) Skipped() int {
	return s.DecodeSkipped + s.ReadSkipped
}

// Dataset is an ordered collection of reviews with a two-column table view
// (review, sentiment).
type Dataset struct {
	Name    string
	Reviews []Review
	Stats   LoadStats
	Frame   dataframe.DataFrame
}

// New builds a dataset and its table view from reviews.
func New(name string, reviews []Review) *Dataset {
	return &Dataset{
		Name:    name,
		Reviews: reviews,
		Stats:   LoadStats{Loaded: countLabels(reviews)},
		Frame:   buildFrame(reviews),
	}
}

func (d *Dataset) Len() int {
	return len(d.Reviews)
}

// Texts returns the review texts in row order.
func (d *Dataset) Texts() []string {
	texts := make([]string, len(d.Reviews))
	for i, r := range d.Reviews {
		texts[i] = r.Text
	}
	return texts
}

// Labels returns the sentiments in row order.
func (d *Dataset) Labels() []Sentiment {
	labels := make([]Sentiment, len(d.Reviews))
	for i, r := range d.Reviews {
		labels[i] = r.Label
	}
	return labels
}

// Count returns how many rows carry the given label.
func (d *Dataset) Count(label Sentiment) int {
	if d.Frame.Nrow() == 0 {
		return 0
	}
	filtered := d.Frame.Filter(dataframe.F{
		Colname:    ColumnSentiment,
		Comparator: series.Eq,
		Comparando: int(label),
	})
	return filtered.Nrow()
}

// Summary prints the row count, column types, label balance and the first
// headRows rows.
func (d *Dataset) Summary(w io.Writer, headRows int) {
	fmt.Fprintf(w, "%s: %d rows x %d columns\n", d.Name, d.Frame.Nrow(), d.Frame.Ncol())
	fmt.Fprintf(w, " #  %-10s %s\n", "Column", "Dtype")
	types := d.Frame.Types()
	for i, name := range d.Frame.Names() {
		fmt.Fprintf(w, " %d  %-10s %s\n", i, name, types[i])
	}
	fmt.Fprintf(w, "labels: %s=%d %s=%d\n",
		Positive, d.Count(Positive), Negative, d.Count(Negative))
	if skipped := d.Stats.Skipped(); skipped > 0 {
		fmt.Fprintf(w, "skipped files: %d (decode=%d read=%d)\n",
			skipped, d.Stats.DecodeSkipped, d.Stats.ReadSkipped)
	}
	for _, label := range d.Stats.MissingLabels {
		fmt.Fprintf(w, "missing directory: %s\n", label.Dir())
	}
	if headRows <= 0 || d.Len() == 0 {
		return
	}
	if headRows > d.Len() {
		headRows = d.Len()
	}
	fmt.Fprintln(w, buildFrame(truncate(d.Reviews[:headRows], 60)).String())
}

func buildFrame(reviews []Review) dataframe.DataFrame {
	texts := make([]string, len(reviews))
	labels := make([]int, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
		labels[i] = int(r.Label)
	}
	return dataframe.New(
		series.New(texts, series.String, ColumnReview),
		series.New(labels, series.Int, ColumnSentiment),
	)
}

func countLabels(reviews []Review) map[Sentiment]int {
	counts := make(map[Sentiment]int, len(Labels))
	for _, r := range reviews {
		counts[r.Label]++
	}
	return counts
}

func truncate(reviews []Review, n int) []Review {
	out := make([]Review, len(reviews))
	for i, r := range reviews {
		text := strings.Join(strings.Fields(r.Text), " ")
		if runes := []rune(text); len(runes) > n {
			text = string(runes[:n]) + "..."
		}
		out[i] = Review{Text: text, Label: r.Label}
	}
	return out
}
