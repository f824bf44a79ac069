// Package vectorizer implements a TF-IDF transform whose vocabulary and
// inverse document frequencies are learned from training text only.
package vectorizer

import (
	"log/slog"
	"math"
	"sort"

	"github.com/go-nlp/tfidf"

	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

// Analyzer splits text into terms.
type Analyzer interface {
	Terms(text string) []string
}

// Vectorizer is a TF-IDF transform capped at MaxFeatures terms. Feature
// values are raw term counts times the smoothed IDF
// ln((1+n)/(1+df)) + 1, L2-normalised per document.
type Vectorizer struct {
	analyzer    Analyzer
	maxFeatures int
	vocab       map[string]int
	terms       []string
	idf         []float64
	docs        int
	logger      *slog.Logger
}

// New creates an unfitted Vectorizer.
func New(analyzer Analyzer, maxFeatures int) *Vectorizer {
	return &Vectorizer{
		analyzer:    analyzer,
		maxFeatures: maxFeatures,
		logger:      slog.Default().With("component", "vectorizer"),
	}
}

type termIDs []int

func (d termIDs) IDs() []int { return []int(d) }

// Fit learns the vocabulary and IDF weights from texts. The most frequent
// terms across the corpus are kept, ties broken lexically, and indexed in
// lexical order.
func (v *Vectorizer) Fit(texts []string) error {
	_, err := v.fit(texts)
	return err
}

// FitTransform fits on texts and returns their feature matrix.
func (v *Vectorizer) FitTransform(texts []string) (*Matrix, error) {
	analyzed, err := v.fit(texts)
	if err != nil {
		return nil, err
	}
	rows := make([]Vector, len(analyzed))
	for i, terms := range analyzed {
		rows[i] = v.vectorize(terms)
	}
	return NewMatrix(rows, len(v.terms)), nil
}

// Transform maps texts onto the fitted vocabulary. Unseen terms are ignored.
func (v *Vectorizer) Transform(texts []string) (*Matrix, error) {
	if v.vocab == nil {
		return nil, apperrors.ErrNotFitted
	}
	rows := make([]Vector, len(texts))
	for i, text := range texts {
		rows[i] = v.vectorize(v.analyzer.Terms(text))
	}
	return NewMatrix(rows, len(v.terms)), nil
}

// TransformOne maps a single text onto the fitted vocabulary.
func (v *Vectorizer) TransformOne(text string) (Vector, error) {
	if v.vocab == nil {
		return Vector{}, apperrors.ErrNotFitted
	}
	return v.vectorize(v.analyzer.Terms(text)), nil
}

// Size returns the number of terms in the fitted vocabulary.
func (v *Vectorizer) Size() int {
	return len(v.terms)
}

// Terms returns the vocabulary in index order.
func (v *Vectorizer) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index returns the feature index of term.
func (v *Vectorizer) Index(term string) (int, bool) {
	idx, ok := v.vocab[term]
	return idx, ok
}

// IDF returns the learned weight of term.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	idx, ok := v.vocab[term]
	if !ok {
		return 0, false
	}
	return v.idf[idx], true
}

func (v *Vectorizer) fit(texts []string) ([][]string, error) {
	if len(texts) == 0 {
		return nil, apperrors.Newf(apperrors.ErrEmptyCorpus, "no training texts")
	}
	if v.maxFeatures <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "max features must be positive, got %d", v.maxFeatures)
	}

	analyzed := make([][]string, len(texts))
	counts := make(map[string]int)
	for i, text := range texts {
		terms := v.analyzer.Terms(text)
		analyzed[i] = terms
		for _, t := range terms {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		return nil, apperrors.Newf(apperrors.ErrEmptyVocabulary, "%d training texts produced no terms", len(texts))
	}

	kept := topTerms(counts, v.maxFeatures)
	sort.Strings(kept)
	vocab := make(map[string]int, len(kept))
	for i, t := range kept {
		vocab[t] = i
	}

	df := tfidf.New()
	for _, terms := range analyzed {
		df.Add(uniqueIDs(terms, vocab))
	}
	idf := make([]float64, len(kept))
	n := float64(df.Docs)
	for i := range kept {
		idf[i] = math.Log((1+n)/(1+df.TF[i])) + 1
	}

	v.vocab = vocab
	v.terms = kept
	v.idf = idf
	v.docs = int(df.Docs)
	v.logger.Info("vocabulary fitted",
		"documents", len(texts),
		"distinct_terms", len(counts),
		"vocabulary_size", len(kept),
		"max_features", v.maxFeatures,
	)
	return analyzed, nil
}

func (v *Vectorizer) vectorize(terms []string) Vector {
	tf := make(map[int]float64)
	for _, t := range terms {
		if idx, ok := v.vocab[t]; ok {
			tf[idx]++
		}
	}
	vec := Vector{
		Indices: make([]int, 0, len(tf)),
		Values:  make([]float64, 0, len(tf)),
	}
	for idx := range tf {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, tf[idx]*v.idf[idx])
	}
	if norm := vec.Norm(); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}

func topTerms(counts map[string]int, limit int) []string {
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

func uniqueIDs(terms []string, vocab map[string]int) termIDs {
	seen := make(map[int]struct{}, len(terms))
	ids := make(termIDs, 0, len(terms))
	for _, t := range terms {
		idx, ok := vocab[t]
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		ids = append(ids, idx)
	}
	return ids
}
