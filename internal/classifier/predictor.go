package classifier

import (
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/vectorizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

// Predictor turns raw review text into sentiment labels using a fitted
// vectorizer and a trained model.
type Predictor struct {
	vectorizer *vectorizer.Vectorizer
	model      *Model
}

// NewPredictor pairs a fitted vectorizer with a model trained on its
// feature space.
func NewPredictor(v *vectorizer.Vectorizer, m *Model) (*Predictor, error) {
	if v == nil || v.Size() == 0 {
		return nil, apperrors.ErrNotFitted
	}
	if m == nil || len(m.Weights) != v.Size() {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "model does not match vocabulary of %d terms", v.Size())
	}
	return &Predictor{vectorizer: v, model: m}, nil
}

// Predict labels a single text.
func (p *Predictor) Predict(text string) dataset.Sentiment {
	label, _ := p.Classify(text)
	return label
}

// Classify labels a single text and returns P(positive) alongside the
// label, analyzing the text once.
func (p *Predictor) Classify(text string) (dataset.Sentiment, float64) {
	vec, err := p.vectorizer.TransformOne(text)
	if err != nil {
		// NewPredictor guarantees a fitted vectorizer.
		panic(err)
	}
	prob := p.model.Probability(vec)
	if prob > Threshold {
		return dataset.Positive, prob
	}
	return dataset.Negative, prob
}

// PredictBatch labels each text, preserving input order.
func (p *Predictor) PredictBatch(texts []string) []dataset.Sentiment {
	out := make([]dataset.Sentiment, len(texts))
	for i, text := range texts {
		out[i] = p.Predict(text)
	}
	return out
}

// Probability returns P(positive) for text.
func (p *Predictor) Probability(text string) float64 {
	_, prob := p.Classify(text)
	return prob
}

// PredictSentiment labels one text with model and v.
func PredictSentiment(m *Model, v *vectorizer.Vectorizer, text string) (dataset.Sentiment, error) {
	p, err := NewPredictor(v, m)
	if err != nil {
		return dataset.Negative, err
	}
	return p.Predict(text), nil
}

// PredictSentiments labels many texts with model and v. The result has one
// label per input.
func PredictSentiments(m *Model, v *vectorizer.Vectorizer, texts []string) ([]dataset.Sentiment, error) {
	p, err := NewPredictor(v, m)
	if err != nil {
		return nil, err
	}
	return p.PredictBatch(texts), nil
}
