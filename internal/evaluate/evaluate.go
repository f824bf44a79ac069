// Package evaluate scores predicted sentiment labels against the truth and
// renders a classification report.
package evaluate

import (
	"fmt"
	"math"
	"strings"

	"github.com/bsm/mlmetrics"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/classifier"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/vectorizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

// ClassMetrics are the scores for one label, or an average over labels.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a classification report at the 0.5 decision threshold.
type Report struct {
	Accuracy    float64                            `json:"accuracy"`
	Classes     map[dataset.Sentiment]ClassMetrics `json:"classes"`
	MacroAvg    ClassMetrics                       `json:"macro_avg"`
	WeightedAvg ClassMetrics                       `json:"weighted_avg"`
	Total       int                                `json:"total"`
}

// order in which classes are reported.
var order = []dataset.Sentiment{dataset.Negative, dataset.Positive}

// Evaluate predicts every row of X with model and scores it against y.
func Evaluate(model *classifier.Model, X *vectorizer.Matrix, y []dataset.Sentiment) (*Report, error) {
	rows, _ := X.Dims()
	if rows != len(y) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%d rows but %d labels", rows, len(y))
	}
	return Score(y, model.DecideAll(X))
}

// Score builds a Report from true and predicted labels.
func Score(truth, predicted []dataset.Sentiment) (*Report, error) {
	if len(truth) == 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "no labels to evaluate")
	}
	if len(truth) != len(predicted) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%d true labels but %d predictions", len(truth), len(predicted))
	}

	cm := mlmetrics.NewConfusionMatrix()
	support := make(map[dataset.Sentiment]int, len(order))
	for i := range truth {
		cm.Observe(int(truth[i]), int(predicted[i]))
		support[truth[i]]++
	}

	r := &Report{
		Accuracy: cm.Accuracy(),
		Classes:  make(map[dataset.Sentiment]ClassMetrics, len(order)),
		Total:    len(truth),
	}
	for _, label := range order {
		m := ClassMetrics{Support: support[label]}
		if int(label) < cm.Order() {
			m.Precision = finite(cm.Precision(int(label)))
			m.Recall = finite(cm.Sensitivity(int(label)))
			m.F1 = finite(cm.F1(int(label)))
		}
		r.Classes[label] = m

		r.MacroAvg.Precision += m.Precision / float64(len(order))
		r.MacroAvg.Recall += m.Recall / float64(len(order))
		r.MacroAvg.F1 += m.F1 / float64(len(order))

		w := float64(m.Support) / float64(r.Total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = r.Total
	r.WeightedAvg.Support = r.Total
	return r, nil
}

// finite maps undefined ratios (no predictions or no support) to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// String renders r as a fixed-width table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %9s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, label := range order {
		m := r.Classes[label]
		fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", label, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%12s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.Total)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%12s %9.2f %9.2f %9.2f %9d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}
