// Package classifier trains an L2-regularised logistic regression over
// sparse TF-IDF features and turns raw text into sentiment labels.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/vectorizer"
	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/imdb-sentiment/pkg/errors"
)

// Threshold is the positive-class probability a review must exceed to be
// labelled positive.
const Threshold = 0.5

// Model holds trained logistic regression parameters.
type Model struct {
	Weights    []float64
	Bias       float64
	Iterations int
	Status     string
	Loss       float64
}

// Probability returns P(positive | v).
func (m *Model) Probability(v vectorizer.Vector) float64 {
	return sigmoid(m.score(v))
}

// Decide labels v using the fixed 0.5 threshold.
func (m *Model) Decide(v vectorizer.Vector) dataset.Sentiment {
	if m.Probability(v) > Threshold {
		return dataset.Positive
	}
	return dataset.Negative
}

// DecideAll labels every row of X.
func (m *Model) DecideAll(X *vectorizer.Matrix) []dataset.Sentiment {
	rows, _ := X.Dims()
	out := make([]dataset.Sentiment, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.Decide(X.Row(i))
	}
	return out
}

func (m *Model) score(v vectorizer.Vector) float64 {
	return v.Dot(m.Weights) + m.Bias
}

// Train fits a logistic regression minimising
//
//	0.5*||w||^2 + C * sum_i logloss(y_i, w.x_i + b)
//
// with L-BFGS. The intercept is not penalised. Hitting the iteration limit
// is logged and the parameters reached so far are returned.
func Train(ctx context.Context, X *vectorizer.Matrix, y []dataset.Sentiment, cfg config.ClassifierConfig) (*Model, error) {
	logger := slog.Default().With("component", "classifier")

	rows, cols := X.Dims()
	if err := validate(rows, cols, y); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	targets := make([]float64, rows)
	for i, label := range y {
		targets[i] = float64(label)
	}

	obj := &objective{X: X, y: targets, c: cfg.C, cols: cols, z: make([]float64, rows)}
	problem := optimize.Problem{
		Func: obj.Func,
		Grad: obj.Grad,
	}
	// gonum counts the initial location as a major iteration, so the budget
	// is shifted by one to allow MaxIterations update steps.
	settings := &optimize.Settings{
		MajorIterations:   cfg.MaxIterations + 1,
		GradientThreshold: cfg.Tolerance,
		Recorder:          contextRecorder{ctx: ctx},
	}

	result, err := optimize.Minimize(problem, make([]float64, cols+1), settings, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if result == nil || len(result.X) != cols+1 {
			return nil, fmt.Errorf("optimizing logistic loss: %w", err)
		}
		logger.Warn("optimizer stopped early", "error", err, "status", result.Status.String())
	}
	if result.Status == optimize.IterationLimit {
		logger.Warn("training reached the iteration limit before converging",
			"max_iterations", cfg.MaxIterations,
		)
	}

	model := &Model{
		Weights:    append([]float64(nil), result.X[:cols]...),
		Bias:       result.X[cols],
		Iterations: max(result.Stats.MajorIterations-1, 0),
		Status:     result.Status.String(),
		Loss:       result.F,
	}
	logger.Info("model trained",
		"samples", rows,
		"features", cols,
		"iterations", model.Iterations,
		"status", model.Status,
		"loss", model.Loss,
		"weight_norm", floats.Norm(model.Weights, 2),
	)
	return model, nil
}

func validate(rows, cols int, y []dataset.Sentiment) error {
	if rows == 0 || cols == 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "training matrix is %dx%d", rows, cols)
	}
	if rows != len(y) {
		return apperrors.Newf(apperrors.ErrInvalidInput, "%d rows but %d labels", rows, len(y))
	}
	seen := make(map[dataset.Sentiment]bool, 2)
	for _, label := range y {
		if label != dataset.Positive && label != dataset.Negative {
			return apperrors.Newf(apperrors.ErrInvalidInput, "unknown label %d", int(label))
		}
		seen[label] = true
	}
	if len(seen) < 2 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "training labels contain a single class")
	}
	return nil
}

// objective evaluates the regularised logistic loss. z caches the margins
// of the last Func call so Grad can skip recomputing them when x matches.
type objective struct {
	X    *vectorizer.Matrix
	y    []float64
	c    float64
	cols int

	z     []float64
	lastX []float64
}

func (o *objective) margins(x []float64) {
	if o.lastX != nil && floats.Equal(o.lastX, x) {
		return
	}
	w, b := x[:o.cols], x[o.cols]
	for i := range o.z {
		o.z[i] = o.X.Row(i).Dot(w) + b
	}
	o.lastX = append(o.lastX[:0], x...)
}

func (o *objective) Func(x []float64) float64 {
	o.margins(x)
	w := x[:o.cols]
	loss := 0.0
	for i, z := range o.z {
		loss += softplus(z) - o.y[i]*z
	}
	return 0.5*floats.Dot(w, w) + o.c*loss
}

func (o *objective) Grad(grad, x []float64) {
	o.margins(x)
	w := x[:o.cols]
	gw := grad[:o.cols]
	copy(gw, w)
	gb := 0.0
	for i, z := range o.z {
		r := o.c * (sigmoid(z) - o.y[i])
		o.X.Row(i).AddScaledTo(gw, r)
		gb += r
	}
	grad[o.cols] = gb
}

// contextRecorder aborts the optimisation once ctx is done.
type contextRecorder struct {
	ctx context.Context
}

func (r contextRecorder) Init() error {
	return r.ctx.Err()
}

func (r contextRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
