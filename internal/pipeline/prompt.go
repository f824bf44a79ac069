package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/Adithya-Monish-Kumar-K/imdb-sentiment/internal/classifier"
)

// Prompter reads one review from the user.
type Prompter interface {
	Ask() (string, error)
}

// SurveyPrompter asks on the terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Ask() (string, error) {
	var text string
	prompt := &survey.Input{
		Message: "Review to classify (empty line to quit):",
	}
	err := survey.AskOne(prompt, &text)
	return text, err
}

// interact predicts each entered review until an empty line, Ctrl-C or
// ctx cancellation.
func (r *Runner) interact(ctx context.Context, p *classifier.Predictor) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := r.prompter.Ask()
		if errors.Is(err, terminal.InterruptErr) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading review: %w", err)
		}
		if strings.TrimSpace(text) == "" {
			return nil
		}
		label, prob := p.Classify(text)
		r.metrics.PredictionsTotal.WithLabelValues(label.String()).Inc()
		fmt.Fprintf(r.out, "Predicted sentiment: %s (p(positive)=%.3f)\n", label, prob)
	}
}
