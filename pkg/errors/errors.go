package errors

import (
	"errors"
	"fmt"
)

var (
	ErrDownload        = errors.New("dataset download failed")
	ErrExtract         = errors.New("dataset extraction failed")
	ErrEmptyCorpus     = errors.New("empty corpus")
	ErrEmptyVocabulary = errors.New("empty vocabulary")
	ErrNotFitted       = errors.New("vectorizer not fitted")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSinkUnavailable = errors.New("report sink unavailable")
)

// Stage names a pipeline step.
type Stage string

const (
	StageAcquire   Stage = "acquire"
	StageLoad      Stage = "load"
	StageVectorize Stage = "vectorize"
	StageTrain     Stage = "train"
	StageEvaluate  Stage = "evaluate"
	StageReport    Stage = "report"
)

// StageError records which pipeline stage produced an error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// InStage wraps err with the stage it came from. A nil err stays nil.
func InStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Newf wraps a sentinel with a formatted message that still matches errors.Is.
func Newf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// StageOf returns the stage recorded on err, or "" when there is none.
func StageOf(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return ""
}
