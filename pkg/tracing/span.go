// Package tracing records a tree of timed spans for one pipeline run and
// writes it to slog when the run ends.
package tracing

import (
	"context"
	"log/slog"
	"time"
)

type contextKey struct{}

// Span is one timed step of a run.
type Span struct {
	Name     string
	TraceID  string
	Start    time.Time
	Duration time.Duration
	Err      error
	Children []*Span
	Attrs    []slog.Attr
}

// Start creates a root span and stores it in the returned context.
func Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	span := &Span{Name: name, TraceID: traceID, Start: time.Now()}
	return context.WithValue(ctx, contextKey{}, span), span
}

// StartChild creates a span under the one in ctx. Without a parent the
// child becomes a root with an empty trace ID.
func StartChild(ctx context.Context, name string) (context.Context, *Span) {
	child := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.Children = append(parent.Children, child)
	}
	return context.WithValue(ctx, contextKey{}, child), child
}

// FromContext returns the current span, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(contextKey{}).(*Span)
	return span
}

// SetAttr attaches a key-value attribute.
func (s *Span) SetAttr(key string, value any) {
	s.Attrs = append(s.Attrs, slog.Any(key, value))
}

// End stops the clock and records err.
func (s *Span) End(err error) {
	s.Duration = time.Since(s.Start)
	s.Err = err
}

// Walk visits s and its descendants depth first.
func (s *Span) Walk(fn func(depth int, span *Span)) {
	s.walk(0, fn)
}

func (s *Span) walk(depth int, fn func(int, *Span)) {
	fn(depth, s)
	for _, c := range s.Children {
		c.walk(depth+1, fn)
	}
}

// Log writes one debug record per span.
func (s *Span) Log(ctx context.Context, logger *slog.Logger) {
	s.Walk(func(depth int, span *Span) {
		attrs := []slog.Attr{
			slog.String("trace_id", span.TraceID),
			slog.String("span", span.Name),
			slog.Int("depth", depth),
			slog.Duration("duration", span.Duration),
		}
		if span.Err != nil {
			attrs = append(attrs, slog.String("error", span.Err.Error()))
		}
		attrs = append(attrs, span.Attrs...)
		logger.LogAttrs(ctx, slog.LevelDebug, "span", attrs...)
	})
}
