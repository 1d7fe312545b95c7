package metrics

import (
	"context"
	"time"
)

// Recorder receives the service's metric events.
type Recorder interface {
	RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
	RecordGeneration(ctx context.Context, provider, model string, duration time.Duration, success bool)
	RecordTokenUsage(ctx context.Context, model string, inputTokens, outputTokens, totalTokens int)
	RecordReveal(ctx context.Context, outcome string, lines int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) RecordAPIRequest(context.Context, string, int, time.Duration) {}

func (NoopRecorder) RecordGeneration(context.Context, string, string, time.Duration, bool) {}

func (NoopRecorder) RecordTokenUsage(context.Context, string, int, int, int) {}

func (NoopRecorder) RecordReveal(context.Context, string, int) {}

// MultiRecorder fans out metrics to multiple recorders.
type MultiRecorder struct {
	recorders []Recorder
}

func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	nonNil := make([]Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			nonNil = append(nonNil, r)
		}
	}
	return &MultiRecorder{recorders: nonNil}
}

func (m *MultiRecorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	for _, r := range m.recorders {
		r.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

func (m *MultiRecorder) RecordGeneration(ctx context.Context, provider, model string, duration time.Duration, success bool) {
	for _, r := range m.recorders {
		r.RecordGeneration(ctx, provider, model, duration, success)
	}
}

func (m *MultiRecorder) RecordTokenUsage(ctx context.Context, model string, inputTokens, outputTokens, totalTokens int) {
	for _, r := range m.recorders {
		r.RecordTokenUsage(ctx, model, inputTokens, outputTokens, totalTokens)
	}
}

func (m *MultiRecorder) RecordReveal(ctx context.Context, outcome string, lines int) {
	for _, r := range m.recorders {
		r.RecordReveal(ctx, outcome, lines)
	}
}
