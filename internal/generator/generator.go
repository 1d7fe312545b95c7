package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/llm"
	"github.com/Conceptual-Machines/bidrohi/internal/logger"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
	"github.com/Conceptual-Machines/bidrohi/internal/observability"
	"github.com/Conceptual-Machines/bidrohi/internal/prompt"
	"github.com/getsentry/sentry-go"
)

// ErrEmptyResponse is returned when the backend answers with no usable text
var ErrEmptyResponse = errors.New("backend returned an empty poem")

// BackendError describes any failure of the generation call
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s backend failed", e.Provider)
	}
	return e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Result is either generated text or a backend failure, never both
type Result struct {
	Text  string
	Err   *BackendError
	Usage llm.Usage
}

// OK reports whether the generation succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Generator turns a seed line into a poem with one backend call
type Generator struct {
	provider llm.Provider
	builder  *prompt.Builder
	model    string
	recorder metrics.Recorder
	langfuse *observability.LangfuseClient
}

// Option customises a Generator
type Option func(*Generator)

// WithRecorder reports generation metrics to r
func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

// WithLangfuse traces every generation in Langfuse
func WithLangfuse(c *observability.LangfuseClient) Option {
	return func(g *Generator) {
		g.langfuse = c
	}
}

// NewGenerator creates a generator for the given provider and model.
// An empty model lets the provider pick its default.
func NewGenerator(provider llm.Provider, builder *prompt.Builder, model string, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		builder:  builder,
		model:    model,
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate issues exactly one backend call. Every fault, including a panic
// inside the provider, comes back as a failed Result.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (result Result) {
	startTime := time.Now()
	providerName := g.provider.Name()
	promptText := g.builder.BuildPoemPrompt(req.SeedLine)

	trace := g.langfuse.StartTrace(ctx, "poem.generate", map[string]interface{}{
		"provider":    providerName,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
	})
	generation := trace.Generation(providerName, nil)
	defer trace.Finish()
	defer generation.Finish()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("backend panicked: %v", r)
			sentry.CaptureException(err)
			result = g.fail(ctx, providerName, err, time.Since(startTime))
			generation.Fail(err)
		}
	}()

	resp, err := g.provider.Generate(ctx, &llm.GenerationRequest{
		Model:           g.model,
		Prompt:          promptText,
		MaxOutputTokens: req.MaxTokens,
		Temperature:     req.Temperature,
	})
	duration := time.Since(startTime)
	if err != nil {
		generation.Fail(err)
		return g.fail(ctx, providerName, err, duration)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		generation.Fail(ErrEmptyResponse)
		return g.fail(ctx, providerName, ErrEmptyResponse, duration)
	}

	g.recorder.RecordGeneration(ctx, providerName, resp.Model, duration, true)
	g.recorder.RecordTokenUsage(ctx, resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)
	generation.Record(resp.Model, promptText, resp.Text, resp.Usage.InputTokens, resp.Usage.OutputTokens)

	logger.LogGenerationRequest(ctx, resp.Model, duration, resp.Usage.AsMap(), logger.Fields{
		"provider":    providerName,
		"max_tokens":  req.MaxTokens,
		"temperature": req.Temperature,
		"cost_usd":    observability.FormatCost(observability.CalculateCost(resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)),
	})

	return Result{Text: resp.Text, Usage: resp.Usage}
}

func (g *Generator) fail(ctx context.Context, providerName string, err error, duration time.Duration) Result {
	g.recorder.RecordGeneration(ctx, providerName, g.model, duration, false)
	logger.Warn("Generation failed", logger.Fields{
		"provider":    providerName,
		"error":       err.Error(),
		"duration_ms": duration.Milliseconds(),
	})
	return Result{Err: &BackendError{Provider: providerName, Err: err}}
}
