package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/llm"
	"github.com/Conceptual-Machines/bidrohi/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	calls        int
	lastRequest  *llm.GenerationRequest
	GenerateFunc func(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error)
}

func (m *mockProvider) Name() string {
	return "mock"
}

func (m *mockProvider) Generate(ctx context.Context, request *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	m.calls++
	m.lastRequest = request
	return m.GenerateFunc(ctx, request)
}

type recordedGeneration struct {
	provider string
	success  bool
}

type spyRecorder struct {
	generations []recordedGeneration
	tokens      int
}

func (s *spyRecorder) RecordAPIRequest(context.Context, string, int, time.Duration) {}

func (s *spyRecorder) RecordGeneration(_ context.Context, provider, _ string, _ time.Duration, success bool) {
	s.generations = append(s.generations, recordedGeneration{provider: provider, success: success})
}

func (s *spyRecorder) RecordTokenUsage(_ context.Context, _ string, _, _, total int) {
	s.tokens += total
}

func (s *spyRecorder) RecordReveal(context.Context, string, int) {}

func newTestBuilder(t *testing.T) *prompt.Builder {
	t.Helper()
	style, err := prompt.NewPromptLoader("").LoadStyle()
	require.NoError(t, err)
	return prompt.NewPromptBuilder(style)
}

func TestGenerateSuccess(t *testing.T) {
	provider := &mockProvider{
		GenerateFunc: func(_ context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
			return &llm.GenerationResponse{
				Text:  "বল বীর-\nবল উন্নত মম শির!",
				Model: "gemini-2.5-flash",
				Usage: llm.Usage{InputTokens: 120, OutputTokens: 40, TotalTokens: 160},
			}, nil
		},
	}
	recorder := &spyRecorder{}
	gen := NewGenerator(provider, newTestBuilder(t), "", WithRecorder(recorder))

	result := gen.Generate(context.Background(), DefaultRequest("বল বীর, বল উন্নত মম শির!"))

	require.True(t, result.OK())
	assert.Equal(t, "বল বীর-\nবল উন্নত মম শির!", result.Text)
	assert.Equal(t, 160, result.Usage.TotalTokens)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, []recordedGeneration{{provider: "mock", success: true}}, recorder.generations)
	assert.Equal(t, 160, recorder.tokens)
}

func TestGeneratePassesKnobsThrough(t *testing.T) {
	provider := &mockProvider{
		GenerateFunc: func(_ context.Context, _ *llm.GenerationRequest) (*llm.GenerationResponse, error) {
			return &llm.GenerationResponse{Text: "line"}, nil
		},
	}
	gen := NewGenerator(provider, newTestBuilder(t), "gemini-2.5-flash")
	seed := "বল বীর, বল উন্নত মম শির!"

	gen.Generate(context.Background(), DefaultRequest(seed))

	require.NotNil(t, provider.lastRequest)
	assert.Equal(t, 300, provider.lastRequest.MaxOutputTokens)
	assert.Equal(t, 0.8, provider.lastRequest.Temperature)
	assert.Equal(t, "gemini-2.5-flash", provider.lastRequest.Model)
	assert.True(t, strings.HasSuffix(provider.lastRequest.Prompt, "'"+seed+"'"))

	gen.Generate(context.Background(), NewRequest(seed, 9000, 3.5))
	assert.Equal(t, 500, provider.lastRequest.MaxOutputTokens)
	assert.Equal(t, 1.0, provider.lastRequest.Temperature)
}

func TestGenerateBackendFailures(t *testing.T) {
	quota := errors.New("429 Too Many Requests: quota exceeded")

	tests := []struct {
		name    string
		fn      func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error)
		wantErr string
		wantIs  error
	}{
		{
			name: "provider error",
			fn: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return nil, quota
			},
			wantErr: "quota exceeded",
			wantIs:  quota,
		},
		{
			name: "blank text",
			fn: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return &llm.GenerationResponse{Text: "  \n\n "}, nil
			},
			wantErr: "empty poem",
			wantIs:  ErrEmptyResponse,
		},
		{
			name: "nil response",
			fn: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				return nil, nil
			},
			wantErr: "empty poem",
			wantIs:  ErrEmptyResponse,
		},
		{
			name: "panic",
			fn: func(context.Context, *llm.GenerationRequest) (*llm.GenerationResponse, error) {
				panic("connection reset")
			},
			wantErr: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &spyRecorder{}
			gen := NewGenerator(&mockProvider{GenerateFunc: tt.fn}, newTestBuilder(t), "", WithRecorder(recorder))

			var result Result
			require.NotPanics(t, func() {
				result = gen.Generate(context.Background(), DefaultRequest("seed"))
			})

			require.False(t, result.OK())
			assert.Empty(t, result.Text)
			assert.Equal(t, "mock", result.Err.Provider)
			assert.Contains(t, result.Err.Error(), tt.wantErr)
			if tt.wantIs != nil {
				assert.ErrorIs(t, result.Err, tt.wantIs)
			}
			assert.Equal(t, []recordedGeneration{{provider: "mock", success: false}}, recorder.generations)
		})
	}
}

func TestBackendErrorAs(t *testing.T) {
	var err error = &BackendError{Provider: "gemini", Err: errors.New("invalid API key")}

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "invalid API key", backendErr.Error())
	assert.Equal(t, "gemini backend failed", (&BackendError{Provider: "gemini"}).Error())
}

func TestNewRequestClamps(t *testing.T) {
	tests := []struct {
		name      string
		maxTokens int
		temp      float64
		wantMax   int
		wantTemp  float64
	}{
		{"defaults", 300, 0.8, 300, 0.8},
		{"lower bounds", 100, 0.0, 100, 0.0},
		{"upper bounds", 500, 1.0, 500, 1.0},
		{"below range", 10, -0.5, 100, 0.0},
		{"above range", 1000, 1.7, 500, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest("seed", tt.maxTokens, tt.temp)
			assert.Equal(t, tt.wantMax, req.MaxTokens)
			assert.Equal(t, tt.wantTemp, req.Temperature)
		})
	}
}

func TestHasSeed(t *testing.T) {
	assert.True(t, DefaultRequest("বল বীর").HasSeed())
	assert.False(t, DefaultRequest("").HasSeed())
	assert.False(t, DefaultRequest(" \t\n").HasSeed())
}
