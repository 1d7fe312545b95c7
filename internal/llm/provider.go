package llm

import (
	"context"
)

// Provider defines the interface for text-generation backends.
// Implementations make exactly one blocking call per Generate and never stream.
type Provider interface {
	// Generate sends the prompt and returns the complete generated text
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)

	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string
}

// GenerationRequest contains all parameters needed for one generation call
type GenerationRequest struct {
	Model           string
	SystemPrompt    string // Optional; the poem prompt is self-contained
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// GenerationResponse contains the result from the backend
type GenerationResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	FinishReason string `json:"finish_reason,omitempty"`
	Usage        Usage  `json:"usage"`
}

// Usage is the provider-neutral token accounting of one call
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// AsMap returns usage in the map shape used by the logger
func (u Usage) AsMap() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}

// truncate shortens s to at most maxLen runes
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
