package generator

import (
	"math"
	"strings"
)

// Knob bounds and defaults for one generation
const (
	MinMaxTokens     = 100
	MaxMaxTokens     = 500
	DefaultMaxTokens = 300

	MinTemperature     = 0.0
	MaxTemperature     = 1.0
	DefaultTemperature = 0.8
)

// GenerationRequest carries the seed line and the two numeric knobs.
// Built fresh per cycle and never stored.
type GenerationRequest struct {
	SeedLine    string
	MaxTokens   int
	Temperature float64
}

// NewRequest builds a request with both knobs clamped into their ranges.
func NewRequest(seedLine string, maxTokens int, temperature float64) GenerationRequest {
	return GenerationRequest{
		SeedLine:    seedLine,
		MaxTokens:   ClampMaxTokens(maxTokens),
		Temperature: ClampTemperature(temperature),
	}
}

// DefaultRequest uses the default knob values
func DefaultRequest(seedLine string) GenerationRequest {
	return NewRequest(seedLine, DefaultMaxTokens, DefaultTemperature)
}

// ClampMaxTokens bounds the output length to [100, 500]
func ClampMaxTokens(n int) int {
	switch {
	case n < MinMaxTokens:
		return MinMaxTokens
	case n > MaxMaxTokens:
		return MaxMaxTokens
	default:
		return n
	}
}

// ClampTemperature bounds creativity to [0.0, 1.0]
func ClampTemperature(t float64) float64 {
	switch {
	case t < MinTemperature || math.IsNaN(t):
		return MinTemperature
	case t > MaxTemperature:
		return MaxTemperature
	default:
		return t
	}
}

// HasSeed reports whether the seed line has any non-space content
func (r GenerationRequest) HasSeed() bool {
	return strings.TrimSpace(r.SeedLine) != ""
}
