package models

import "github.com/Conceptual-Machines/bidrohi/internal/presenter"

// PoemRequest is the body of both poem endpoints.
// Omitted knobs take their defaults; out-of-range values are clamped.
type PoemRequest struct {
	SeedLine    string   `json:"seed_line"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// PoemResponse is the final state of a non-streaming cycle
type PoemResponse struct {
	RequestID string             `json:"request_id"`
	SessionID string             `json:"session_id"`
	State     presenter.State    `json:"state"`
	Text      string             `json:"text"`
	HTML      string             `json:"html,omitempty"`
	Lines     []string           `json:"lines"`
	Renders   int                `json:"renders"`
	Notices   []presenter.Notice `json:"notices"`
	Error     string             `json:"error,omitempty"`
}

// Stream event types
const (
	EventNotice = "notice"
	EventRender = "render"
	EventDone   = "done"
)

// StreamEvent is one server-sent event of the streaming endpoint
type StreamEvent struct {
	Type      string            `json:"type"`
	Notice    *presenter.Notice `json:"notice,omitempty"`
	Text      string            `json:"text,omitempty"`
	HTML      string            `json:"html,omitempty"`
	Line      int               `json:"line,omitempty"`
	State     string            `json:"state,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}
