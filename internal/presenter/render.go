package presenter

import (
	"context"
	"sync"
	"time"
)

// NoticeKind classifies a transient user notice
type NoticeKind string

const (
	NoticePending NoticeKind = "pending"
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
)

// User-visible notice texts
const (
	MessagePending    = "Generating poem..."
	MessageEmptySeed  = "Please enter a starting line."
	MessageBackendErr = "Could not create poem. Please try again."
	MessageComplete   = "The poem is complete!"
)

// Notice is a transient message shown next to the poem block
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Detail  string     `json:"detail,omitempty"`
}

// Renderer is the output surface of a cycle.
// Render always receives the whole accumulated block, which replaces the previous one.
type Renderer interface {
	Render(ctx context.Context, block string) error
	Notify(ctx context.Context, notice Notice) error
}

// Pauser waits between revealed lines
type Pauser interface {
	Pause(d time.Duration)
}

// PauseFunc adapts a function to Pauser
type PauseFunc func(d time.Duration)

func (f PauseFunc) Pause(d time.Duration) {
	f(d)
}

// SleepPauser blocks for the full interval; it is not interruptible
var SleepPauser Pauser = PauseFunc(time.Sleep)

// Transcript is a Renderer that keeps every render and notice in memory
type Transcript struct {
	mu      sync.Mutex
	renders []string
	notices []Notice
}

func (t *Transcript) Render(_ context.Context, block string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renders = append(t.renders, block)
	return nil
}

func (t *Transcript) Notify(_ context.Context, notice Notice) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notices = append(t.notices, notice)
	return nil
}

// Renders returns every block rendered so far, in order
func (t *Transcript) Renders() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.renders))
	copy(out, t.renders)
	return out
}

// Notices returns every notice emitted so far, in order
func (t *Transcript) Notices() []Notice {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Notice, len(t.notices))
	copy(out, t.notices)
	return out
}
