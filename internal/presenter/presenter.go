package presenter

import (
	"context"
	"fmt"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/logger"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
)

// DefaultRevealInterval is the pause between two revealed lines
const DefaultRevealInterval = 500 * time.Millisecond

// Generator is the backend side of a cycle
type Generator interface {
	Generate(ctx context.Context, req generator.GenerationRequest) generator.Result
}

// ValidationError reports input rejected before any backend call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Input is what the user submits to start a cycle
type Input struct {
	SeedLine    string
	MaxTokens   int
	Temperature float64
}

// Outcome summarises one finished cycle
type Outcome struct {
	State   State
	Text    string
	Lines   []string
	Renders int
	Err     error
}

// StateObserver is called on every state change of a cycle
type StateObserver func(sessionID string, from, to State)

// Presenter drives generation and the line-by-line reveal
type Presenter struct {
	generator Generator
	interval  time.Duration
	pauser    Pauser
	recorder  metrics.Recorder
	observer  StateObserver
}

// Option customises a Presenter
type Option func(*Presenter)

// WithInterval sets the pause between lines; zero or less disables pausing
func WithInterval(d time.Duration) Option {
	return func(p *Presenter) {
		p.interval = d
	}
}

func WithPauser(pauser Pauser) Option {
	return func(p *Presenter) {
		if pauser != nil {
			p.pauser = pauser
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(p *Presenter) {
		if r != nil {
			p.recorder = r
		}
	}
}

func WithStateObserver(o StateObserver) Option {
	return func(p *Presenter) {
		p.observer = o
	}
}

func NewPresenter(gen Generator, opts ...Option) *Presenter {
	p := &Presenter{
		generator: gen,
		interval:  DefaultRevealInterval,
		pauser:    SleepPauser,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the configured pause between lines
func (p *Presenter) Interval() time.Duration {
	return p.interval
}

// WithoutPause returns a copy of the presenter that reveals without pausing
func (p *Presenter) WithoutPause() *Presenter {
	cp := *p
	cp.interval = 0
	return &cp
}

// Run executes one full cycle on the session. It blocks until the cycle
// reaches Succeeded or Failed. A second Run on the same session while one
// is in flight returns ErrCycleActive without touching the session.
func (p *Presenter) Run(ctx context.Context, sess *Session, in Input, r Renderer) Outcome {
	if !sess.begin() {
		return Outcome{State: sess.State(), Err: ErrCycleActive}
	}
	defer sess.end()

	p.transition(sess, StateValidating)

	req := generator.NewRequest(in.SeedLine, in.MaxTokens, in.Temperature)
	if !req.HasSeed() {
		p.notify(ctx, sess, r, Notice{Kind: NoticeError, Message: MessageEmptySeed})
		return p.finish(ctx, sess, StateFailed, 0, &ValidationError{Field: "seed_line", Message: MessageEmptySeed})
	}

	sess.reset()
	p.transition(sess, StateAwaitingBackend)
	p.notify(ctx, sess, r, Notice{Kind: NoticePending, Message: MessagePending})

	result := p.generator.Generate(ctx, req)
	if !result.OK() {
		p.notify(ctx, sess, r, Notice{
			Kind:    NoticeError,
			Message: MessageBackendErr,
			Detail:  "API Error: " + result.Err.Error(),
		})
		return p.finish(ctx, sess, StateFailed, 0, result.Err)
	}

	lines := SplitLines(result.Text)
	p.transition(sess, StateRevealing)

	renders := 0
	for i, line := range lines {
		if i > 0 {
			p.transition(sess, StateRevealing)
		}
		block := sess.appendLine(line)
		if err := r.Render(ctx, block); err != nil {
			// A failed cycle leaves no partial poem behind
			sess.reset()
			return p.finish(ctx, sess, StateFailed, renders, fmt.Errorf("render line %d: %w", i+1, err))
		}
		renders++
		p.pause()
	}

	p.notify(ctx, sess, r, Notice{Kind: NoticeSuccess, Message: MessageComplete})
	return p.finish(ctx, sess, StateSucceeded, renders, nil)
}

func (p *Presenter) pause() {
	if p.interval > 0 {
		p.pauser.Pause(p.interval)
	}
}

func (p *Presenter) transition(sess *Session, to State) {
	from := sess.setState(to)
	if p.observer != nil {
		p.observer(sess.ID, from, to)
	}
}

func (p *Presenter) notify(ctx context.Context, sess *Session, r Renderer, n Notice) {
	if err := r.Notify(ctx, n); err != nil {
		logger.Warn("Failed to deliver notice", logger.Fields{
			"session_id": sess.ID,
			"kind":       string(n.Kind),
			"error":      err.Error(),
		})
	}
}

func (p *Presenter) finish(ctx context.Context, sess *Session, state State, renders int, err error) Outcome {
	p.transition(sess, state)
	p.recorder.RecordReveal(ctx, state.String(), renders)

	snap := sess.Snapshot()
	fields := logger.Fields{
		"session_id": sess.ID,
		"state":      state.String(),
		"lines":      renders,
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.Warn("Poem cycle failed", fields)
	} else {
		logger.Info("Poem cycle completed", fields)
	}

	return Outcome{
		State:   state,
		Text:    snap.Text,
		Lines:   snap.Lines,
		Renders: renders,
		Err:     err,
	}
}
