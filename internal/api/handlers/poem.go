package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/api/middleware"
	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/logger"
	"github.com/Conceptual-Machines/bidrohi/internal/models"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/Conceptual-Machines/bidrohi/internal/session"
	"github.com/Conceptual-Machines/bidrohi/internal/web/render"
	"github.com/gin-gonic/gin"
)

type PoemHandler struct {
	presenter *presenter.Presenter
	store     *session.Store
	timeout   time.Duration
}

func NewPoemHandler(p *presenter.Presenter, store *session.Store, timeout time.Duration) *PoemHandler {
	return &PoemHandler{
		presenter: p,
		store:     store,
		timeout:   timeout,
	}
}

// Stream runs one cycle and pushes every notice and render as a server-sent event
func (h *PoemHandler) Stream(c *gin.Context) {
	req, ok := bindPoemRequest(c)
	if !ok {
		return
	}
	sess := h.session(c)

	ctx, cancel := h.cycleContext(c)
	defer cancel()

	stream := &sseRenderer{c: c}
	outcome := h.presenter.Run(ctx, sess, toInput(req), stream)
	if errors.Is(outcome.Err, presenter.ErrCycleActive) && !stream.started {
		c.JSON(http.StatusConflict, gin.H{
			"error":      outcome.Err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return
	}

	logger.Info("Poem stream finished", withOutcome(logger.WithContext(c), outcome))
	_ = stream.send(models.StreamEvent{
		Type:      models.EventDone,
		State:     outcome.State.String(),
		RequestID: c.GetString("request_id"),
	})
}

// Create runs one cycle without pauses and returns the final state as JSON
func (h *PoemHandler) Create(c *gin.Context) {
	req, ok := bindPoemRequest(c)
	if !ok {
		return
	}
	sess := h.session(c)

	ctx, cancel := h.cycleContext(c)
	defer cancel()

	transcript := &presenter.Transcript{}
	outcome := h.presenter.WithoutPause().Run(ctx, sess, toInput(req), transcript)

	resp := models.PoemResponse{
		RequestID: c.GetString("request_id"),
		SessionID: sess.ID,
		State:     outcome.State,
		Text:      outcome.Text,
		Lines:     outcome.Lines,
		Renders:   outcome.Renders,
		Notices:   transcript.Notices(),
	}
	if resp.Lines == nil {
		resp.Lines = []string{}
	}
	if outcome.Err != nil {
		resp.Error = outcome.Err.Error()
	}
	if outcome.State == presenter.StateSucceeded {
		if html, err := render.PoemHTML(outcome.Text); err == nil {
			resp.HTML = html
		}
	}

	logger.Info("Poem request finished", withOutcome(logger.WithContext(c), outcome))
	c.JSON(statusForOutcome(outcome), resp)
}

// Current returns the reveal state of the caller's session
func (h *PoemHandler) Current(c *gin.Context) {
	snap := h.session(c).Snapshot()

	html := ""
	if snap.Text != "" {
		if rendered, err := render.PoemHTML(snap.Text); err == nil {
			html = rendered
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"session":    snap,
		"html":       html,
		"request_id": c.GetString("request_id"),
	})
}

func (h *PoemHandler) session(c *gin.Context) *presenter.Session {
	id, ok := middleware.GetSessionID(c)
	if !ok {
		// Without the session middleware every request is its own session
		id = c.GetString("request_id")
	}
	return h.store.GetOrCreate(id)
}

func (h *PoemHandler) cycleContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func bindPoemRequest(c *gin.Context) (models.PoemRequest, bool) {
	var req models.PoemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid request body: " + err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return req, false
	}
	return req, true
}

func toInput(req models.PoemRequest) presenter.Input {
	in := presenter.Input{
		SeedLine:    req.SeedLine,
		MaxTokens:   generator.DefaultMaxTokens,
		Temperature: generator.DefaultTemperature,
	}
	if req.MaxTokens != nil {
		in.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		in.Temperature = *req.Temperature
	}
	return in
}

func statusForOutcome(outcome presenter.Outcome) int {
	var validationErr *presenter.ValidationError
	var backendErr *generator.BackendError

	switch {
	case outcome.Err == nil:
		return http.StatusOK
	case errors.Is(outcome.Err, presenter.ErrCycleActive):
		return http.StatusConflict
	case errors.As(outcome.Err, &validationErr):
		return http.StatusBadRequest
	case errors.As(outcome.Err, &backendErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func withOutcome(fields logger.Fields, outcome presenter.Outcome) logger.Fields {
	fields["state"] = outcome.State.String()
	fields["lines"] = outcome.Renders
	if outcome.Err != nil {
		fields["error"] = outcome.Err.Error()
	}
	return fields
}

// sseRenderer writes presenter output as server-sent events.
// Headers go out with the first event so a rejected cycle can still answer with a plain status.
type sseRenderer struct {
	c       *gin.Context
	started bool
	line    int
}

func (s *sseRenderer) Render(_ context.Context, block string) error {
	s.line++
	html, err := render.PoemHTML(block)
	if err != nil {
		return fmt.Errorf("render poem html: %w", err)
	}
	return s.send(models.StreamEvent{
		Type: models.EventRender,
		Text: block,
		HTML: html,
		Line: s.line,
	})
}

func (s *sseRenderer) Notify(_ context.Context, notice presenter.Notice) error {
	return s.send(models.StreamEvent{Type: models.EventNotice, Notice: &notice})
}

func (s *sseRenderer) send(event models.StreamEvent) error {
	if !s.started {
		s.c.Header("Content-Type", "text/event-stream")
		s.c.Header("Cache-Control", "no-cache")
		s.c.Header("Connection", "keep-alive")
		s.c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
		s.c.Status(http.StatusOK)
		s.started = true
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.c.Writer, "data: %s\n\n", eventJSON); err != nil {
		return err
	}
	s.c.Writer.Flush()

	// A closed client connection ends the reveal
	if err := s.c.Request.Context().Err(); err != nil {
		return err
	}
	return nil
}
