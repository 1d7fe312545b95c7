package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apimiddleware "github.com/Conceptual-Machines/bidrohi/internal/api/middleware"
	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/generator"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
	"github.com/Conceptual-Machines/bidrohi/internal/models"
	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/Conceptual-Machines/bidrohi/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banglaPoem = "বল বীর-\nবল উন্নত মম শির!\n\nসেই স্তর শির নেহারি আমারি,\n"

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, req generator.GenerationRequest) generator.Result
}

func (f *fakeGenerator) Generate(ctx context.Context, req generator.GenerationRequest) generator.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(ctx, req)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func textGenerator(text string) *fakeGenerator {
	return &fakeGenerator{fn: func(context.Context, generator.GenerationRequest) generator.Result {
		return generator.Result{Text: text}
	}}
}

type testServer struct {
	router   *gin.Engine
	sessions *session.Store
	pauses   *int
}

func newTestServer(t *testing.T, gen presenter.Generator) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pauses := 0
	registry := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheusRecorder(registry)
	require.NoError(t, err)
	recorder := metrics.NewMultiRecorder(prom)

	p := presenter.NewPresenter(gen,
		presenter.WithPauser(presenter.PauseFunc(func(time.Duration) { pauses++ })),
		presenter.WithRecorder(recorder),
	)
	store := session.NewStore(16, time.Minute)

	router := SetupRouter(Dependencies{
		Config: &config.Config{
			GenerationTimeout: 5 * time.Second,
			AttributionName:   "Test Poet",
			AttributionURL:    "https://example.com",
		},
		Presenter:   p,
		Sessions:    store,
		CookieStore: apimiddleware.NewCookieStore("0123456789abcdef0123456789abcdef", 3600, false),
		Recorder:    recorder,
		Registry:    registry,
		Provider:    "gemini",
		Model:       "gemini-2.5-flash",
		Version:     "test",
	})
	return &testServer{router: router, sessions: store, pauses: &pauses}
}

func (s *testServer) do(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodePoem(t *testing.T, w *httptest.ResponseRecorder) models.PoemResponse {
	t.Helper()
	var resp models.PoemResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func readEvents(t *testing.T, body string) []models.StreamEvent {
	t.Helper()
	var events []models.StreamEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev models.StreamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestCreatePoem(t *testing.T) {
	gen := textGenerator(banglaPoem)
	srv := newTestServer(t, gen)

	w := srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"বল বীর, বল উন্নত মম শির!"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodePoem(t, w)
	assert.Equal(t, presenter.StateSucceeded, resp.State)
	assert.Equal(t, "বল বীর-\nবল উন্নত মম শির!\nসেই স্তর শির নেহারি আমারি,\n", resp.Text)
	assert.Equal(t, 3, resp.Renders)
	assert.Len(t, resp.Lines, 3)
	assert.Contains(t, resp.HTML, "<pre><code>")
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 0, *srv.pauses, "JSON endpoint reveals without pausing")

	require.Len(t, resp.Notices, 2)
	assert.Equal(t, presenter.NoticeSuccess, resp.Notices[1].Kind)
}

func TestCreatePoemEmptySeed(t *testing.T) {
	gen := textGenerator("unused")
	srv := newTestServer(t, gen)

	w := srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"   "}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodePoem(t, w)
	assert.Equal(t, presenter.StateFailed, resp.State)
	assert.Equal(t, []presenter.Notice{{Kind: presenter.NoticeError, Message: presenter.MessageEmptySeed}}, resp.Notices)
	assert.Equal(t, 0, gen.callCount())
}

func TestCreatePoemBackendError(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, generator.GenerationRequest) generator.Result {
		return generator.Result{Err: &generator.BackendError{Provider: "gemini", Err: errors.New("API key not valid")}}
	}}
	srv := newTestServer(t, gen)

	w := srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x"}`, nil)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodePoem(t, w)
	assert.Equal(t, presenter.StateFailed, resp.State)
	assert.Empty(t, resp.Text)
	assert.Empty(t, resp.Lines)
	assert.Equal(t, "API key not valid", resp.Error)
	assert.Equal(t, "API Error: API key not valid", resp.Notices[1].Detail)
}

func TestCreatePoemKnobs(t *testing.T) {
	var got generator.GenerationRequest
	gen := &fakeGenerator{fn: func(_ context.Context, req generator.GenerationRequest) generator.Result {
		got = req
		return generator.Result{Text: "line"}
	}}
	srv := newTestServer(t, gen)

	srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x"}`, nil)
	assert.Equal(t, 300, got.MaxTokens)
	assert.Equal(t, 0.8, got.Temperature)

	srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x","max_tokens":800,"temperature":-1}`, nil)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, 0.0, got.Temperature)

	srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x","max_tokens":150,"temperature":0.25}`, nil)
	assert.Equal(t, 150, got.MaxTokens)
	assert.Equal(t, 0.25, got.Temperature)
}

func TestCreatePoemInvalidBody(t *testing.T) {
	srv := newTestServer(t, textGenerator("unused"))

	w := srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestStreamPoem(t *testing.T) {
	srv := newTestServer(t, textGenerator(banglaPoem))

	w := srv.do(http.MethodPost, "/api/v1/poems/stream", `{"seed_line":"বল বীর, বল উন্নত মম শির!"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := readEvents(t, w.Body.String())
	var types []string
	var renders []string
	for _, ev := range events {
		types = append(types, ev.Type)
		if ev.Type == models.EventRender {
			renders = append(renders, ev.Text)
			assert.Contains(t, ev.HTML, "<pre><code>")
		}
	}
	assert.Equal(t, []string{"notice", "render", "render", "render", "notice", "done"}, types)
	assert.Equal(t, []string{
		"বল বীর-\n",
		"বল বীর-\nবল উন্নত মম শির!\n",
		"বল বীর-\nবল উন্নত মম শির!\nসেই স্তর শির নেহারি আমারি,\n",
	}, renders)
	assert.Equal(t, presenter.MessagePending, events[0].Notice.Message)
	assert.Equal(t, presenter.MessageComplete, events[4].Notice.Message)
	assert.Equal(t, "succeeded", events[5].State)
	assert.Equal(t, 3, *srv.pauses)
}

func TestStreamPoemEmptySeed(t *testing.T) {
	gen := textGenerator("unused")
	srv := newTestServer(t, gen)

	w := srv.do(http.MethodPost, "/api/v1/poems/stream", `{"seed_line":""}`, nil)

	events := readEvents(t, w.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, presenter.NoticeError, events[0].Notice.Kind)
	assert.Equal(t, presenter.MessageEmptySeed, events[0].Notice.Message)
	assert.Equal(t, "failed", events[1].State)
	assert.Equal(t, 0, gen.callCount())
}

func TestSessionCookieKeepsPoem(t *testing.T) {
	srv := newTestServer(t, textGenerator("এক\nদুই"))

	first := srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x"}`, nil)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	w := srv.do(http.MethodGet, "/api/v1/poems/current", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Session presenter.Snapshot `json:"session"`
		HTML    string             `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "এক\nদুই\n", body.Session.Text)
	assert.Equal(t, decodePoem(t, first).SessionID, body.Session.ID)
	assert.Contains(t, body.HTML, "এক")

	// A different client does not see it
	other := srv.do(http.MethodGet, "/api/v1/poems/current", "", nil)
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &body))
	assert.Empty(t, body.Session.Text)
}

func TestConcurrentCycleOnSameSession(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	gen := &fakeGenerator{fn: func(context.Context, generator.GenerationRequest) generator.Result {
		once.Do(func() { close(started) })
		<-release
		return generator.Result{Text: "line"}
	}}
	srv := newTestServer(t, gen)

	// Obtain a session cookie first
	first := srv.do(http.MethodGet, "/api/v1/poems/current", "", nil)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x"}`, cookies)
	}()
	<-started

	conflict := srv.do(http.MethodPost, "/api/v1/poems/stream", `{"seed_line":"y"}`, cookies)
	assert.Equal(t, http.StatusConflict, conflict.Code)

	close(release)
	assert.Equal(t, http.StatusOK, (<-done).Code)
	assert.Equal(t, 1, gen.callCount())
}

func TestHomePage(t *testing.T) {
	srv := newTestServer(t, textGenerator("unused"))

	w := srv.do(http.MethodGet, "/", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "বিদ্রোহী AI")
	assert.Contains(t, body, "Create Poems like Kazi Nazrul Islam")
	assert.Contains(t, body, `min="100" max="500" step="1" value="300"`)
	assert.Contains(t, body, `value="0.80"`)
	assert.Contains(t, body, "Generate Poem")
	assert.Contains(t, body, "Test Poet")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, textGenerator("a\nb"))
	srv.do(http.MethodPost, "/api/v1/poems", `{"seed_line":"x"}`, nil)

	health := srv.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"provider":"gemini"`)
	assert.Contains(t, health.Body.String(), `"sessions":1`)

	runtime := srv.do(http.MethodGet, "/api/metrics", "", nil)
	require.Equal(t, http.StatusOK, runtime.Code)
	assert.Contains(t, runtime.Body.String(), `"reveal_interval_ms":500`)

	prom := srv.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, prom.Code)
	assert.Contains(t, prom.Body.String(), `bidrohi_http_requests_total{endpoint="/api/v1/poems",status="200"} 1`)
	assert.Contains(t, prom.Body.String(), `bidrohi_reveal_cycles_total{outcome="succeeded"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, textGenerator("unused"))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/poems", nil)
	req.Header.Set("Origin", "https://poems.example")
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://poems.example", w.Header().Get("Access-Control-Allow-Origin"))
}
