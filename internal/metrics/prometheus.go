package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder reports service metrics using Prometheus primitives.
type PrometheusRecorder struct {
	requests    *prometheus.CounterVec
	generations *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	tokens      *prometheus.CounterVec
	reveals     *prometheus.CounterVec
	lines       prometheus.Histogram
}

func NewPrometheusRecorder(registry *prometheus.Registry) (*PrometheusRecorder, error) {
	if registry == nil {
		return nil, fmt.Errorf("prometheus registry is nil")
	}

	r := &PrometheusRecorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrohi_http_requests_total",
			Help: "Total HTTP requests by endpoint and status code",
		}, []string{"endpoint", "status"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrohi_generations_total",
			Help: "Total backend generation calls by provider and result",
		}, []string{"provider", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bidrohi_generation_duration_seconds",
			Help:    "Backend generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrohi_llm_tokens_total",
			Help: "Tokens consumed by model and direction",
		}, []string{"model", "direction"}),
		reveals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bidrohi_reveal_cycles_total",
			Help: "Completed generation cycles by terminal outcome",
		}, []string{"outcome"}),
		lines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bidrohi_revealed_lines",
			Help:    "Lines revealed per cycle",
			Buckets: prometheus.LinearBuckets(0, 4, 10),
		}),
	}

	for _, collector := range []prometheus.Collector{r.requests, r.generations, r.durations, r.tokens, r.reveals, r.lines} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) RecordAPIRequest(_ context.Context, endpoint string, statusCode int, _ time.Duration) {
	r.requests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

func (r *PrometheusRecorder) RecordGeneration(_ context.Context, provider, _ string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	r.generations.WithLabelValues(provider, result).Inc()
	r.durations.WithLabelValues(provider).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) RecordTokenUsage(_ context.Context, model string, inputTokens, outputTokens, _ int) {
	r.tokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	r.tokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}

func (r *PrometheusRecorder) RecordReveal(_ context.Context, outcome string, lines int) {
	r.reveals.WithLabelValues(outcome).Inc()
	r.lines.Observe(float64(lines))
}

// Handler exposes the registry in the Prometheus text format
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
