package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/api"
	apimiddleware "github.com/Conceptual-Machines/bidrohi/internal/api/middleware"
	"github.com/Conceptual-Machines/bidrohi/internal/app"
	"github.com/Conceptual-Machines/bidrohi/internal/config"
	"github.com/Conceptual-Machines/bidrohi/internal/metrics"
	"github.com/Conceptual-Machines/bidrohi/internal/observability"
	"github.com/Conceptual-Machines/bidrohi/internal/session"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	sentryFlushTimeout = 2 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// A missing credential halts the process before anything is served
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ %v", err)
	}

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "bidrohi@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics: Prometheus always, Sentry spans, CloudWatch when enabled
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promRecorder, err := metrics.NewPrometheusRecorder(registry)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	recorder := metrics.NewMultiRecorder(
		promRecorder,
		metrics.NewSentryMetrics(),
		metrics.NewCloudWatchClient(ctx, cfg.Environment, cfg.CloudWatchEnabled),
	)

	langfuse := observability.NewLangfuseClient(ctx, cfg)

	core, err := app.BuildCore(ctx, cfg, recorder, langfuse)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("❌ %v", err)
	}
	log.Printf("✍️  Backend: %s (model: %s, reveal interval: %s)", core.Provider.Name(), core.Model, cfg.RevealInterval)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.Dependencies{
		Config:      cfg,
		Presenter:   core.Presenter,
		Sessions:    session.NewStore(cfg.SessionCacheSize, cfg.SessionTTL),
		CookieStore: apimiddleware.NewCookieStore(cfg.SessionSecret, int(cfg.SessionTTL.Seconds()), cfg.IsProduction()),
		Recorder:    recorder,
		Registry:    registry,
		Provider:    core.Provider.Name(),
		Model:       core.Model,
		Version:     GetVersion(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Starting server on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
