package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/leadform/cmd/mainconfig"
	"github.com/wolfman30/leadform/internal/api/router"
	"github.com/wolfman30/leadform/internal/app/bootstrap"
	"github.com/wolfman30/leadform/internal/clock"
	appconfig "github.com/wolfman30/leadform/internal/config"
	"github.com/wolfman30/leadform/internal/form"
	httpmiddleware "github.com/wolfman30/leadform/internal/http/middleware"
	"github.com/wolfman30/leadform/internal/leads"
	"github.com/wolfman30/leadform/internal/observability/metrics"
	"github.com/wolfman30/leadform/internal/tracking"
	"github.com/wolfman30/leadform/internal/webform"
	"github.com/wolfman30/leadform/pkg/logging"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadform server",
		"env", cfg.Env,
		"port", cfg.Port,
		"storage_backend", cfg.StorageBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the form metrics plus the runtime collectors on a
// private registry.
func setupMetrics() (http.Handler, *metrics.FormMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewFormMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func formOptions(cfg *appconfig.Config) form.Options {
	opts := form.DefaultOptions()
	opts.BannerTTL = cfg.BannerTTL
	opts.CTAFocusDelay = cfg.CTAFocusDelay
	opts.RevealRatio = cfg.RevealRatio
	if len(cfg.RequiredFields) > 0 {
		opts.RequiredFields = cfg.RequiredFields
	}
	return opts
}

// buildServer wires storage, tracking and both transports. The returned
// cleanup releases backend connections.
func buildServer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*http.Server, func(), error) {
	var awsCfg aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = loaded
	}

	backend, err := bootstrap.BuildStorage(ctx, cfg, awsCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	metricsHandler, formMetrics := setupMetrics()
	store := leads.NewStore(backend.Backend, cfg.StorageKey, logger, formMetrics)
	store.LogCount(ctx)

	// conversions leave the UI loop through the dispatcher; it outlives the
	// signal context so sessions draining during shutdown still deliver
	dispatcher := tracking.NewDispatcher(bootstrap.BuildTracker(cfg, awsCfg, logger, formMetrics),
		cfg.TrackingBuffer, cfg.TrackingTimeout, logger)
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	go func() { _ = dispatcher.Run(dispatchCtx) }()
	cleanup := func() {
		stopDispatch()
		<-dispatcher.Done()
		backend.Close()
	}

	opts := formOptions(cfg)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	handler := router.New(&router.Config{
		Logger:       logger,
		LeadsHandler: leads.NewHandler(store, dispatcher, opts.RequiredFields, logger),
		FormHandler: webform.NewHandler(webform.Config{
			Store:         store,
			Tracker:       dispatcher,
			Clock:         clock.Real(),
			SubmitLatency: cfg.SubmitLatency,
			Options:       opts,
			Logger:        logger,
			Metrics:       formMetrics,
			CheckOrigin:   httpmiddleware.OriginChecker(cfg.CORSAllowedOrigins),
		}),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Ready:              backend.Ready,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, cleanup, nil
}
