package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/dnscache"

	restorehq "github.com/eugener/restorehq/internal"
	"github.com/eugener/restorehq/internal/area"
	"github.com/eugener/restorehq/internal/cache"
	"github.com/eugener/restorehq/internal/circuitbreaker"
	"github.com/eugener/restorehq/internal/config"
	"github.com/eugener/restorehq/internal/contact"
	"github.com/eugener/restorehq/internal/health"
	"github.com/eugener/restorehq/internal/notify"
	"github.com/eugener/restorehq/internal/ratelimit"
	"github.com/eugener/restorehq/internal/search"
	"github.com/eugener/restorehq/internal/server"
	"github.com/eugener/restorehq/internal/telemetry"
	"github.com/eugener/restorehq/internal/worker"
)

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	slog.Info("starting restorehq", "version", version, "addr", cfg.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Tracing
	if cfg.Telemetry.Tracing.Enabled {
		shutdownTracing, err := telemetry.SetupTracing(ctx, "restorehq", cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	// Metrics
	var (
		metrics        *telemetry.Metrics
		metricsHandler http.Handler
	)
	if cfg.Telemetry.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = telemetry.NewMetrics(reg)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// Service areas
	areas := area.NewRegistry()
	if err := config.Bootstrap(cfg, areas); err != nil {
		return err
	}

	// Search
	resultCache, err := cache.NewMemory(cfg.Cache.MaxSize, cfg.Cache.TTL)
	if err != nil {
		return err
	}
	searchSvc := search.New(resultCache, areas, cfg.Search.Services, cfg.Search.Articles, metrics)

	// Lead delivery
	resolver := &dnscache.Resolver{}
	templates := contact.Templates{
		Business:    cfg.Contact.Business,
		TeamEmail:   cfg.Contact.TeamEmail,
		Phone:       cfg.Contact.Phone,
		SubjectHint: cfg.Contact.SubjectHint,
	}
	var notifiers []restorehq.Notifier
	var probes []health.Probe
	if u := cfg.Notifiers.Leads; u.Enabled() {
		c := newNotifyClient("leads", u, notify.LeadInboxPayload(templates), resolver, metrics)
		notifiers = append(notifiers, c)
		probes = append(probes, c)
	}
	if u := cfg.Notifiers.CRM; u.Enabled() {
		c := newNotifyClient("crm", u, notify.CRMPayload, resolver, metrics)
		notifiers = append(notifiers, c)
		probes = append(probes, c)
	}
	if len(notifiers) == 0 {
		slog.Warn("no notifiers configured, leads will only be logged")
	}
	dispatcher := contact.NewDispatcher(metrics, notifiers...)

	// Background workers
	limiter := ratelimit.NewRegistry(cfg.Contact.RateLimitRPM)
	janitor := worker.NewJanitor(map[string]worker.Evictor{
		"ratelimit": limiter,
		"dnscache": worker.EvictorFunc(func(time.Time) int {
			resolver.Refresh(true)
			return 0
		}),
	})
	runner := worker.NewRunner(dispatcher, janitor)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	workerErr := make(chan error, 1)
	go func() { workerErr <- runner.Run(workerCtx) }()

	// Create HTTP server
	handler := server.New(server.Deps{
		Areas:          areas,
		Search:         searchSvc,
		Validator:      contact.NewValidator(areas, cfg.Search.Services),
		Leads:          dispatcher,
		RateLimiter:    limiter,
		Health:         health.NewChecker(cfg.Health.Timeout, probes...),
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		TrustProxy:     cfg.Server.TrustProxy,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("restorehq ready", "addr", cfg.Server.Addr, "areas", areas.Len(), "notifiers", len(notifiers))

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case runErr = <-errCh:
	case runErr = <-workerErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}

	// Stop workers only after the server so in-flight leads reach the queue.
	cancelWorkers()
	select {
	case err := <-workerErr:
		if err != nil && runErr == nil {
			runErr = err
		}
	case <-shutdownCtx.Done():
		slog.Warn("workers did not stop before shutdown timeout")
	}

	slog.Info("restorehq stopped")
	return runErr
}

func newNotifyClient(name string, u config.UpstreamConfig, payload notify.PayloadFunc, resolver *dnscache.Resolver, metrics *telemetry.Metrics) *notify.Client {
	auth := notify.Auth{
		APIKey:       u.Auth.APIKey,
		Header:       u.Auth.Header,
		Prefix:       u.Auth.Prefix,
		ClientID:     u.Auth.ClientID,
		ClientSecret: u.Auth.ClientSecret,
		TokenURL:     u.Auth.TokenURL,
		Scopes:       u.Auth.Scopes,
	}
	transport := auth.WrapTransport(notify.NewTransport(resolver, u.HTTP2))
	return notify.New(notify.Options{
		Name:       name,
		BaseURL:    u.BaseURL,
		Path:       u.Path,
		HealthPath: u.HealthPath,
		StatusPath: u.StatusPath,
		Expect:     u.Expect,
		Payload:    payload,
		HTTPClient: &http.Client{Transport: transport, Timeout: u.Timeout},
		Breaker: circuitbreaker.New(name, circuitbreaker.Config{
			FailureThreshold: u.Breaker.FailureThreshold,
			OpenTimeout:      u.Breaker.OpenTimeout,
		}),
		Metrics: metrics,
	})
}

func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
