package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/builtin"
	"github.com/gyaneshwarpardhi/logreplay/internal/api"
	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/engine"
	"github.com/gyaneshwarpardhi/logreplay/internal/log"
	"github.com/gyaneshwarpardhi/logreplay/internal/telemetry"
)

var version = "dev"

func main() {
	env, err := config.LoadServerEnv()
	if err != nil {
		base := log.Base()
		base.Fatal().Err(err).Msg("invalid environment")
	}
	log.Configure(log.Config{Level: env.LogLevel, Service: "logreplay"})
	logger := log.WithComponent("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(env.ConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Str(log.FieldPath, env.ConfigPath).Msg("failed to load config")
	}
	cfg := loader.Config()

	// ── Modules and engine ───────────────────────────────────────────────────
	reg := builtin.Registry()
	if err := config.CheckTypes(cfg, reg.Has); err != nil {
		logger.Fatal().Err(err).Msg("config references unknown modules")
	}
	logger.Info().
		Str(log.FieldVersion, cfg.Version).
		Int("builds", len(cfg.Builds)).
		Strs("module_types", reg.Types()).
		Msg("config loaded")

	// ── Tracing ──────────────────────────────────────────────────────────────
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Exporter:      env.TraceExporter,
		Endpoint:      env.TraceEndpoint,
		SampleRate:    env.TraceSampleRate,
		Version:       version,
		ConfigVersion: cfg.Version,
		ModuleTypes:   reg.Types(),
		Workers:       cfg.Engine.Workers,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start tracing")
	}
	if env.TracingEnabled() {
		logger.Info().Str("exporter", env.TraceExporter).Str("endpoint", env.TraceEndpoint).Msg("tracing enabled")
	}

	svc := engine.NewService(ctx, engine.New(reg), cfg)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.BuildConfig) {
		if err := svc.ApplyConfig(newCfg); err != nil {
			logger.Warn().Err(err).Msg("hot-reload skipped: config invalid")
		}
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		logger.Warn().Err(err).Msg("config watcher unavailable (hot-reload disabled)")
	} else {
		defer stopWatch()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         env.Addr,
		Handler:      api.New(svc, loader, api.Options{RateLimit: env.RateLimit}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.Engine.ParseTimeoutMs)*time.Millisecond + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", env.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	svc.Shutdown()
	cancel()
	if err := provider.Shutdown(shutCtx); err != nil {
		logger.Warn().Err(err).Msg("tracer shutdown")
	}
	logger.Info().Msg("goodbye")
}
