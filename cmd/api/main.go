package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/socialwatch/searchagent/internal/app"
	"github.com/socialwatch/searchagent/internal/config"
	"github.com/socialwatch/searchagent/internal/httpapi"
	"github.com/socialwatch/searchagent/internal/logger"
	"github.com/socialwatch/searchagent/internal/metrics"
	"github.com/socialwatch/searchagent/internal/server"
	"github.com/socialwatch/searchagent/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logr)

	baseCtx := context.Background()

	shutdownTracing, err := telemetry.Init(baseCtx, telemetry.Config{
		Enabled:        cfg.TracingEnabled,
		Endpoint:       cfg.TracingEndpoint,
		ServiceName:    "searchagent",
		ServiceVersion: version,
		Environment:    cfg.Env,
		SampleRate:     cfg.TracingSampleRate,
	})
	if err != nil {
		logr.Error("failed to init tracing", "err", err)
		os.Exit(1)
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.MetricsEnabled {
		recorder = metrics.NewPrometheusRecorder()
	}

	application, err := app.New(baseCtx, cfg, logr, recorder)
	if err != nil {
		logr.Error("failed to init application", "err", err)
		os.Exit(1)
	}

	srv := server.New(cfg, logr, recorder)
	httpapi.Version = version
	httpapi.Register(srv.Mux(), logr, application.Domain)

	go func() {
		if err := srv.Run(); err != nil {
			logr.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", "err", err)
		exitCode = 1
	}
	if err := shutdownTracing(ctx); err != nil {
		logr.Error("tracing shutdown failed", "err", err)
	}
	if err := application.Close(); err != nil {
		logr.Error("error closing application", "err", err)
	}
	cancel()
	os.Exit(exitCode)
}
