package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solo-persona/backend/pkg/config"
	"solo-persona/backend/pkg/di"
	"solo-persona/backend/pkg/logger"
	"solo-persona/backend/pkg/router"
	"solo-persona/backend/shared/observability"

	"github.com/prometheus/client_golang/prometheus"
)

const serviceName = "solo-persona"

func main() {
	// Loads .env when present
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	version := os.Getenv("APP_VERSION")
	log.Info("Starting application", "version", version, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := observability.Resource(serviceName, version)
	if err != nil {
		log.LogError(err, "Failed to build telemetry resource")
	}
	mp, err := observability.SetupMetrics(res, prometheus.DefaultRegisterer)
	if err != nil {
		log.LogError(err, "Failed to initialize metrics")
		os.Exit(1)
	}
	defer mp.Shutdown(context.Background())

	if cfg.Observability.TracingEnabled {
		shutdownTracing, err := observability.SetupTracing(res, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
		defer shutdownTracing(context.Background())
	}

	container, err := di.New(ctx, cfg, log, di.Generators{})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()
	container.Start(ctx)

	r := router.New(container)
	if err := r.AddOpenAPIValidation(cfg.Observability.OpenAPISchemaPath); err != nil {
		log.LogError(err, "Failed to enable OpenAPI validation")
		os.Exit(1)
	}
	r.SetupRoutes()
	defer r.Close()

	if cfg.Observability.OpenAPISchemaPath != "" {
		go reloadOnHangup(ctx, r, log)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}

// reloadOnHangup re-reads the OpenAPI schema file on every SIGHUP.
func reloadOnHangup(ctx context.Context, r *router.Router, log *logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := r.ReloadOpenAPI(); err != nil {
				log.LogError(err, "Failed to reload OpenAPI schema")
			}
		}
	}
}
