package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/go-ai-trip-planner/app/logger"
	"github.com/FACorreiaa/go-ai-trip-planner/app/tracer"
	"github.com/FACorreiaa/go-ai-trip-planner/config"
	_ "github.com/FACorreiaa/go-ai-trip-planner/docs"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/container"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/router"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	telemetry, err := tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port, logger)
	if err != nil {
		return err
	}

	c, err := container.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}
	defer c.Close()

	mainRouter := router.SetupRouter(&router.Config{
		AuthHandler:         c.AuthHandler,
		TripHandler:         c.TripHandler,
		EnrichmentHandler:   c.EnrichmentHandler,
		DestinationsHandler: c.DestinationsHandler,
		Tokens:              c.Tokens,
		Sessions:            c.Sessions,
		Logger:              logger,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		GenerateRateLimit:   cfg.Generation.RateLimit,
	})

	timeout := cfg.Server.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", mainRouter)

	port := cfg.Server.HTTPPort
	if port == "" {
		port = cfg.Handlers.ExternalAPI.Port
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	pprofSrv := startPprof(cfg, logger)

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr), slog.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	}
	if pprofSrv != nil {
		_ = pprofSrv.Shutdown(shutdownCtx)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
	}
	logger.Info("Application shut down complete")
	return nil
}

// startPprof serves the profiling endpoints on their own port, if configured.
func startPprof(cfg *config.Config, logger *slog.Logger) *http.Server {
	port := cfg.Handlers.Pprof.Port
	if port == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("pprof server stopped", slog.Any("error", err))
		}
	}()
	return srv
}
