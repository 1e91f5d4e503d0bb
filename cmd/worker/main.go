package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ScriptSmith/hadrian-sub004/internal/bootstrap"
	"github.com/ScriptSmith/hadrian-sub004/internal/config"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/observability/logging"
	"github.com/ScriptSmith/hadrian-sub004/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.ServiceName+"-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(cfg.ServiceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeFileIngested(ctx, func(handlerCtx context.Context, event domain.FileIngestedEvent) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if !event.PublishedAt.IsZero() {
			workerMetrics.ObserveQueueLag(cfg.ServiceName, time.Since(event.PublishedAt))
		}

		workerMetrics.StartFile()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, event.FileID)
		workerMetrics.FinishFile(cfg.ServiceName, time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
