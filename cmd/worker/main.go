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

	"github.com/verisource/verisource/internal/bootstrap"
	"github.com/verisource/verisource/internal/config"
	"github.com/verisource/verisource/internal/observability/logging"
	"github.com/verisource/verisource/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server failed", "error", err)
		}
	}()

	runTimeout := time.Duration(cfg.WorkerRunTimeoutSecs) * time.Second

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSubmissionReceived(ctx, func(handlerCtx context.Context, submissionID string) error {
		if sub, err := app.Submissions.GetByID(handlerCtx, submissionID); err == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(sub.CreatedAt))
		}

		workerMetrics.StartSubmission()
		start := time.Now()

		runCtx, cancel := context.WithTimeout(handlerCtx, runTimeout)
		defer cancel()

		processErr := app.ProcessUC.ProcessByID(runCtx, submissionID)
		workerMetrics.FinishSubmission("worker", time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		slog.Error("subscription terminated", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("worker metrics shutdown failed", "error", err)
	}
}
