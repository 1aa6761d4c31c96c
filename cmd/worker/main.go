package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rightsdesk/clipline/internal/bootstrap"
	"github.com/rightsdesk/clipline/internal/config"
	"github.com/rightsdesk/clipline/internal/observability/logging"
	"github.com/rightsdesk/clipline/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("clipline-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
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

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeSubmissionAccepted(ctx, func(handlerCtx context.Context, submissionID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()

		workerMetrics.StartSubmission()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, submissionID)
		workerMetrics.FinishSubmission("worker", time.Since(start), processErr)

		if sub, getErr := app.Submissions.GetByID(processCtx, submissionID); getErr == nil {
			workerMetrics.ObserveQueueLag("worker", start.Sub(sub.CreatedAt))
			if processErr == nil {
				duplicates := 0
				for _, result := range sub.Results {
					if result.IsDuplicate {
						duplicates++
					}
				}
				workerMetrics.ObserveArticles("worker", len(sub.Results), duplicates)
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
