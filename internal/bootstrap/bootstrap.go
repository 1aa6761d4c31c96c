// Package bootstrap wires configuration, infrastructure, and usecases into
// a runnable application graph shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rightsdesk/clipline/internal/config"
	"github.com/rightsdesk/clipline/internal/core/ports"
	"github.com/rightsdesk/clipline/internal/core/usecase"
	"github.com/rightsdesk/clipline/internal/infrastructure/extractor/pdftext"
	"github.com/rightsdesk/clipline/internal/infrastructure/imaging"
	"github.com/rightsdesk/clipline/internal/infrastructure/llm/ollama"
	"github.com/rightsdesk/clipline/internal/infrastructure/queue/nats"
	"github.com/rightsdesk/clipline/internal/infrastructure/repository/postgres"
	"github.com/rightsdesk/clipline/internal/infrastructure/resilience"
	"github.com/rightsdesk/clipline/internal/infrastructure/storage/localfs"
	"github.com/rightsdesk/clipline/internal/taxonomy"
)

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Submissions ports.SubmissionRepository
	Sources     ports.SourceStore

	SubmitUC  ports.ClippingIngestor
	ProcessUC ports.SubmissionProcessor
	ReportUC  ports.ReportService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	submissionRepo := postgres.NewSubmissionRepository(db)
	if err := submissionRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure submission schema: %w", err)
	}
	reportRepo := postgres.NewReportRepository(db)
	if err := reportRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure report schema: %w", err)
	}
	sourceRepo := postgres.NewSourceRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	areas, err := taxonomy.Load()
	if err != nil {
		return nil, fmt.Errorf("load thematic areas: %w", err)
	}

	// Model collaborators run single-attempt: a failed analysis fails the
	// submission and the user resubmits.
	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaVisionModel, ollama.Options{
		Timeout:  cfg.CollaboratorTimeout,
		Executor: resilience.NewExecutor(resilience.SingleAttemptConfig()),
	})
	extractor := ollama.NewExtractor(ollamaClient)
	segmenter := ollama.NewSegmenter(ollamaClient)
	classifier := ollama.NewClassifier(ollamaClient, areas.Categories())
	duplicateChecker := ollama.NewDuplicateChecker(ollamaClient)

	normalizer := imaging.NewNormalizer(imaging.Config{
		LuminanceThreshold: cfg.AutocropLuminanceThreshold,
		MinAreaReduction:   cfg.AutocropMinAreaReduction,
		MaxSamplesPerAxis:  cfg.AutocropMaxSamplesPerAxis,
	})
	pdfExtractor := pdftext.NewExtractor()

	submitUC := usecase.NewSubmitClippingUseCase(submissionRepo, storage, queue, normalizer, cfg.MaxFilesPerSubmission)
	processUC := usecase.NewAnalyzeSubmissionUseCase(
		submissionRepo,
		storage,
		reportRepo,
		extractor,
		pdfExtractor,
		segmenter,
		classifier,
		duplicateChecker,
		areas,
		cfg.RecentReportsWindow,
	)
	reportUC := usecase.NewReportUseCase(reportRepo, sourceRepo, cfg.RecentReportsWindow)

	return &App{
		Config: cfg,

		Queue:       queue,
		Submissions: submissionRepo,
		Sources:     sourceRepo,

		SubmitUC:  submitUC,
		ProcessUC: processUC,
		ReportUC:  reportUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
