package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/core/ports"
)

const titleMaxRunes = 50

// ReportUseCase saves user-confirmed analysis results as reports and reads
// them back. A save always generates a fresh id, so a retried save creates a
// new document rather than corrupting an existing one.
type ReportUseCase struct {
	store      ports.ReportStore
	sources    ports.SourceStore
	windowSize int
}

func NewReportUseCase(store ports.ReportStore, sources ports.SourceStore, windowSize int) *ReportUseCase {
	if windowSize <= 0 {
		windowSize = 25
	}
	return &ReportUseCase{
		store:      store,
		sources:    sources,
		windowSize: windowSize,
	}
}

func (uc *ReportUseCase) Save(ctx context.Context, sourceID string, result domain.AnalysisResult) (*domain.Report, error) {
	if sourceID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save report", errors.New("source is required"))
	}
	if result.Summary == "" || result.ExtractedArticleText == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save report", errors.New("summary and extracted article text are required"))
	}

	if _, err := uc.sources.GetByID(ctx, sourceID); err != nil {
		if domain.IsKind(err, domain.ErrSourceNotFound) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "save report", err)
		}
		return nil, fmt.Errorf("look up source: %w", err)
	}

	now := time.Now().UTC()
	report := &domain.Report{
		ID:                uuid.NewString(),
		Title:             titleFromSummary(result.Summary),
		SourceID:          sourceID,
		Category:          result.Category,
		Confidence:        result.Confidence,
		Summary:           result.Summary,
		ThematicArea:      result.ThematicArea,
		Content:           result.ExtractedArticleText,
		IsDuplicate:       result.IsDuplicate,
		DuplicateReportID: result.DuplicateReportID,
		PublicationDate:   now,
		UploadDate:        now,
	}

	if err := uc.store.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return report, nil
}

func (uc *ReportUseCase) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	return uc.store.GetByID(ctx, id)
}

func (uc *ReportUseCase) Delete(ctx context.Context, id string) error {
	return uc.store.Delete(ctx, id)
}

func (uc *ReportUseCase) Recent(ctx context.Context) ([]domain.RecentReportRef, error) {
	window, err := uc.store.RecentWindow(ctx, uc.windowSize)
	if err != nil {
		return nil, fmt.Errorf("fetch recent reports: %w", err)
	}
	return window, nil
}

func titleFromSummary(summary string) string {
	runes := []rune(summary)
	if len(runes) <= titleMaxRunes {
		return summary
	}
	return string(runes[:titleMaxRunes]) + "..."
}
