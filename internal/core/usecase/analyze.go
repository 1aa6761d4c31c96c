package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/core/ports"
	"github.com/rightsdesk/clipline/internal/taxonomy"
)

const textSeparator = "\n\n"

// AnalyzeSubmissionUseCase turns an accepted submission into zero or more
// classified, deduplicated analysis results. It fans out twice: once across
// files for text extraction, once across violation-flagged articles for
// classification and duplicate detection. Any collaborator failure fails the
// whole submission; partial result lists would silently under-report.
type AnalyzeSubmissionUseCase struct {
	repo       ports.SubmissionRepository
	storage    ports.ObjectStorage
	reports    ports.ReportStore
	ocr        ports.TextExtractor
	pdf        ports.PDFTextExtractor
	segmenter  ports.ArticleSegmenter
	classifier ports.ArticleClassifier
	duplicates ports.DuplicateDetector
	areas      *taxonomy.Lookup
	windowSize int
}

func NewAnalyzeSubmissionUseCase(
	repo ports.SubmissionRepository,
	storage ports.ObjectStorage,
	reports ports.ReportStore,
	ocr ports.TextExtractor,
	pdf ports.PDFTextExtractor,
	segmenter ports.ArticleSegmenter,
	classifier ports.ArticleClassifier,
	duplicates ports.DuplicateDetector,
	areas *taxonomy.Lookup,
	windowSize int,
) *AnalyzeSubmissionUseCase {
	if windowSize <= 0 {
		windowSize = 25
	}
	return &AnalyzeSubmissionUseCase{
		repo:       repo,
		storage:    storage,
		reports:    reports,
		ocr:        ocr,
		pdf:        pdf,
		segmenter:  segmenter,
		classifier: classifier,
		duplicates: duplicates,
		areas:      areas,
		windowSize: windowSize,
	}
}

func (uc *AnalyzeSubmissionUseCase) ProcessByID(ctx context.Context, submissionID string) error {
	if err := uc.repo.UpdateStatus(ctx, submissionID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	sub, err := uc.repo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("fetch submission by id: %w", err)
	}

	results, warnings, err := uc.pipeline(ctx, sub)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, submissionID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveResults(ctx, submissionID, results, warnings); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, submissionID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save analysis results: %w", err)
	}

	if err := uc.repo.UpdateStatus(ctx, submissionID, domain.StatusCompleted, ""); err != nil {
		return fmt.Errorf("set status=completed: %w", err)
	}
	return nil
}

func (uc *AnalyzeSubmissionUseCase) pipeline(
	ctx context.Context,
	sub *domain.Submission,
) ([]domain.AnalysisResult, []string, error) {
	combined, warnings, err := uc.assembleText(ctx, sub)
	if err != nil {
		return nil, nil, err
	}

	articles, err := uc.segment(ctx, combined)
	if err != nil {
		return nil, nil, err
	}

	flagged := filterViolations(articles)
	if len(flagged) == 0 {
		// No violation found: a valid, common outcome, not an error.
		return []domain.AnalysisResult{}, warnings, nil
	}

	window, err := uc.fetchRecentWindow(ctx)
	if err != nil {
		return nil, nil, err
	}

	results, err := uc.enrich(ctx, flagged, window)
	if err != nil {
		return nil, nil, err
	}
	return results, warnings, nil
}

// assembleText extracts text from every stored file concurrently and joins
// the non-empty results in file order, trimmed pasted text first. It is the
// cheap deterministic short-circuit: an empty assembly rejects the
// submission before any segmentation model is invoked.
func (uc *AnalyzeSubmissionUseCase) assembleText(
	ctx context.Context,
	sub *domain.Submission,
) (string, []string, error) {
	warnings := append([]string(nil), sub.Warnings...)

	texts := make([]string, len(sub.Files))
	fileWarnings := make([]string, len(sub.Files))
	errs := make([]error, len(sub.Files))

	var wg sync.WaitGroup
	for idx, file := range sub.Files {
		wg.Add(1)
		go func(idx int, file domain.ClippingFile) {
			defer wg.Done()
			texts[idx], fileWarnings[idx], errs[idx] = uc.extractFileText(ctx, file)
		}(idx, file)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return "", nil, err
	}

	parts := make([]string, 0, len(sub.Files)+1)
	if sub.Text != "" {
		parts = append(parts, sub.Text)
	}
	for idx := range sub.Files {
		if fileWarnings[idx] != "" {
			warnings = append(warnings, fileWarnings[idx])
		}
		if text := strings.TrimSpace(texts[idx]); text != "" {
			parts = append(parts, text)
		}
	}

	combined := strings.Join(parts, textSeparator)
	if combined == "" {
		return "", nil, domain.WrapError(
			domain.ErrInvalidInput,
			"assemble text",
			errors.New("no usable text in pasted input or uploaded files"),
		)
	}
	return combined, warnings, nil
}

func (uc *AnalyzeSubmissionUseCase) extractFileText(
	ctx context.Context,
	file domain.ClippingFile,
) (text string, warning string, err error) {
	reader, err := uc.storage.Open(ctx, file.StoragePath)
	if err != nil {
		return "", "", domain.WrapError(domain.ErrExtraction, "open stored file", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", "", domain.WrapError(domain.ErrExtraction, "read stored file", err)
	}

	switch file.MimeType {
	case mimePDF:
		text, err = uc.pdf.ExtractPDFText(ctx, data)
		if err != nil {
			return "", "", domain.WrapError(domain.ErrExtraction, "extract pdf text", err)
		}
	case mimeJPEG, mimePNG:
		dataURI := fmt.Sprintf("data:%s;base64,%s", file.MimeType, base64.StdEncoding.EncodeToString(data))
		text, err = uc.ocr.ExtractText(ctx, dataURI)
		if err != nil {
			return "", "", domain.WrapError(domain.ErrExtraction, "extract text from image", err)
		}
	default:
		// Intake screens file types; anything else here is a stale record.
		return "", fmt.Sprintf("%s: %s (stored as %q)", file.OriginalName, domain.ErrUnsupportedFile, file.MimeType), nil
	}
	return text, "", nil
}

func (uc *AnalyzeSubmissionUseCase) segment(ctx context.Context, text string) ([]domain.ExtractedArticle, error) {
	articles, err := uc.segmenter.Segment(ctx, text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "segment articles", err)
	}
	return articles, nil
}

func filterViolations(articles []domain.ExtractedArticle) []domain.ExtractedArticle {
	flagged := make([]domain.ExtractedArticle, 0, len(articles))
	for _, article := range articles {
		if article.ContainsViolation {
			flagged = append(flagged, article)
		}
	}
	return flagged
}

// fetchRecentWindow loads the duplicate window exactly once per submission
// so every article is judged against the same bounded snapshot.
func (uc *AnalyzeSubmissionUseCase) fetchRecentWindow(ctx context.Context) ([]domain.RecentReportRef, error) {
	window, err := uc.reports.RecentWindow(ctx, uc.windowSize)
	if err != nil {
		return nil, domain.WrapError(domain.ErrDuplicateCheck, "fetch recent reports window", err)
	}
	return window, nil
}

// enrich runs classification and duplicate detection for every flagged
// article. Articles proceed concurrently with each other and the two calls
// per article are themselves concurrent; the output preserves article order.
func (uc *AnalyzeSubmissionUseCase) enrich(
	ctx context.Context,
	articles []domain.ExtractedArticle,
	window []domain.RecentReportRef,
) ([]domain.AnalysisResult, error) {
	results := make([]domain.AnalysisResult, len(articles))
	errs := make([]error, len(articles))

	var wg sync.WaitGroup
	for idx, article := range articles {
		wg.Add(1)
		go func(idx int, article domain.ExtractedArticle) {
			defer wg.Done()
			results[idx], errs[idx] = uc.enrichArticle(ctx, article, window)
		}(idx, article)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func (uc *AnalyzeSubmissionUseCase) enrichArticle(
	ctx context.Context,
	article domain.ExtractedArticle,
	window []domain.RecentReportRef,
) (domain.AnalysisResult, error) {
	var (
		classification domain.Classification
		verdict        domain.DuplicateVerdict
		classifyErr    error
		detectErr      error
		wg             sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		classification, classifyErr = uc.classify(ctx, article.ExtractedArticleText)
	}()
	go func() {
		defer wg.Done()
		verdict, detectErr = uc.detectDuplicate(ctx, article.ExtractedArticleText, window)
	}()
	wg.Wait()

	if err := errors.Join(classifyErr, detectErr); err != nil {
		return domain.AnalysisResult{}, err
	}

	return domain.AnalysisResult{
		Summary:              article.Summary,
		ExtractedArticleText: article.ExtractedArticleText,
		ContainsViolation:    true,
		Category:             classification.Category,
		Confidence:           classification.Confidence,
		ThematicArea:         uc.areas.ThematicArea(classification.Category),
		IsDuplicate:          verdict.IsDuplicate,
		DuplicateReportID:    verdict.DuplicateReportID,
		Reasoning:            verdict.Reasoning,
	}, nil
}

func (uc *AnalyzeSubmissionUseCase) classify(ctx context.Context, text string) (domain.Classification, error) {
	classification, err := uc.classifier.Classify(ctx, text)
	if err != nil {
		return domain.Classification{}, domain.WrapError(domain.ErrClassification, "classify article", err)
	}
	// Never fabricate a confidence: an out-of-range value or a missing
	// category is an unusable result and fails the submission.
	if classification.Category == "" || classification.Confidence < 0 || classification.Confidence > 1 {
		return domain.Classification{}, domain.WrapError(
			domain.ErrClassification,
			"classify article",
			fmt.Errorf("unusable classification: category=%q confidence=%v", classification.Category, classification.Confidence),
		)
	}
	return classification, nil
}

func (uc *AnalyzeSubmissionUseCase) detectDuplicate(
	ctx context.Context,
	text string,
	window []domain.RecentReportRef,
) (domain.DuplicateVerdict, error) {
	verdict, err := uc.duplicates.Detect(ctx, text, window)
	if err != nil {
		return domain.DuplicateVerdict{}, domain.WrapError(domain.ErrDuplicateCheck, "detect duplicate", err)
	}
	if verdict.IsDuplicate && !windowContains(window, verdict.DuplicateReportID) {
		return domain.DuplicateVerdict{}, domain.WrapError(
			domain.ErrDuplicateCheck,
			"detect duplicate",
			fmt.Errorf("verdict references report %q outside the recent window", verdict.DuplicateReportID),
		)
	}
	return verdict, nil
}

func windowContains(window []domain.RecentReportRef, id string) bool {
	if id == "" {
		return false
	}
	for _, ref := range window {
		if ref.ID == id {
			return true
		}
	}
	return false
}
