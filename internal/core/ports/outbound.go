package ports

import (
	"context"
	"io"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

// SubmissionRepository persists submission state across the intake pipeline.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error
	SaveResults(ctx context.Context, id string, results []domain.AnalysisResult, warnings []string) error
}

// ReportStore is the external document store: insert-one, find, delete,
// plus the bounded recent-reports window for duplicate detection.
type ReportStore interface {
	Insert(ctx context.Context, report *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
	RecentWindow(ctx context.Context, limit int) ([]domain.RecentReportRef, error)
}

// SourceStore manages the registered news sources.
type SourceStore interface {
	List(ctx context.Context) ([]domain.Source, error)
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	Create(ctx context.Context, source *domain.Source) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage stores raw clipping files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes submission-accepted events.
type MessageQueue interface {
	PublishSubmissionAccepted(ctx context.Context, submissionID string) error
	SubscribeSubmissionAccepted(ctx context.Context, handler func(context.Context, string) error) error
}

// ImageNormalizer auto-crops a photographed clipping to its content region.
// It never fails: problem inputs pass through uncropped.
type ImageNormalizer interface {
	Normalize(data []byte, fileName string) domain.NormalizedImage
}

// TextExtractor is the OCR collaborator. Input is a self-describing
// data URI (data:<mime>;base64,<bytes>).
type TextExtractor interface {
	ExtractText(ctx context.Context, imageDataURI string) (string, error)
}

// PDFTextExtractor pulls embedded text out of an uploaded PDF.
type PDFTextExtractor interface {
	ExtractPDFText(ctx context.Context, data []byte) (string, error)
}

// ArticleSegmenter splits combined clipping text into candidate articles.
// It returns an empty slice, not an error, when nothing relevant is found.
type ArticleSegmenter interface {
	Segment(ctx context.Context, text string) ([]domain.ExtractedArticle, error)
}

// ArticleClassifier assigns a category label and confidence to one article.
type ArticleClassifier interface {
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// DuplicateDetector compares a new article against the recent-reports
// window. An empty window must yield IsDuplicate=false without a model call.
type DuplicateDetector interface {
	Detect(ctx context.Context, articleText string, recent []domain.RecentReportRef) (domain.DuplicateVerdict, error)
}
