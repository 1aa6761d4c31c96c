package ports

import (
	"context"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

// ClippingUpload is one file as received from the transport layer.
type ClippingUpload struct {
	Filename string
	Data     []byte
}

// ClippingIngestor is the inbound contract for accepting a submission.
type ClippingIngestor interface {
	Submit(ctx context.Context, pastedText string, files []ClippingUpload) (*domain.Submission, error)
}

// SubmissionProcessor runs the analysis pipeline for an accepted submission.
type SubmissionProcessor interface {
	ProcessByID(ctx context.Context, submissionID string) error
}

// SubmissionReader is the inbound read model for submission state.
type SubmissionReader interface {
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
}

// ReportService saves a confirmed analysis result and reads reports back.
type ReportService interface {
	Save(ctx context.Context, sourceID string, result domain.AnalysisResult) (*domain.Report, error)
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
	Recent(ctx context.Context) ([]domain.RecentReportRef, error)
}
