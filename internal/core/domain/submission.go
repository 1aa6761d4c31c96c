package domain

import "time"

type SubmissionStatus string

const (
	StatusAccepted   SubmissionStatus = "accepted"
	StatusProcessing SubmissionStatus = "processing"
	StatusCompleted  SubmissionStatus = "completed"
	StatusFailed     SubmissionStatus = "failed"
)

// ClippingFile is the metadata of one uploaded file within a submission.
// Images are auto-cropped at intake; StoragePath points at the bytes that
// will actually be fed to text extraction.
type ClippingFile struct {
	OriginalName string `json:"original_name"`
	StoredName   string `json:"stored_name"`
	MimeType     string `json:"mime_type"`
	StoragePath  string `json:"storage_path"`
	SizeBytes    int64  `json:"size_bytes"`
	WasCropped   bool   `json:"was_cropped"`
}

// Submission is one clipping intake: pasted text and/or uploaded files,
// plus the pipeline outcome once the worker has run.
type Submission struct {
	ID        string           `json:"id"`
	Text      string           `json:"text,omitempty"`
	Files     []ClippingFile   `json:"files"`
	Status    SubmissionStatus `json:"status"`
	Warnings  []string         `json:"warnings,omitempty"`
	Results   []AnalysisResult `json:"results,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
