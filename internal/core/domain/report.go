package domain

import "time"

// Report is a persisted, user-confirmed analysis of one clipping article.
type Report struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	SourceID          string    `json:"source_id"`
	Category          string    `json:"category"`
	Confidence        float64   `json:"confidence"`
	Summary           string    `json:"summary"`
	ThematicArea      string    `json:"thematic_area"`
	Content           string    `json:"content"`
	IsDuplicate       bool      `json:"is_duplicate"`
	DuplicateReportID string    `json:"duplicate_report_id,omitempty"`
	PublicationDate   time.Time `json:"publication_date"`
	UploadDate        time.Time `json:"upload_date"`
}

// RecentReportRef is the projection of a stored report handed to the
// duplicate detector. The window is newest-first by upload date.
type RecentReportRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Source is a registered news source a report is attributed to.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
