package domain

// ExtractedArticle is one candidate article emitted by the segmentation
// collaborator, in the order the model produced them.
type ExtractedArticle struct {
	ExtractedArticleText string `json:"extracted_article_text"`
	Summary              string `json:"summary"`
	ContainsViolation    bool   `json:"contains_violation"`
}

// Classification is the category verdict for one article.
// Confidence is always within [0,1].
type Classification struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// DuplicateVerdict is the duplicate-detection outcome for one article.
// DuplicateReportID is set iff IsDuplicate is true, and refers to an id
// from the recent-reports window the verdict was made against.
type DuplicateVerdict struct {
	IsDuplicate       bool   `json:"is_duplicate"`
	DuplicateReportID string `json:"duplicate_report_id,omitempty"`
	Reasoning         string `json:"reasoning"`
}

// AnalysisResult is the terminal artifact of the pipeline, one per
// violation-flagged article. Non-violation articles never surface.
type AnalysisResult struct {
	Summary              string  `json:"summary"`
	ExtractedArticleText string  `json:"extracted_article_text"`
	ContainsViolation    bool    `json:"contains_violation"`
	Category             string  `json:"category"`
	Confidence           float64 `json:"confidence"`
	ThematicArea         string  `json:"thematic_area"`
	IsDuplicate          bool    `json:"is_duplicate"`
	DuplicateReportID    string  `json:"duplicate_report_id,omitempty"`
	Reasoning            string  `json:"reasoning,omitempty"`
}
