// Package ollama adapts an Ollama server into the four model collaborators
// the pipeline needs: vision OCR, article segmentation, category
// classification, and duplicate detection. Each collaborator call runs at
// most once; the user resubmits on failure.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	genModel    string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
}

func New(baseURL, genModel, visionModel string) *Client {
	return NewWithOptions(baseURL, genModel, visionModel, Options{})
}

func NewWithOptions(baseURL, genModel, visionModel string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    genModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.Executor,
	}
}

// Extractor is the OCR collaborator backed by a vision model.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) ExtractText(ctx context.Context, imageDataURI string) (string, error) {
	payload, err := splitDataURI(imageDataURI)
	if err != nil {
		return "", fmt.Errorf("parse image data uri: %w", err)
	}

	reqBody := map[string]any{
		"model":  e.client.visionModel,
		"prompt": buildOCRPrompt(),
		"images": []string{payload},
		"stream": false,
	}
	text, err := e.client.generate(ctx, "ocr", reqBody)
	if err != nil {
		return "", err
	}
	return text, nil
}

// splitDataURI returns the base64 payload of a data:<mime>;base64,<bytes>
// URI. The mime prefix is validated but unused: the model only needs bytes.
func splitDataURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", fmt.Errorf("not a data uri")
	}
	idx := strings.Index(uri, ";base64,")
	if idx < 0 {
		return "", fmt.Errorf("missing base64 payload marker")
	}
	payload := uri[idx+len(";base64,"):]
	if payload == "" {
		return "", fmt.Errorf("empty payload")
	}
	return payload, nil
}

// Segmenter splits combined clipping text into candidate articles.
type Segmenter struct {
	client *Client
}

func NewSegmenter(client *Client) *Segmenter {
	return &Segmenter{client: client}
}

func (s *Segmenter) Segment(ctx context.Context, text string) ([]domain.ExtractedArticle, error) {
	respText, err := s.client.generateJSON(ctx, "segment", buildSegmentationPrompt(text))
	if err != nil {
		return nil, err
	}

	var result struct {
		Articles []struct {
			ExtractedArticle  string `json:"extractedArticle"`
			Summary           string `json:"summary"`
			ContainsViolation bool   `json:"containsViolation"`
		} `json:"articles"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return nil, fmt.Errorf("parse segmentation json: %w", err)
	}

	articles := make([]domain.ExtractedArticle, 0, len(result.Articles))
	for _, article := range result.Articles {
		articles = append(articles, domain.ExtractedArticle{
			ExtractedArticleText: article.ExtractedArticle,
			Summary:              article.Summary,
			ContainsViolation:    article.ContainsViolation,
		})
	}
	return articles, nil
}

// Classifier assigns one of the known category labels to an article.
type Classifier struct {
	client     *Client
	categories []string
}

func NewClassifier(client *Client, categories []string) *Classifier {
	return &Classifier{client: client, categories: categories}
}

func (c *Classifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	respText, err := c.client.generateJSON(ctx, "classify", buildClassificationPrompt(text, c.categories))
	if err != nil {
		return domain.Classification{}, err
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification json: %w", err)
	}
	return result, nil
}

// DuplicateChecker compares a new article against the recent-reports window.
type DuplicateChecker struct {
	client *Client
}

func NewDuplicateChecker(client *Client) *DuplicateChecker {
	return &DuplicateChecker{client: client}
}

const noRecentReportsReasoning = "Not a duplicate because there are no recent reports to compare against."

func (d *DuplicateChecker) Detect(
	ctx context.Context,
	articleText string,
	recent []domain.RecentReportRef,
) (domain.DuplicateVerdict, error) {
	// An empty window cannot contain a duplicate; answering without a
	// model call keeps the verdict deterministic and free.
	if len(recent) == 0 {
		return domain.DuplicateVerdict{
			IsDuplicate: false,
			Reasoning:   noRecentReportsReasoning,
		}, nil
	}

	prompt, err := buildDuplicatePrompt(articleText, recent)
	if err != nil {
		return domain.DuplicateVerdict{}, err
	}
	respText, err := d.client.generateJSON(ctx, "duplicate", prompt)
	if err != nil {
		return domain.DuplicateVerdict{}, err
	}

	var result struct {
		IsDuplicate       bool   `json:"isDuplicate"`
		DuplicateReportID string `json:"duplicateReportId"`
		Reasoning         string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.DuplicateVerdict{}, fmt.Errorf("parse duplicate json: %w", err)
	}
	return domain.DuplicateVerdict{
		IsDuplicate:       result.IsDuplicate,
		DuplicateReportID: result.DuplicateReportID,
		Reasoning:         result.Reasoning,
	}, nil
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
