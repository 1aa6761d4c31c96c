package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/core/ports"
)

type ingestFake struct {
	sub      *domain.Submission
	err      error
	gotText  string
	gotFiles []ports.ClippingUpload
}

func (f *ingestFake) Submit(_ context.Context, pastedText string, files []ports.ClippingUpload) (*domain.Submission, error) {
	f.gotText = pastedText
	f.gotFiles = files
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type submissionReaderFake struct {
	sub *domain.Submission
	err error
}

func (f *submissionReaderFake) GetByID(_ context.Context, _ string) (*domain.Submission, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type reportServiceFake struct {
	report  *domain.Report
	recent  []domain.RecentReportRef
	saveErr error
	getErr  error
	delErr  error
}

func (f *reportServiceFake) Save(_ context.Context, _ string, _ domain.AnalysisResult) (*domain.Report, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return f.report, nil
}

func (f *reportServiceFake) GetByID(_ context.Context, _ string) (*domain.Report, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.report, nil
}

func (f *reportServiceFake) Delete(_ context.Context, _ string) error {
	return f.delErr
}

func (f *reportServiceFake) Recent(_ context.Context) ([]domain.RecentReportRef, error) {
	return f.recent, nil
}

type sourceStoreFake struct {
	sources []domain.Source
	created *domain.Source
	delErr  error
}

func (f *sourceStoreFake) List(_ context.Context) ([]domain.Source, error) {
	return f.sources, nil
}

func (f *sourceStoreFake) GetByID(_ context.Context, id string) (*domain.Source, error) {
	for i := range f.sources {
		if f.sources[i].ID == id {
			return &f.sources[i], nil
		}
	}
	return nil, domain.WrapError(domain.ErrSourceNotFound, "get source", domain.ErrSourceNotFound)
}

func (f *sourceStoreFake) Create(_ context.Context, source *domain.Source) error {
	f.created = source
	return nil
}

func (f *sourceStoreFake) Delete(_ context.Context, _ string) error {
	return f.delErr
}

func newTestRouter(ingest *ingestFake, reader *submissionReaderFake, reports *reportServiceFake, sources *sourceStoreFake) http.Handler {
	if ingest == nil {
		ingest = &ingestFake{}
	}
	if reader == nil {
		reader = &submissionReaderFake{}
	}
	if reports == nil {
		reports = &reportServiceFake{}
	}
	if sources == nil {
		sources = &sourceStoreFake{}
	}
	router := NewRouter(ingest, reader, reports, sources, nil, RouterOptions{})
	return router.Handler()
}

func multipartSubmission(t *testing.T, text string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if text != "" {
		if err := writer.WriteField("text", text); err != nil {
			t.Fatalf("write text field: %v", err)
		}
	}
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestCreateSubmissionReturnsAccepted(t *testing.T) {
	ingest := &ingestFake{sub: &domain.Submission{
		ID:     "sub-1",
		Status: domain.StatusAccepted,
		Files:  []domain.ClippingFile{{OriginalName: "page.jpg", MimeType: "image/jpeg"}},
	}}
	handler := newTestRouter(ingest, nil, nil, nil)

	body, contentType := multipartSubmission(t, "pasted clipping", map[string][]byte{"page.jpg": []byte("bytes")})
	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingest.gotText != "pasted clipping" {
		t.Fatalf("unexpected pasted text: %q", ingest.gotText)
	}
	if len(ingest.gotFiles) != 1 || ingest.gotFiles[0].Filename != "page.jpg" {
		t.Fatalf("unexpected files: %+v", ingest.gotFiles)
	}

	var sub domain.Submission
	if err := json.NewDecoder(res.Body).Decode(&sub); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sub.ID != "sub-1" || sub.Status != domain.StatusAccepted {
		t.Fatalf("unexpected submission: %+v", sub)
	}
}

func TestCreateSubmissionMapsInvalidInputTo400(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrInvalidInput, "submit", domain.ErrInvalidInput)}
	handler := newTestRouter(ingest, nil, nil, nil)

	body, contentType := multipartSubmission(t, "", map[string][]byte{"notes.txt": []byte("plain")})
	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetSubmissionMapsNotFoundTo404(t *testing.T) {
	reader := &submissionReaderFake{err: domain.WrapError(domain.ErrSubmissionNotFound, "get submission", domain.ErrSubmissionNotFound)}
	handler := newTestRouter(nil, reader, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/submissions/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetSubmissionMapsTemporaryTo503(t *testing.T) {
	reader := &submissionReaderFake{err: domain.WrapError(domain.ErrTemporary, "get submission", domain.ErrTemporary)}
	handler := newTestRouter(nil, reader, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/submissions/sub-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestSaveReportReturnsCreated(t *testing.T) {
	reports := &reportServiceFake{report: &domain.Report{
		ID:           "rep-1",
		Title:        "Clashes in old town...",
		ThematicArea: "Minority and Weaker Sections",
		UploadDate:   time.Now().UTC(),
	}}
	handler := newTestRouter(nil, nil, reports, nil)

	payload := `{"source_id":"src-1","result":{"category":"Communal Clashes","confidence":0.9,"summary":"s","extracted_article_text":"a"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
}

func TestRecentReportsReturnsEmptyListNotNull(t *testing.T) {
	handler := newTestRouter(nil, nil, &reportServiceFake{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/recent", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp map[string][]domain.RecentReportRef
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["reports"] == nil {
		t.Fatalf("expected empty list, got null")
	}
}

func TestDeleteReportMapsNotFoundTo404(t *testing.T) {
	reports := &reportServiceFake{delErr: domain.WrapError(domain.ErrReportNotFound, "delete report", domain.ErrReportNotFound)}
	handler := newTestRouter(nil, nil, reports, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/reports/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestCreateSourceValidatesName(t *testing.T) {
	sources := &sourceStoreFake{}
	handler := newTestRouter(nil, nil, nil, sources)

	req := httptest.NewRequest(http.MethodPost, "/v1/sources", bytes.NewBufferString(`{"name":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if sources.created != nil {
		t.Fatalf("expected no source created")
	}
}
