// Package httpadapter exposes the intake and report surfaces over REST.
package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rightsdesk/clipline/internal/core/domain"
	"github.com/rightsdesk/clipline/internal/core/ports"
	"github.com/rightsdesk/clipline/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	ingest      ports.ClippingIngestor
	submissions ports.SubmissionReader
	reports     ports.ReportService
	sources     ports.SourceStore
	httpMetrics *metrics.HTTPServerMetrics

	maxUploadBytes  int64
	rateLimitRPS    float64
	rateLimitBurst  int
	maxConcurrent   int
	backpressureMax time.Duration
}

// RouterOptions carries the traffic-control settings from config.
type RouterOptions struct {
	MaxUploadBytes   int64
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxConcurrent    int
	BackpressureWait time.Duration
}

func NewRouter(
	ingest ports.ClippingIngestor,
	submissions ports.SubmissionReader,
	reports ports.ReportService,
	sources ports.SourceStore,
	httpMetrics *metrics.HTTPServerMetrics,
	options RouterOptions,
) *Router {
	return &Router{
		ingest:          ingest,
		submissions:     submissions,
		reports:         reports,
		sources:         sources,
		httpMetrics:     httpMetrics,
		maxUploadBytes:  options.MaxUploadBytes,
		rateLimitRPS:    options.RateLimitRPS,
		rateLimitBurst:  options.RateLimitBurst,
		maxConcurrent:   options.MaxConcurrent,
		backpressureMax: options.BackpressureWait,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/submissions", rt.createSubmission)
	mux.HandleFunc("/v1/submissions/", rt.getSubmissionByID)
	mux.HandleFunc("/v1/reports", rt.saveReport)
	mux.HandleFunc("/v1/reports/recent", rt.recentReports)
	mux.HandleFunc("/v1/reports/", rt.reportByID)
	mux.HandleFunc("/v1/sources", rt.sourcesCollection)
	mux.HandleFunc("/v1/sources/", rt.deleteSource)
	if rt.httpMetrics != nil {
		mux.Handle("/metrics", rt.httpMetrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, rt.backpressureMax)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createSubmission accepts multipart form data: an optional "text" field
// with pasted clipping text plus any number of "files" parts.
func (rt *Router) createSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if rt.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	pastedText := r.FormValue("text")

	var uploads []ports.ClippingUpload
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			part, err := header.Open()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file part: " + header.Filename})
				return
			}
			data, err := io.ReadAll(part)
			_ = part.Close()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file part: " + header.Filename})
				return
			}
			uploads = append(uploads, ports.ClippingUpload{
				Filename: header.Filename,
				Data:     data,
			})
		}
	}

	sub, err := rt.ingest.Submit(r.Context(), pastedText, uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordSubmissionAccepted(serviceName)
		for _, file := range sub.Files {
			rt.httpMetrics.RecordUploadFile(serviceName, file.MimeType)
			if file.MimeType != "application/pdf" {
				rt.httpMetrics.RecordAutocrop(serviceName, file.WasCropped)
			}
		}
	}
	writeJSON(w, http.StatusAccepted, sub)
}

func (rt *Router) getSubmissionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/submissions/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "submission id is required"})
		return
	}

	sub, err := rt.submissions.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (rt *Router) saveReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		SourceID string                `json:"source_id"`
		Result   domain.AnalysisResult `json:"result"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	report, err := rt.reports.Save(r.Context(), req.SourceID, req.Result)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.httpMetrics != nil {
		rt.httpMetrics.RecordReportSaved(serviceName, report.ThematicArea)
	}
	writeJSON(w, http.StatusCreated, report)
}

func (rt *Router) recentReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	refs, err := rt.reports.Recent(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if refs == nil {
		refs = []domain.RecentReportRef{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": refs})
}

func (rt *Router) reportByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/reports/")
	if id == "" || id == "recent" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report id is required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		report, err := rt.reports.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	case http.MethodDelete:
		if err := rt.reports.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) sourcesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sources, err := rt.sources.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if sources == nil {
			sources = []domain.Source{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source name is required"})
			return
		}
		source := &domain.Source{
			ID:   uuid.NewString(),
			Name: strings.TrimSpace(req.Name),
			URL:  strings.TrimSpace(req.URL),
		}
		if err := rt.sources.Create(r.Context(), source); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, source)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) deleteSource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/sources/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source id is required"})
		return
	}

	if err := rt.sources.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
		return
	}
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
