package httpadapter

import (
	"net/http"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrUnsupportedFile):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSubmissionNotFound),
		domain.IsKind(err, domain.ErrReportNotFound),
		domain.IsKind(err, domain.ErrSourceNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrExtraction),
		domain.IsKind(err, domain.ErrClassification),
		domain.IsKind(err, domain.ErrDuplicateCheck):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
