package domain

import (
	"errors"
	"fmt"
)

var (
	ErrReportNotFound     = errors.New("report not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSourceNotFound     = errors.New("source not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFile    = errors.New("unsupported file type")
	ErrExtraction         = errors.New("extraction failure")
	ErrClassification     = errors.New("classification failure")
	ErrDuplicateCheck     = errors.New("duplicate check failure")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
