package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

func newSubmissionRepoWithMock(t *testing.T) (*SubmissionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &SubmissionRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestSubmissionGetByIDUnmarshalsJSONColumns(t *testing.T) {
	repo, mock, done := newSubmissionRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "pasted_text", "files", "status", "warnings", "results", "error_message", "created_at", "updated_at",
	}).AddRow(
		"sub-1", "pasted",
		[]byte(`[{"original_name":"page.jpg","stored_name":"page-cropped.jpg","mime_type":"image/jpeg","storage_path":"sub-1_0_page.jpg","size_bytes":123,"was_cropped":true}]`),
		"processing",
		[]byte(`["skipped notes.txt"]`),
		[]byte(`[]`),
		"", now, now,
	)
	mock.ExpectQuery("SELECT id, pasted_text, files").
		WithArgs("sub-1").
		WillReturnRows(rows)

	sub, err := repo.GetByID(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sub.Status != domain.StatusProcessing {
		t.Fatalf("unexpected status: %s", sub.Status)
	}
	if len(sub.Files) != 1 || !sub.Files[0].WasCropped || sub.Files[0].StoragePath != "sub-1_0_page.jpg" {
		t.Fatalf("unexpected files: %+v", sub.Files)
	}
	if len(sub.Warnings) != 1 {
		t.Fatalf("unexpected warnings: %+v", sub.Warnings)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSubmissionGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newSubmissionRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, pasted_text, files").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSubmissionUpdateStatusReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newSubmissionRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE submissions").
		WithArgs("missing", string(domain.StatusFailed), "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusFailed, "boom")
	if !domain.IsKind(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultsStoresEmptySlicesNotNull(t *testing.T) {
	repo, mock, done := newSubmissionRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE submissions").
		WithArgs("sub-1", []byte("[]"), []byte("[]"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveResults(context.Background(), "sub-1", nil, nil); err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
