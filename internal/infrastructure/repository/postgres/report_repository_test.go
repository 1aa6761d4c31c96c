package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

func newReportRepoWithMock(t *testing.T) (*ReportRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ReportRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestReportGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, source_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReportDeleteReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM reports").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecentWindowLimitsAndOrders(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "title", "summary"}).
		AddRow("rep-3", "Newest", "newest summary").
		AddRow("rep-2", "Middle", "middle summary").
		AddRow("rep-1", "Oldest", "oldest summary")
	mock.ExpectQuery("SELECT id, title, summary").
		WithArgs(25).
		WillReturnRows(rows)

	refs, err := repo.RecentWindow(context.Background(), 25)
	if err != nil {
		t.Fatalf("RecentWindow() error = %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0].ID != "rep-3" || refs[2].ID != "rep-1" {
		t.Fatalf("expected newest-first order, got %+v", refs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertReportPersistsAllFields(t *testing.T) {
	repo, mock, done := newReportRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	report := &domain.Report{
		ID:                "rep-1",
		Title:             "Clashes in old town...",
		SourceID:          "src-1",
		Category:          "Communal Clashes",
		Confidence:        0.91,
		Summary:           "Two injured in clashes.",
		ThematicArea:      "Minority and Weaker Sections",
		Content:           "Full article text.",
		IsDuplicate:       true,
		DuplicateReportID: "rep-0",
		PublicationDate:   now,
		UploadDate:        now,
	}

	mock.ExpectExec("INSERT INTO reports").
		WithArgs(
			report.ID, report.Title, report.SourceID, report.Category, report.Confidence,
			report.Summary, report.ThematicArea, report.Content, report.IsDuplicate,
			report.DuplicateReportID, report.PublicationDate, report.UploadDate,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), report); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSourceGetByIDReturnsDomainNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	repo := &SourceRepository{db: db}

	mock.ExpectQuery("SELECT id, name, url FROM sources").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
