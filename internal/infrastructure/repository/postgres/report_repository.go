// Package postgres persists submissions, confirmed reports, and news
// sources. Connections go through the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"
	"github.com/rightsdesk/clipline/internal/core/domain"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// defaultSources seeds an empty sources table so report intake works out
// of the box. Operators extend the list through the sources endpoint.
var defaultSources = []string{
	"The Punch (Lagos)",
	"Vanguard (Lagos)",
	"The Guardian (Nigeria) (Lagos)",
	"ThisDay (Lagos/Abuja)",
	"Daily Trust (Abuja)",
	"Nigerian Tribune (Ibadan)",
	"The Sun (Lagos)",
	"The Nation (Nigeria) (Lagos)",
	"Leadership (Abuja)",
	"Blueprint (newspaper) (Abuja)",
	"Premium Times (Online, Abuja)",
	"The Whistler (Online, Abuja)",
	"Prime 9ja Online (Edo State, online)",
	"The Tide (Port Harcourt, Rivers State)",
	"Osun Defender (Osogbo, Osun State)",
	"The Herald (Nigeria) (Kwara State)",
	"National Network (Port Harcourt)",
	"The Nigerian Observer (Benin City, Edo State)",
	"Daily Times (Nigeria) (Lagos)",
}

func (r *ReportRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source_id TEXT NOT NULL,
	category TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	summary TEXT NOT NULL,
	thematic_area TEXT NOT NULL,
	content TEXT NOT NULL,
	is_duplicate BOOLEAN NOT NULL DEFAULT FALSE,
	duplicate_report_id TEXT NOT NULL DEFAULT '',
	publication_date TIMESTAMPTZ NOT NULL,
	upload_date TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_upload_date ON reports(upload_date DESC);
CREATE INDEX IF NOT EXISTS idx_reports_thematic_area ON reports(thematic_area);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	var sourceCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&sourceCount); err != nil {
		return fmt.Errorf("count sources: %w", err)
	}
	if sourceCount == 0 {
		now := time.Now().UTC()
		for _, name := range defaultSources {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO sources (id, name, url, created_at) VALUES ($1,$2,$3,$4)
`, uuid.NewString(), name, "", now); err != nil {
				return fmt.Errorf("seed source %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ReportRepository) Insert(ctx context.Context, report *domain.Report) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reports (
	id, title, source_id, category, confidence, summary, thematic_area, content, is_duplicate, duplicate_report_id, publication_date, upload_date
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		report.ID, report.Title, report.SourceID, report.Category, report.Confidence, report.Summary,
		report.ThematicArea, report.Content, report.IsDuplicate, report.DuplicateReportID,
		report.PublicationDate, report.UploadDate,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, source_id, category, confidence, summary, thematic_area, content, is_duplicate, duplicate_report_id, publication_date, upload_date
FROM reports
WHERE id = $1
`, id)

	var report domain.Report
	err := row.Scan(
		&report.ID, &report.Title, &report.SourceID, &report.Category, &report.Confidence,
		&report.Summary, &report.ThematicArea, &report.Content, &report.IsDuplicate,
		&report.DuplicateReportID, &report.PublicationDate, &report.UploadDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReportNotFound, "get report", err)
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrReportNotFound, "delete report", sql.ErrNoRows)
	}
	return nil
}

// RecentWindow returns the newest saved reports by upload date, reduced to
// the fields the duplicate detector compares against.
func (r *ReportRepository) RecentWindow(ctx context.Context, limit int) ([]domain.RecentReportRef, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, summary
FROM reports
ORDER BY upload_date DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.RecentReportRef, 0, limit)
	for rows.Next() {
		var ref domain.RecentReportRef
		if err := rows.Scan(&ref.ID, &ref.Title, &ref.Summary); err != nil {
			return nil, fmt.Errorf("scan recent report: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent reports: %w", err)
	}
	return refs, nil
}

type SourceRepository struct {
	db *sql.DB
}

func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

func (r *SourceRepository) List(ctx context.Context) ([]domain.Source, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, url FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		var source domain.Source
		if err := rows.Scan(&source.ID, &source.Name, &source.URL); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, url FROM sources WHERE id = $1`, id)

	var source domain.Source
	if err := row.Scan(&source.ID, &source.Name, &source.URL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSourceNotFound, "get source", err)
		}
		return nil, fmt.Errorf("scan source: %w", err)
	}
	return &source, nil
}

func (r *SourceRepository) Create(ctx context.Context, source *domain.Source) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO sources (id, name, url, created_at) VALUES ($1,$2,$3,$4)
`, source.ID, source.Name, source.URL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete source rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSourceNotFound, "delete source", sql.ErrNoRows)
	}
	return nil
}
