package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rightsdesk/clipline/internal/core/domain"
)

type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082902)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	pasted_text TEXT NOT NULL DEFAULT '',
	files JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	results JSONB NOT NULL DEFAULT '[]'::jsonb,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	filesJSON, err := json.Marshal(sub.Files)
	if err != nil {
		return fmt.Errorf("marshal files: %w", err)
	}
	warningsJSON, err := json.Marshal(sub.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO submissions (
	id, pasted_text, files, status, warnings, results, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,'[]'::jsonb,$6,$7,$8)
`,
		sub.ID, sub.Text, filesJSON, string(sub.Status), warningsJSON, sub.Error, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, pasted_text, files, status, warnings, results, error_message, created_at, updated_at
FROM submissions
WHERE id = $1
`, id)

	var sub domain.Submission
	var filesRaw, warningsRaw, resultsRaw []byte
	var status string

	err := row.Scan(
		&sub.ID, &sub.Text, &filesRaw, &status, &warningsRaw, &resultsRaw,
		&sub.Error, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSubmissionNotFound, "get submission", err)
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	if err := json.Unmarshal(filesRaw, &sub.Files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	if err := json.Unmarshal(warningsRaw, &sub.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	if err := json.Unmarshal(resultsRaw, &sub.Results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	sub.Status = domain.SubmissionStatus(status)
	return &sub, nil
}

func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE submissions
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSubmissionNotFound, "update submission status", sql.ErrNoRows)
	}
	return nil
}

// SaveResults stores the completed analysis alongside any extraction
// warnings accumulated while assembling the text.
func (r *SubmissionRepository) SaveResults(ctx context.Context, id string, results []domain.AnalysisResult, warnings []string) error {
	if results == nil {
		results = []domain.AnalysisResult{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE submissions
SET results = $2, warnings = $3, updated_at = $4
WHERE id = $1
`, id, resultsJSON, warningsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save submission results: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save results rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSubmissionNotFound, "save submission results", sql.ErrNoRows)
	}
	return nil
}
