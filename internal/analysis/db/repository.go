package analysisdb

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArielSanroj/cfobot/internal/analysis"
	platformdb "github.com/ArielSanroj/cfobot/internal/platform/db"
)

// Repository persists analysis runs and their artifacts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repo.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertRun stores a new pending run.
func (r *Repository) InsertRun(ctx context.Context, run analysis.Run) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO analysis_runs (id, source_file, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`, run.ID, run.SourceFile, string(run.Status), run.CreatedAt, run.UpdatedAt)
	return err
}

// GetRun fetches run metadata by id.
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (analysis.Run, error) {
	var (
		run    analysis.Run
		status string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, source_file, report_month, status, warning_count, error_message, created_at, updated_at
FROM analysis_runs WHERE id = $1`, id).
		Scan(&run.ID, &run.SourceFile, &run.Month, &status, &run.WarningCount, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return analysis.Run{}, analysis.ErrRunNotFound
		}
		return analysis.Run{}, err
	}
	run.Status = analysis.RunStatus(status)
	return run, nil
}

// ListRuns returns the most recent runs.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]analysis.Run, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, source_file, report_month, status, warning_count, error_message, created_at, updated_at
FROM analysis_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []analysis.Run
	for rows.Next() {
		var (
			run    analysis.Run
			status string
		)
		if err := rows.Scan(&run.ID, &run.SourceFile, &run.Month, &status, &run.WarningCount, &run.Error, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		run.Status = analysis.RunStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateStatus transitions run state.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status analysis.RunStatus) error {
	_, err := r.pool.Exec(ctx, `UPDATE analysis_runs SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	return err
}

// MarkFailed records the error and flips the run to FAILED.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx, `UPDATE analysis_runs SET status = $2, error_message = $3, updated_at = now() WHERE id = $1`,
		id, string(analysis.RunFailed), errMsg)
	return err
}

// CompleteRun records the detected month and warning count and flips the run
// to READY.
func (r *Repository) CompleteRun(ctx context.Context, id uuid.UUID, month string, warnings int) error {
	_, err := r.pool.Exec(ctx, `UPDATE analysis_runs SET status = $2, report_month = $3, warning_count = $4, error_message = '', updated_at = now() WHERE id = $1`,
		id, string(analysis.RunReady), month, warnings)
	return err
}

// SavePayload stores the computed report for a run.
func (r *Repository) SavePayload(ctx context.Context, id uuid.UUID, report *analysis.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE analysis_runs SET payload = $2, updated_at = now() WHERE id = $1`, id, payload)
	return err
}

// LoadPayload deserialises the stored report, or nil when none was saved.
func (r *Repository) LoadPayload(ctx context.Context, id uuid.UUID) (*analysis.Report, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM analysis_runs WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, analysis.ErrRunNotFound
		}
		return nil, err
	}
	if len(payload) == 0 {
		return nil, nil
	}
	var report analysis.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// InsertArtifacts records the artifacts of a run atomically.
func (r *Repository) InsertArtifacts(ctx context.Context, artifacts []analysis.Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, a := range artifacts {
			if _, err := tx.Exec(ctx, `INSERT INTO analysis_artifacts (id, run_id, kind, filename, path, content_type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, a.ID, a.RunID, a.Kind, a.Name, a.Path, a.ContentType, a.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListArtifacts returns the artifacts of a run.
func (r *Repository) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]analysis.Artifact, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, run_id, kind, filename, path, content_type, created_at
FROM analysis_artifacts WHERE run_id = $1 ORDER BY filename`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []analysis.Artifact
	for rows.Next() {
		var a analysis.Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Kind, &a.Name, &a.Path, &a.ContentType, &a.CreatedAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// GetArtifact returns one artifact of a run by file name.
func (r *Repository) GetArtifact(ctx context.Context, runID uuid.UUID, name string) (analysis.Artifact, error) {
	var a analysis.Artifact
	err := r.pool.QueryRow(ctx, `SELECT id, run_id, kind, filename, path, content_type, created_at
FROM analysis_artifacts WHERE run_id = $1 AND filename = $2`, runID, name).
		Scan(&a.ID, &a.RunID, &a.Kind, &a.Name, &a.Path, &a.ContentType, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return analysis.Artifact{}, analysis.ErrArtifactNotFound
		}
		return analysis.Artifact{}, err
	}
	return a, nil
}
