package jobs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"remuneraciones/internal/platform/querier"
)

type RunStore interface {
	CreateRun(ctx context.Context, tenantID, jobType, status string) (string, error)
	UpdateStatus(ctx context.Context, runID, status string) error
	FinishRun(ctx context.Context, runID, status string, detailsJSON []byte) error
	GetRun(ctx context.Context, tenantID, runID string) (Run, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateRun(ctx context.Context, tenantID, jobType, status string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, tenantID, jobType, status).Scan(&id)
	return id, err
}

func (s *Store) UpdateStatus(ctx context.Context, runID, status string) error {
	_, err := s.DB.Exec(ctx, `UPDATE job_runs SET status = $1 WHERE id = $2`, status, runID)
	return err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, detailsJSON []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID)
	return err
}

func (s *Store) GetRun(ctx context.Context, tenantID, runID string) (Run, error) {
	var run Run
	var details []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, job_type, status, details_json, started_at, completed_at
    FROM job_runs
    WHERE tenant_id = $1 AND id::text = $2
  `, tenantID, runID).Scan(&run.ID, &run.TenantID, &run.Type, &run.Status, &details, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, err
	}
	run.Details = details
	return run, nil
}
