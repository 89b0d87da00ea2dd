package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

// JobRepository implements port.JobRepository.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository builds a JobRepository.
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

const jobColumns = `id, tenant_id, kind, queue, status, error_message, result_url, started_at, completed_at, created_at`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	if err := row.Scan(&j.ID, &j.TenantID, &j.Kind, &j.Queue, &j.Status, &j.ErrorMessage,
		&j.ResultURL, &j.StartedAt, &j.CompletedAt, &j.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

// Create inserts a pending Job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO jobs (tenant_id, kind, queue, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+jobColumns,
		job.TenantID, job.Kind, job.Queue, domain.JobStatusPending)
	return scanJob(row)
}

// UpdateStatus transitions a Job's status, optionally recording an
// error message or result URL and the transition timestamp.
func (r *JobRepository) UpdateStatus(ctx context.Context, id int64, status domain.JobStatus, errMsg, resultURL *string, at time.Time) error {
	var err error
	switch status {
	case domain.JobStatusRunning:
		_, err = r.pool.Exec(ctx, "UPDATE jobs SET status = $1, started_at = $2 WHERE id = $3", status, at, id)
	default:
		_, err = r.pool.Exec(ctx,
			"UPDATE jobs SET status = $1, error_message = $2, result_url = $3, completed_at = $4 WHERE id = $5",
			status, errMsg, resultURL, at, id)
	}
	return err
}
