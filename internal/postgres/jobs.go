package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lherbier/vetiver/internal/domain"
)

const enqueueJobSQL = `
INSERT INTO jobs (id, job_type, payload, status, max_retries, timeout_seconds, scheduled_at)
VALUES ($1, $2, $3, 'pending', $4, $5, $6)
RETURNING created_at`

// claimNextJobSQL claims the oldest due pending job. FOR UPDATE SKIP LOCKED
// keeps concurrent workers from claiming the same row.
const claimNextJobSQL = `
UPDATE jobs
SET status = 'running', started_at = now(), worker_id = $1
WHERE id = (
	SELECT id FROM jobs
	WHERE status = 'pending' AND scheduled_at <= now()
	ORDER BY scheduled_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, job_type, payload, status, retry_count, max_retries, timeout_seconds, scheduled_at, COALESCE(last_error, ''), created_at`

const completeJobSQL = `
UPDATE jobs SET status = 'completed', completed_at = now()
WHERE id = $1 AND status = 'running'`

const retryJobSQL = `
UPDATE jobs
SET status = 'pending', retry_count = retry_count + 1, last_error = $2, scheduled_at = $3, worker_id = NULL
WHERE id = $1 AND status = 'running' AND retry_count < max_retries`

const failJobSQL = `
UPDATE jobs
SET status = 'failed', retry_count = retry_count + 1, last_error = $2, completed_at = now()
WHERE id = $1 AND status = 'running'`

// JobStore implements domain.JobStore using PostgreSQL.
type JobStore struct {
	pool *pgxpool.Pool
}

var _ domain.JobStore = (*JobStore)(nil)

// NewJobStore creates a new PostgreSQL-backed job store.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// EnqueueJob inserts a pending job.
func (s *JobStore) EnqueueJob(ctx context.Context, params domain.EnqueueJobParams) (*domain.Job, error) {
	const op = "jobs.enqueue"

	job := &domain.Job{
		ID:             uuid.New(),
		JobType:        params.JobType,
		Payload:        params.Payload,
		Status:         domain.JobStatusPending,
		MaxRetries:     params.MaxRetries,
		TimeoutSeconds: params.TimeoutSeconds,
		ScheduledAt:    params.ScheduledAt,
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}
	if job.TimeoutSeconds == 0 {
		job.TimeoutSeconds = 60
	}
	if job.ScheduledAt.IsZero() {
		job.ScheduledAt = time.Now()
	}

	err := s.pool.QueryRow(ctx, enqueueJobSQL,
		job.ID, job.JobType, job.Payload, job.MaxRetries, job.TimeoutSeconds, job.ScheduledAt,
	).Scan(&job.CreatedAt)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to enqueue job")
	}

	return job, nil
}

// ClaimNextJob claims the oldest due pending job for the given worker.
func (s *JobStore) ClaimNextJob(ctx context.Context, workerID string) (*domain.Job, error) {
	const op = "jobs.claim"

	var job domain.Job
	err := s.pool.QueryRow(ctx, claimNextJobSQL, workerID).Scan(
		&job.ID, &job.JobType, &job.Payload, &job.Status,
		&job.RetryCount, &job.MaxRetries, &job.TimeoutSeconds,
		&job.ScheduledAt, &job.LastError, &job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, domain.Internal(err, op, "failed to claim job")
	}

	return &job, nil
}

// CompleteJob marks a running job as completed.
func (s *JobStore) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	const op = "jobs.complete"

	if _, err := s.pool.Exec(ctx, completeJobSQL, jobID); err != nil {
		return domain.Internal(err, op, "failed to complete job")
	}
	return nil
}

// FailJob reschedules the job with exponential backoff when retries remain,
// otherwise marks it failed.
func (s *JobStore) FailJob(ctx context.Context, jobID uuid.UUID, jobErr string) error {
	const op = "jobs.fail"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var retryCount int32
	err = tx.QueryRow(ctx, `SELECT retry_count FROM jobs WHERE id = $1 FOR UPDATE`, jobID).Scan(&retryCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNoJobAvailable
		}
		return domain.Internal(err, op, "failed to load job")
	}

	// 30s, 60s, 120s, ... capped at 15 minutes.
	backoff := 30 * time.Second << uint(retryCount)
	if backoff > 15*time.Minute {
		backoff = 15 * time.Minute
	}

	tag, err := tx.Exec(ctx, retryJobSQL, jobID, jobErr, time.Now().Add(backoff))
	if err != nil {
		return domain.Internal(err, op, "failed to reschedule job")
	}
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx, failJobSQL, jobID, jobErr); err != nil {
			return domain.Internal(err, op, "failed to mark job failed")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Internal(err, op, "failed to commit job failure")
	}
	return nil
}

const pruneFinishedJobsSQL = `
DELETE FROM jobs
WHERE status IN ('completed', 'failed') AND created_at < $1`

// PruneFinishedJobs deletes completed and failed jobs older than the window.
func (s *JobStore) PruneFinishedJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, pruneFinishedJobsSQL, time.Now().Add(-olderThan))
	if err != nil {
		return 0, domain.Internal(err, "jobs.prune", "failed to prune finished jobs")
	}
	return tag.RowsAffected(), nil
}
