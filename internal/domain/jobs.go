package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is one unit of deferred work stored in Postgres and claimed by the
// polling worker.
type Job struct {
	ID             uuid.UUID
	JobType        string
	Payload        []byte
	Status         string
	RetryCount     int32
	MaxRetries     int32
	TimeoutSeconds int32
	ScheduledAt    time.Time
	LastError      string
	CreatedAt      time.Time
}

// EnqueueJobParams describes a job to enqueue.
type EnqueueJobParams struct {
	JobType        string
	Payload        []byte
	MaxRetries     int32
	TimeoutSeconds int32
	ScheduledAt    time.Time
}

// JobStore persists and claims background jobs.
type JobStore interface {
	// EnqueueJob inserts a pending job.
	EnqueueJob(ctx context.Context, params EnqueueJobParams) (*Job, error)

	// ClaimNextJob atomically claims the oldest due pending job, or returns
	// ErrNoJobAvailable. Claiming uses row locking so concurrent workers
	// never process the same job twice.
	ClaimNextJob(ctx context.Context, workerID string) (*Job, error)

	// CompleteJob marks a running job as completed.
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// FailJob records a failure. Jobs with retries remaining are rescheduled
	// with backoff; exhausted jobs are marked failed.
	FailJob(ctx context.Context, jobID uuid.UUID, jobErr string) error

	// PruneFinishedJobs deletes completed and failed jobs older than the
	// retention window, returning how many were removed.
	PruneFinishedJobs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ErrNoJobAvailable is returned by ClaimNextJob when the queue is idle.
var ErrNoJobAvailable = &Error{Code: ENOTFOUND, Message: "No job available"}
