package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/email"
	"github.com/lherbier/vetiver/internal/jobs"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// PollInterval is how often to check for new jobs
	PollInterval time.Duration

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int
}

// Worker processes background jobs claimed from the database queue.
type Worker struct {
	config Config
	store  domain.JobStore
	sender email.Sender
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewWorker creates a new background job worker.
func NewWorker(store domain.JobStore, sender email.Sender, config Config, logger *slog.Logger) *Worker {
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.PollInterval == 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 5
	}

	return &Worker{
		config: config,
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// Start begins processing jobs until the context is cancelled. In-flight
// jobs are drained before returning.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker starting",
		"worker_id", w.config.WorkerID,
		"poll_interval", w.config.PollInterval,
		"max_concurrency", w.config.MaxConcurrency,
	)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down", "worker_id", w.config.WorkerID)
			w.wg.Wait()
			return ctx.Err()

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.claimAndProcess(ctx)
				}()
			default:
				// At max concurrency, skip this poll
			}
		}
	}
}

// claimAndProcess claims and processes a single job.
func (w *Worker) claimAndProcess(ctx context.Context) {
	job, err := w.store.ClaimNextJob(ctx, w.config.WorkerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoJobAvailable) {
			w.logger.Error("failed to claim job", "error", err)
		}
		return
	}

	w.logger.Info("processing job",
		"job_id", job.ID,
		"job_type", job.JobType,
		"retry_count", job.RetryCount,
	)

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Error("job failed",
			"job_id", job.ID,
			"job_type", job.JobType,
			"error", err,
		)
		if failErr := w.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to record job failure", "job_id", job.ID, "error", failErr)
		}
		return
	}

	w.logger.Info("job completed", "job_id", job.ID, "job_type", job.JobType)

	if err := w.store.CompleteJob(ctx, job.ID); err != nil {
		w.logger.Error("failed to mark job completed", "job_id", job.ID, "error", err)
	}
}

// processJob dispatches a claimed job under its timeout.
func (w *Worker) processJob(ctx context.Context, job *domain.Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(job.TimeoutSeconds)*time.Second)
	defer cancel()

	switch {
	case jobs.IsEmailJob(job.JobType):
		return jobs.ProcessEmailJob(jobCtx, job, w.sender)

	case jobs.IsCleanupJob(job.JobType):
		pruned, err := jobs.ProcessCleanupJob(jobCtx, job, w.store)
		if err != nil {
			return err
		}
		w.logger.Info("pruned finished jobs", "count", pruned)
		return nil

	default:
		return fmt.Errorf("unknown job type: %s", job.JobType)
	}
}
