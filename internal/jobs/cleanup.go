package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/lherbier/vetiver/internal/domain"
)

// Job type constants for cleanup jobs
const (
	JobTypePruneFinishedJobs = "cleanup:finished_jobs"
)

// pruneRetention is how long completed and failed jobs stay visible before
// the cleanup job removes them.
const pruneRetention = 7 * 24 * time.Hour

// EnqueuePruneFinishedJobs enqueues a maintenance job that removes old
// completed and failed jobs. Meant to be scheduled periodically; a failed
// run is simply retried on the next schedule.
func EnqueuePruneFinishedJobs(ctx context.Context, store domain.JobStore) error {
	_, err := store.EnqueueJob(ctx, domain.EnqueueJobParams{
		JobType:        JobTypePruneFinishedJobs,
		Payload:        []byte("{}"),
		MaxRetries:     1,
		TimeoutSeconds: 60,
	})
	return err
}

// ProcessCleanupJob processes a cleanup job based on its type.
func ProcessCleanupJob(ctx context.Context, job *domain.Job, store domain.JobStore) (int64, error) {
	switch job.JobType {
	case JobTypePruneFinishedJobs:
		return store.PruneFinishedJobs(ctx, pruneRetention)
	default:
		return 0, fmt.Errorf("unknown cleanup job type: %s", job.JobType)
	}
}

// IsCleanupJob checks if a job type is a cleanup job.
func IsCleanupJob(jobType string) bool {
	return jobType == JobTypePruneFinishedJobs
}
