package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lherbier/vetiver/internal/domain"
)

// pruningJobStore records the retention passed to PruneFinishedJobs.
type pruningJobStore struct {
	recordingJobStore
	prunedOlderThan time.Duration
	pruned          int64
}

func (p *pruningJobStore) PruneFinishedJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	p.prunedOlderThan = olderThan
	return p.pruned, nil
}

func TestEnqueuePruneFinishedJobs(t *testing.T) {
	store := &pruningJobStore{}

	if err := EnqueuePruneFinishedJobs(context.Background(), store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.enqueued) != 1 {
		t.Fatalf("expected 1 job, got %d", len(store.enqueued))
	}
	if store.enqueued[0].JobType != JobTypePruneFinishedJobs {
		t.Errorf("unexpected job type %s", store.enqueued[0].JobType)
	}
}

func TestProcessCleanupJob(t *testing.T) {
	store := &pruningJobStore{pruned: 42}
	job := &domain.Job{ID: uuid.New(), JobType: JobTypePruneFinishedJobs, Payload: []byte("{}")}

	removed, err := ProcessCleanupJob(context.Background(), job, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 42 {
		t.Errorf("expected 42 removed, got %d", removed)
	}
	if store.prunedOlderThan != pruneRetention {
		t.Errorf("expected retention %s, got %s", pruneRetention, store.prunedOlderThan)
	}
}

func TestProcessCleanupJob_UnknownType(t *testing.T) {
	job := &domain.Job{ID: uuid.New(), JobType: "cleanup:unknown"}
	if _, err := ProcessCleanupJob(context.Background(), job, &pruningJobStore{}); err == nil {
		t.Fatal("expected error for unknown job type")
	}
}
