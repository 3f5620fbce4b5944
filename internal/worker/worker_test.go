package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/email"
	"github.com/lherbier/vetiver/internal/jobs"
)

// queueStore is an in-memory domain.JobStore handing out queued jobs once.
type queueStore struct {
	mu        sync.Mutex
	queue     []*domain.Job
	completed []uuid.UUID
	failed    map[uuid.UUID]string
}

func newQueueStore(queued ...*domain.Job) *queueStore {
	return &queueStore{queue: queued, failed: make(map[uuid.UUID]string)}
}

func (q *queueStore) EnqueueJob(ctx context.Context, params domain.EnqueueJobParams) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job := &domain.Job{ID: uuid.New(), JobType: params.JobType, Payload: params.Payload, TimeoutSeconds: 60}
	q.queue = append(q.queue, job)
	return job, nil
}

func (q *queueStore) ClaimNextJob(ctx context.Context, workerID string) (*domain.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil, domain.ErrNoJobAvailable
	}
	job := q.queue[0]
	q.queue = q.queue[1:]
	return job, nil
}

func (q *queueStore) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, jobID)
	return nil
}

func (q *queueStore) FailJob(ctx context.Context, jobID uuid.UUID, jobErr string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[jobID] = jobErr
	return nil
}

func (q *queueStore) PruneFinishedJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (q *queueStore) completedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed)
}

func (q *queueStore) failedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.failed)
}

func confirmationJob(t *testing.T) *domain.Job {
	t.Helper()
	payload, err := json.Marshal(jobs.OrderConfirmationPayload{
		OrderID:     uuid.New(),
		Email:       "customer@example.com",
		OrderNumber: "SCENT-AB12CD34",
		OrderDate:   time.Now(),
		Subtotal:    decimal.RequireFromString("20.00").StringFixed(2),
		TaxAmount:   decimal.RequireFromString("1.80").StringFixed(2),
		Total:       decimal.RequireFromString("21.80").StringFixed(2),
		Currency:    "SGD",
	})
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return &domain.Job{
		ID:             uuid.New(),
		JobType:        jobs.JobTypeOrderConfirmation,
		Payload:        payload,
		TimeoutSeconds: 60,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorker_ProcessesQueuedEmailJob(t *testing.T) {
	store := newQueueStore(confirmationJob(t))
	sender := email.NewMockSender()

	w := NewWorker(store, sender, Config{PollInterval: 10 * time.Millisecond}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return store.completedCount() == 1 })

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled on shutdown, got %v", err)
	}

	if sender.SentCount() != 1 {
		t.Errorf("expected 1 email sent, got %d", sender.SentCount())
	}
	if store.failedCount() != 0 {
		t.Errorf("expected no failed jobs, got %d", store.failedCount())
	}
}

func TestWorker_RecordsFailureForUnknownJobType(t *testing.T) {
	store := newQueueStore(&domain.Job{
		ID:             uuid.New(),
		JobType:        "unknown:job",
		Payload:        []byte("{}"),
		TimeoutSeconds: 60,
	})

	w := NewWorker(store, email.NewMockSender(), Config{PollInterval: 10 * time.Millisecond}, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	waitFor(t, 2*time.Second, func() bool { return store.failedCount() == 1 })

	cancel()
	<-done

	if store.completedCount() != 0 {
		t.Errorf("unknown job types must not complete, got %d completions", store.completedCount())
	}
}

func TestWorker_DefaultsConfig(t *testing.T) {
	w := NewWorker(newQueueStore(), email.NewMockSender(), Config{}, slog.New(slog.DiscardHandler))

	if w.config.WorkerID == "" {
		t.Error("expected a generated worker id")
	}
	if w.config.PollInterval != time.Second {
		t.Errorf("expected 1s default poll interval, got %s", w.config.PollInterval)
	}
	if w.config.MaxConcurrency != 5 {
		t.Errorf("expected default concurrency 5, got %d", w.config.MaxConcurrency)
	}
}
