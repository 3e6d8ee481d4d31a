package outship_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/memstore"
	"github.com/outship-io/outship/internal/mock"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWorkerRunsJobs(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	trigger := outship.NewTrigger(store)
	var ids []string
	for _, action := range []string{"wosync", "shippable", "mr"} {
		out, err := trigger.Submit(ctx, &outship.SubmitJobInput{Action: action, DocumentID: "1"})
		if err != nil {
			t.Fatalf("Submit(%s) error = %v", action, err)
		}
		ids = append(ids, out.Job.ID)
	}

	var runs int32
	runner := outship.JobRunnerFunc(func(_ context.Context, job *outship.Job) (*outship.Summary, error) {
		atomic.AddInt32(&runs, 1)
		if job.Action == outship.ActionRunFulfillment {
			return &outship.Summary{}, errors.New("not eligible")
		}
		return &outship.Summary{Evaluated: 1, Saved: 1}, nil
	})
	worker := outship.NewWorker(store, runner,
		outship.WithPollingInterval(10*time.Millisecond),
		outship.WithConcurrency(2))
	done := make(chan error, 1)
	go func() { done <- worker.StartWorking() }()

	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 3 })
	waitFor(t, func() bool {
		for _, id := range ids {
			job, err := store.GetJob(ctx, id)
			if err != nil || job.Status == outship.JobStatusQueued || job.Status == outship.JobStatusRunning {
				return false
			}
		}
		return true
	})
	if err := worker.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; !errors.Is(err, outship.ErrWorkerClosed) {
		t.Errorf("StartWorking() error = %v, want %v", err, outship.ErrWorkerClosed)
	}

	want := []outship.JobStatus{outship.JobStatusSucceeded, outship.JobStatusSucceeded, outship.JobStatusFailed}
	for i, id := range ids {
		job, _ := store.GetJob(ctx, id)
		if job.Status != want[i] {
			t.Errorf("job %d status got = %v, want %v", i, job.Status, want[i])
		}
		if job.Summary == nil {
			t.Errorf("job %d has no summary", i)
		}
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Errorf("runs got = %d, want 3 (failed jobs are not retried)", got)
	}
}

func TestWorkerStopsOnPermanentError(t *testing.T) {
	queue := mock.Client{
		ReceiveJobFunc: func(context.Context, *outship.ReceiveJobInput) (*outship.Job, error) {
			return nil, outship.UnmarshalingAttributeError{Cause: errors.New("bad item")}
		},
	}
	worker := outship.NewWorker(queue, outship.JobRunnerFunc(func(context.Context, *outship.Job) (*outship.Summary, error) {
		return nil, nil
	}))
	err := worker.StartWorking()
	if !errors.As(err, new(outship.UnmarshalingAttributeError)) {
		t.Errorf("StartWorking() error = %v, want UnmarshalingAttributeError", err)
	}
}

func TestWorkerShutdownRunsHooks(t *testing.T) {
	store := memstore.New()
	called := make(chan struct{})
	worker := outship.NewWorker(store, outship.JobRunnerFunc(func(context.Context, *outship.Job) (*outship.Summary, error) {
		return nil, nil
	}), outship.WithPollingInterval(time.Hour), outship.WithOnShutdown([]func(){func() { close(called) }}))
	done := make(chan error, 1)
	go func() { done <- worker.StartWorking() }()
	time.Sleep(20 * time.Millisecond)
	if err := worker.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Error("OnShutdown hook was not called")
	}
	if err := <-done; !errors.Is(err, outship.ErrWorkerClosed) {
		t.Errorf("StartWorking() error = %v, want %v", err, outship.ErrWorkerClosed)
	}
}

func TestReceiveJobRedeliversExpiredLease(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := memstore.New()
	if err := store.SubmitJob(ctx, outship.NewJob("job-1", outship.ActionSyncWorkOrders, 0, now)); err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	store.Clock = mock.Clock{T: now}
	first, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute})
	if err != nil {
		t.Fatalf("ReceiveJob() error = %v", err)
	}
	if _, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute}); !errors.As(err, new(outship.EmptyQueueError)) {
		t.Errorf("ReceiveJob() within lease error = %v, want EmptyQueueError", err)
	}
	store.Clock = mock.Clock{T: now.Add(2 * time.Minute)}
	second, err := store.ReceiveJob(ctx, &outship.ReceiveJobInput{VisibilityTimeout: time.Minute})
	if err != nil {
		t.Fatalf("ReceiveJob() after lease error = %v", err)
	}
	if second.ReceiveCount != 2 {
		t.Errorf("ReceiveCount got = %d, want 2", second.ReceiveCount)
	}
	if err := first.MarkAsFinished(now, nil, nil); err != nil {
		t.Fatalf("MarkAsFinished() error = %v", err)
	}
	if err := store.CompleteJob(ctx, first); !errors.As(err, new(outship.ConditionalCheckFailedError)) {
		t.Errorf("CompleteJob() with stale job error = %v, want ConditionalCheckFailedError", err)
	}
}
