package outship

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/outship-io/outship/internal/clock"
	"github.com/outship-io/outship/internal/constant"
	"go.uber.org/zap"
)

// ErrWorkerClosed is returned by StartWorking after Shutdown.
var ErrWorkerClosed = errors.New("outship: Worker closed")

// WorkerOptions contains configuration options for a Worker instance.
type WorkerOptions struct {
	// PollingInterval is the pause between polls of an empty queue.
	PollingInterval time.Duration
	// Concurrency sets the number of jobs run at the same time.
	Concurrency int
	// VisibilityTimeout is the running lease taken on each received job.
	VisibilityTimeout time.Duration
	Logger            *zap.Logger
	Clock             clock.Clock
	// OnShutdown is a slice of functions called when the Worker is shutting down.
	OnShutdown []func()
}

func WithPollingInterval(pollingInterval time.Duration) func(o *WorkerOptions) {
	return func(o *WorkerOptions) {
		o.PollingInterval = pollingInterval
	}
}

func WithConcurrency(concurrency int) func(o *WorkerOptions) {
	return func(o *WorkerOptions) {
		o.Concurrency = concurrency
	}
}

func WithVisibilityTimeout(d time.Duration) func(o *WorkerOptions) {
	return func(o *WorkerOptions) {
		o.VisibilityTimeout = d
	}
}

func WithWorkerLogger(logger *zap.Logger) func(o *WorkerOptions) {
	return func(o *WorkerOptions) {
		o.Logger = logger
	}
}

func WithWorkerClock(c clock.Clock) func(o *WorkerOptions) {
	return func(o *WorkerOptions) {
		o.Clock = c
	}
}

func WithOnShutdown(onShutdown []func()) func(o *WorkerOptions) {
	return func(o *WorkerOptions) {
		o.OnShutdown = onShutdown
	}
}

// JobRunner executes the batch a job selects.
type JobRunner interface {
	RunJob(ctx context.Context, job *Job) (*Summary, error)
}

// JobRunnerFunc is a functional type that implements the JobRunner interface.
type JobRunnerFunc func(ctx context.Context, job *Job) (*Summary, error)

func (f JobRunnerFunc) RunJob(ctx context.Context, job *Job) (*Summary, error) {
	return f(ctx, job)
}

func NewWorker(queue JobQueue, runner JobRunner, opts ...func(o *WorkerOptions)) *Worker {
	o := &WorkerOptions{
		PollingInterval:   constant.DefaultPollingInterval,
		Concurrency:       constant.DefaultWorkerConcurrency,
		VisibilityTimeout: constant.DefaultVisibilityTimeout,
		Logger:            zap.NewNop(),
		Clock:             &clock.RealClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	return &Worker{
		queue:             queue,
		runner:            runner,
		pollingInterval:   o.PollingInterval,
		concurrency:       o.Concurrency,
		visibilityTimeout: o.VisibilityTimeout,
		logger:            o.Logger,
		clock:             o.Clock,
		onShutdown:        o.OnShutdown,
		activeJobs:        make(map[*Job]struct{}),
		doneChan:          make(chan struct{}),
	}
}

// Worker takes jobs from the queue and runs them. A failed job is recorded
// as FAILED and never retried; submitting it again is the recovery path.
type Worker struct {
	queue             JobQueue
	runner            JobRunner
	pollingInterval   time.Duration
	concurrency       int
	visibilityTimeout time.Duration
	logger            *zap.Logger
	clock             clock.Clock
	onShutdown        []func()

	inShutdown   int32
	mu           sync.Mutex
	activeJobs   map[*Job]struct{}
	activeJobsWG sync.WaitGroup
	doneChan     chan struct{}
}

// StartWorking polls the queue until Shutdown is called or receiving fails
// with an error that is not temporary.
func (w *Worker) StartWorking() error {
	jobChan := make(chan *Job, w.concurrency)
	defer close(jobChan)

	for i := 0; i < w.concurrency; i++ {
		go func() {
			for job := range jobChan {
				w.trackAndRunJob(context.Background(), job)
			}
		}()
	}

	for {
		if w.shuttingDown() {
			return ErrWorkerClosed
		}
		ctx := context.Background()
		job, err := w.queue.ReceiveJob(ctx, &ReceiveJobInput{
			VisibilityTimeout: w.visibilityTimeout,
		})
		if err != nil {
			if w.shuttingDown() {
				return ErrWorkerClosed
			}
			if !isTemporary(err) {
				return fmt.Errorf("outship: Failed to receive a job: %w", err)
			}
			w.sleep()
			continue
		}
		w.trackJob(job, true)
		jobChan <- job
	}
}

func (w *Worker) sleep() {
	select {
	case <-w.doneChan:
	case <-time.After(w.pollingInterval):
	}
}

func (w *Worker) trackAndRunJob(ctx context.Context, job *Job) {
	defer w.trackJob(job, false)
	w.runJob(ctx, job)
}

func (w *Worker) runJob(ctx context.Context, job *Job) {
	summary, runErr := w.runner.RunJob(ctx, job)
	if runErr != nil {
		w.logger.Error("job failed",
			zap.String("job_id", job.ID),
			zap.String("action", string(job.Action)),
			zap.Error(runErr))
	}
	if err := job.MarkAsFinished(w.clock.Now(), summary, runErr); err != nil {
		w.logger.Error("failed to mark job as finished", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	if err := w.queue.CompleteJob(ctx, job); err != nil {
		w.logger.Error("failed to complete job", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("action", string(job.Action)),
		zap.String("status", string(job.Status)),
	}
	if summary != nil {
		fields = append(fields,
			zap.Int("evaluated", summary.Evaluated),
			zap.Int("saved", summary.Saved),
			zap.Int("errors", summary.Errors))
	}
	w.logger.Info("job finished", fields...)
}

func (w *Worker) trackJob(job *Job, add bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if add {
		w.activeJobs[job] = struct{}{}
		w.activeJobsWG.Add(1)
	} else {
		delete(w.activeJobs, job)
		w.activeJobsWG.Done()
	}
}

func (w *Worker) shuttingDown() bool {
	return atomic.LoadInt32(&w.inShutdown) != 0
}

// Shutdown stops polling and waits for running jobs or ctx, whichever comes
// first.
func (w *Worker) Shutdown(ctx context.Context) error {
	atomic.StoreInt32(&w.inShutdown, 1)

	w.mu.Lock()
	w.closeDoneChanLocked()
	for _, f := range w.onShutdown {
		go f()
	}
	w.mu.Unlock()

	finished := make(chan struct{}, 1)
	go func() {
		w.activeJobsWG.Wait()
		finished <- struct{}{}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-finished:
		return nil
	}
}

func (w *Worker) closeDoneChanLocked() {
	select {
	case <-w.doneChan:
	default:
		close(w.doneChan)
	}
}

func isTemporary(err error) bool {
	var (
		conditionalCheckFailedError ConditionalCheckFailedError
		dynamoDBAPIError            DynamoDBAPIError
		emptyQueueError             EmptyQueueError
	)
	switch {
	case errors.As(err, &conditionalCheckFailedError),
		errors.As(err, &dynamoDBAPIError),
		errors.As(err, &emptyQueueError):
		return true
	default:
		return false
	}
}
