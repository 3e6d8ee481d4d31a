package outship

import (
	"context"

	"github.com/google/uuid"
	"github.com/outship-io/outship/internal/clock"
	"go.uber.org/zap"
)

// TriggerOptions holds configuration options for a Trigger.
type TriggerOptions struct {
	// IDGenerator generates job ids. The default ID generator is uuid.NewString.
	IDGenerator func() string
	Clock       clock.Clock
	Logger      *zap.Logger
}

// WithIDGenerator is an option function to set a custom ID generator for the Trigger.
func WithIDGenerator(idGenerator func() string) func(o *TriggerOptions) {
	return func(o *TriggerOptions) {
		o.IDGenerator = idGenerator
	}
}

func WithTriggerClock(c clock.Clock) func(o *TriggerOptions) {
	return func(o *TriggerOptions) {
		o.Clock = c
	}
}

func WithTriggerLogger(logger *zap.Logger) func(o *TriggerOptions) {
	return func(o *TriggerOptions) {
		o.Logger = logger
	}
}

// NewTrigger creates a Trigger that submits jobs to the queue.
func NewTrigger(queue JobQueue, opts ...func(o *TriggerOptions)) *Trigger {
	o := &TriggerOptions{
		IDGenerator: uuid.NewString,
		Clock:       &clock.RealClock{},
		Logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Trigger{
		queue:       queue,
		idGenerator: o.IDGenerator,
		clock:       o.Clock,
		logger:      o.Logger,
	}
}

// Trigger is the operator entry point for batch jobs.
type Trigger struct {
	queue       JobQueue
	idGenerator func() string
	clock       clock.Clock
	logger      *zap.Logger
}

type SubmitJobInput struct {
	// Action is an action name or short selector.
	Action string
	// DocumentID optionally scopes the job to one shipment. Strings and
	// numbers are both accepted.
	DocumentID any
}

type SubmitJobOutput struct {
	Job *Job
}

// Submit validates the request and enqueues the job. The returned job ID is
// the handle for polling its outcome.
func (t *Trigger) Submit(ctx context.Context, params *SubmitJobInput) (*SubmitJobOutput, error) {
	if params == nil {
		params = &SubmitJobInput{}
	}
	action, err := ParseAction(params.Action)
	if err != nil {
		return &SubmitJobOutput{}, err
	}
	documentID, err := ParseID(params.DocumentID)
	if err != nil {
		return &SubmitJobOutput{}, err
	}
	if action.RequiresDocument() && documentID.IsZero() {
		return &SubmitJobOutput{}, IDNotProvidedError{}
	}
	job := NewJob(t.idGenerator(), action, documentID, t.clock.Now())
	if err := t.queue.SubmitJob(ctx, job); err != nil {
		return &SubmitJobOutput{}, err
	}
	t.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.String("action", string(job.Action)),
		zap.Int64("document_id", int64(job.DocumentID)))
	return &SubmitJobOutput{Job: job}, nil
}
