package outship

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/outship-io/outship/internal/clock"
)

// Action selects the batch a job runs.
type Action string

const (
	ActionRunFulfillment Action = "run-fulfillment"
	ActionCheckShippable Action = "check-shippable"
	ActionSyncWorkOrders Action = "sync-work-orders"
)

var actionAliases = map[string]Action{
	"mr":        ActionRunFulfillment,
	"shippable": ActionCheckShippable,
	"wosync":    ActionSyncWorkOrders,
}

// ParseAction accepts an action name or one of its short selectors.
func ParseAction(s string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch a := Action(name); a {
	case ActionRunFulfillment, ActionCheckShippable, ActionSyncWorkOrders:
		return a, nil
	}
	if a, ok := actionAliases[name]; ok {
		return a, nil
	}
	return "", InvalidActionError{Action: s}
}

// RequiresDocument reports whether the action needs a shipment id.
func (a Action) RequiresDocument() bool {
	return a == ActionRunFulfillment
}

type JobStatus string

const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Job is a submitted batch run.
type Job struct {
	ID           string    `json:"id" dynamodbav:"id"`
	Action       Action    `json:"action" dynamodbav:"action"`
	DocumentID   ID        `json:"document_id" dynamodbav:"document_id"`
	Status       JobStatus `json:"status" dynamodbav:"status"`
	Version      int       `json:"version" dynamodbav:"version"`
	ReceiveCount int       `json:"receive_count" dynamodbav:"receive_count"`
	CreatedAt    string    `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    string    `json:"updated_at" dynamodbav:"updated_at"`
	StartedAt    string    `json:"started_at,omitempty" dynamodbav:"started_at,omitempty"`
	FinishedAt   string    `json:"finished_at,omitempty" dynamodbav:"finished_at,omitempty"`
	// InvisibleUntil is the end of the running lease in Unix milliseconds.
	InvisibleUntil int64    `json:"invisible_until" dynamodbav:"invisible_until"`
	Summary        *Summary `json:"summary,omitempty" dynamodbav:"summary,omitempty"`
	Error          string   `json:"error,omitempty" dynamodbav:"error,omitempty"`
}

func NewJob(id string, action Action, documentID ID, now time.Time) *Job {
	ts := clock.FormatRFC3339Nano(now)
	return &Job{
		ID:         id,
		Action:     action,
		DocumentID: documentID,
		Status:     JobStatusQueued,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

// Receivable reports whether a worker may take the job: it is queued, or
// its running lease expired.
func (j *Job) Receivable(now time.Time) bool {
	switch j.Status {
	case JobStatusQueued:
		return true
	case JobStatusRunning:
		return now.UnixMilli() >= j.InvisibleUntil
	}
	return false
}

func (j *Job) MarkAsRunning(now time.Time, visibilityTimeout time.Duration) error {
	if !j.Receivable(now) {
		return InvalidStateTransitionError{
			Msg:       "job is not receivable",
			Operation: "mark as running",
			Current:   j.Status,
		}
	}
	ts := clock.FormatRFC3339Nano(now)
	j.Status = JobStatusRunning
	j.ReceiveCount++
	j.StartedAt = ts
	j.UpdatedAt = ts
	j.InvisibleUntil = now.Add(visibilityTimeout).UnixMilli()
	return nil
}

// MarkAsFinished records the outcome of a run.
func (j *Job) MarkAsFinished(now time.Time, summary *Summary, runErr error) error {
	if j.Status != JobStatusRunning {
		return InvalidStateTransitionError{
			Msg:       "job is not running",
			Operation: "mark as finished",
			Current:   j.Status,
		}
	}
	ts := clock.FormatRFC3339Nano(now)
	j.Status = JobStatusSucceeded
	j.Error = ""
	if runErr != nil {
		j.Status = JobStatusFailed
		j.Error = runErr.Error()
	}
	j.Summary = summary
	j.FinishedAt = ts
	j.UpdatedAt = ts
	j.InvisibleUntil = 0
	return nil
}

// queueRef orders jobs of one status by creation time.
func (j *Job) queueRef() string {
	return fmt.Sprintf("%s#%020d#%s", j.Status, clock.RFC3339NanoToTime(j.CreatedAt).UnixNano(), j.ID)
}

// JobQueue stores submitted jobs and hands them to workers.
type JobQueue interface {
	// SubmitJob stores a new job. An existing ID yields IDDuplicatedError.
	SubmitJob(ctx context.Context, job *Job) error
	// ReceiveJob marks the oldest receivable job as running and returns it.
	// An empty queue yields EmptyQueueError.
	ReceiveJob(ctx context.Context, params *ReceiveJobInput) (*Job, error)
	// CompleteJob saves a finished job.
	CompleteJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, size int) ([]*Job, error)
}

type ReceiveJobInput struct {
	// VisibilityTimeout is the running lease. The job is re-delivered when
	// it expires without completion.
	VisibilityTimeout time.Duration
}
