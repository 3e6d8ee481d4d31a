package outship

import (
	"context"
	"errors"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/outship-io/outship/internal/clock"
)

func (c *ClientImpl) SubmitJob(ctx context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return IDNotProvidedError{}
	}
	if job.Version != 0 {
		return IDDuplicatedError{}
	}
	err := c.putVersioned(ctx, recordTypeJob, job.ID, job.queueRef(), job, &job.Version)
	if errors.As(err, new(ConditionalCheckFailedError)) {
		return IDDuplicatedError{}
	}
	return err
}

// ReceiveJob takes the oldest queued job, falling back to running jobs whose
// lease expired. A job claimed concurrently by another worker is skipped.
func (c *ClientImpl) ReceiveJob(ctx context.Context, params *ReceiveJobInput) (*Job, error) {
	if params == nil {
		params = &ReceiveJobInput{}
	}
	now := c.clock.Now()
	for _, status := range []JobStatus{JobStatusQueued, JobStatusRunning} {
		jobs, err := c.queryJobs(ctx, status)
		if err != nil {
			return nil, err
		}
		for _, job := range jobs {
			if !job.Receivable(now) {
				continue
			}
			if err := job.MarkAsRunning(now, params.VisibilityTimeout); err != nil {
				continue
			}
			err := c.putVersioned(ctx, recordTypeJob, job.ID, job.queueRef(), job, &job.Version)
			if errors.As(err, new(ConditionalCheckFailedError)) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return job, nil
		}
	}
	return nil, EmptyQueueError{}
}

func (c *ClientImpl) CompleteJob(ctx context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return IDNotProvidedError{}
	}
	return c.putVersioned(ctx, recordTypeJob, job.ID, job.queueRef(), job, &job.Version)
}

func (c *ClientImpl) GetJob(ctx context.Context, id string) (*Job, error) {
	if id == "" {
		return nil, IDNotProvidedError{}
	}
	job := &Job{}
	if err := c.getRecord(ctx, recordTypeJob, id, job); err != nil {
		if errors.Is(err, errRecordNotFound) {
			return nil, IDNotFoundError{}
		}
		return nil, err
	}
	return job, nil
}

// ListJobs returns up to size jobs, newest first.
func (c *ClientImpl) ListJobs(ctx context.Context, size int) ([]*Job, error) {
	jobs, err := c.queryJobs(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return clock.RFC3339NanoToTime(jobs[i].CreatedAt).After(clock.RFC3339NanoToTime(jobs[j].CreatedAt))
	})
	if size > 0 && len(jobs) > size {
		jobs = jobs[:size]
	}
	return jobs, nil
}

// queryJobs returns the jobs of one status oldest first. An empty status
// returns every job.
func (c *ClientImpl) queryJobs(ctx context.Context, status JobStatus) ([]*Job, error) {
	prefix := ""
	if status != "" {
		prefix = string(status) + "#"
	}
	var jobs []*Job
	err := c.queryIndex(ctx, recordTypeJob, prefix, nil, func(items []map[string]types.AttributeValue) error {
		var page []*Job
		if err := c.unmarshalListOfMaps(items, &page); err != nil {
			return UnmarshalingAttributeError{Cause: err}
		}
		jobs = append(jobs, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
