package memstore

import (
	"context"
	"sort"

	"github.com/outship-io/outship"
	"github.com/outship-io/outship/internal/clock"
)

func cloneJob(j *outship.Job) *outship.Job {
	c := *j
	if j.Summary != nil {
		s := *j.Summary
		c.Summary = &s
	}
	return &c
}

func (m *Store) SubmitJob(_ context.Context, job *outship.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job == nil || job.ID == "" {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("SubmitJob", job.ID); err != nil {
		return err
	}
	if _, ok := m.jobs[job.ID]; ok || job.Version != 0 {
		return outship.IDDuplicatedError{}
	}
	job.Version++
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

// sortedJobs orders jobs oldest first.
func (m *Store) sortedJobs() []*outship.Job {
	jobs := make([]*outship.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	sort.SliceStable(jobs, func(i, k int) bool {
		ti := clock.RFC3339NanoToTime(jobs[i].CreatedAt)
		tk := clock.RFC3339NanoToTime(jobs[k].CreatedAt)
		if ti.Equal(tk) {
			return jobs[i].ID < jobs[k].ID
		}
		return ti.Before(tk)
	})
	return jobs
}

func (m *Store) ReceiveJob(_ context.Context, params *outship.ReceiveJobInput) (*outship.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ReceiveJob", nil); err != nil {
		return nil, err
	}
	if params == nil {
		params = &outship.ReceiveJobInput{}
	}
	now := m.now().Now()
	jobs := m.sortedJobs()
	for _, status := range []outship.JobStatus{outship.JobStatusQueued, outship.JobStatusRunning} {
		for _, j := range jobs {
			if j.Status != status || !j.Receivable(now) {
				continue
			}
			if err := j.MarkAsRunning(now, params.VisibilityTimeout); err != nil {
				continue
			}
			j.Version++
			return cloneJob(j), nil
		}
	}
	return nil, outship.EmptyQueueError{}
}

func (m *Store) CompleteJob(_ context.Context, job *outship.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job == nil || job.ID == "" {
		return outship.IDNotProvidedError{}
	}
	if err := m.fail("CompleteJob", job.ID); err != nil {
		return err
	}
	cur, ok := m.jobs[job.ID]
	if !ok {
		return outship.IDNotFoundError{}
	}
	if cur.Version != job.Version {
		return outship.ConditionalCheckFailedError{Cause: outship.InvalidStateTransitionError{
			Msg:       "job was received again",
			Operation: "complete",
			Current:   cur.Status,
		}}
	}
	job.Version++
	m.jobs[job.ID] = cloneJob(job)
	return nil
}

func (m *Store) GetJob(_ context.Context, id string) (*outship.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		return nil, outship.IDNotProvidedError{}
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, outship.IDNotFoundError{}
	}
	return cloneJob(j), nil
}

func (m *Store) ListJobs(_ context.Context, size int) ([]*outship.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jobs := m.sortedJobs()
	out := make([]*outship.Job, 0, len(jobs))
	for i := len(jobs) - 1; i >= 0; i-- {
		out = append(out, cloneJob(jobs[i]))
	}
	if size > 0 && len(out) > size {
		out = out[:size]
	}
	return out, nil
}

var _ outship.Client = (*Store)(nil)
