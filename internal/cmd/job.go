package cmd

import (
	"context"

	"github.com/outship-io/outship"
	"github.com/spf13/cobra"
)

func (f CommandFactory) CreateSubmitCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "submit",
		Short: "Submit a batch job to the queue",
		Long: `Submit a batch job to the queue. The printed job ID is the handle for polling its outcome
with the job command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			trigger := outship.NewTrigger(s.client, outship.WithTriggerLogger(s.logger))
			in := &outship.SubmitJobInput{Action: flgs.Action}
			if flgs.ID != "" {
				in.DocumentID = flgs.ID
			}
			out, err := trigger.Submit(ctx, in)
			if err != nil {
				return err
			}
			printMessageWithData(f.stdout(), "", out.Job)
			return nil
		},
	}
	setStringFlag(c, &flgs.Action, flagMap.Action)
	setStringFlag(c, &flgs.ID, flagMap.ID)
	return c
}

func (f CommandFactory) CreateJobCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "job",
		Short: "Get a submitted job with its status and summary",
		Long:  `Get a submitted job with its status and summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			if flgs.JobID == "" {
				return outship.IDNotProvidedError{}
			}
			job, err := s.client.GetJob(ctx, flgs.JobID)
			if err != nil {
				return errorWithID(err, flgs.JobID)
			}
			printMessageWithData(f.stdout(), "", job)
			return nil
		},
	}
	setStringFlag(c, &flgs.JobID, flagMap.JobID)
	return c
}

type JobsResult struct {
	Jobs []JobStatus `json:"jobs"`
}

type JobStatus struct {
	ID         string            `json:"id"`
	Action     outship.Action    `json:"action"`
	DocumentID outship.ID        `json:"document_id"`
	Status     outship.JobStatus `json:"status"`
	CreatedAt  string            `json:"created_at"`
}

func (f CommandFactory) CreateJobsCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "jobs",
		Short: "List the latest jobs, newest first",
		Long:  `List the latest jobs, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			jobs, err := s.client.ListJobs(ctx, flgs.Size)
			if err != nil {
				return err
			}
			result := JobsResult{Jobs: make([]JobStatus, 0, len(jobs))}
			for _, j := range jobs {
				result.Jobs = append(result.Jobs, JobStatus{
					ID:         j.ID,
					Action:     j.Action,
					DocumentID: j.DocumentID,
					Status:     j.Status,
					CreatedAt:  j.CreatedAt,
				})
			}
			printMessageWithData(f.stdout(), "", result)
			return nil
		},
	}
	c.Flags().IntVar(&flgs.Size, flagMap.Size.Name, flagMap.Size.Value, flagMap.Size.Usage)
	return c
}
