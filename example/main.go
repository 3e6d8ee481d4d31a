package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/outship-io/outship"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to create logger")
	}

	// ------------------------------
	// Create Outship Client
	// ------------------------------
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic("failed to load aws config")
	}
	client, err := outship.NewFromConfig(cfg)
	if err != nil {
		panic("AWS session could not be established!")
	}

	// ------------------------------
	// Submit a job through the Trigger
	// ------------------------------
	trigger := outship.NewTrigger(client, outship.WithTriggerLogger(logger))
	out, err := trigger.Submit(ctx, &outship.SubmitJobInput{Action: "shippable"})
	if err != nil {
		panic("failed to submit job")
	}
	fmt.Println("submitted job:", out.Job.ID)

	// ------------------------------
	// Run it with a Worker
	// ------------------------------
	service := outship.NewService(client, client, outship.WithLogger(logger))
	counter := &Counter{runner: service}
	worker := outship.NewWorker(client, counter, outship.WithConcurrency(1), outship.WithWorkerLogger(logger))
	go func() {
		err = worker.StartWorking()
		if err != nil {
			fmt.Println(err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := worker.Shutdown(ctx); err != nil {
		fmt.Println("failed to worker shutdown:", err)
	}
}

// Counter prints a running count of the jobs it ran.
type Counter struct {
	runner outship.JobRunner
	Value  int
}

func (c *Counter) RunJob(ctx context.Context, job *outship.Job) (*outship.Summary, error) {
	c.Value++
	summary, err := c.runner.RunJob(ctx, job)
	fmt.Printf("value: %d, job: %s, summary: %+v\n", c.Value, job.ID, summary)
	return summary, err
}
