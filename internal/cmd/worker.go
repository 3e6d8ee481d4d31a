package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/outship-io/outship"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (f CommandFactory) CreateWorkerCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run queued jobs until interrupted",
		Long: `Run queued jobs until interrupted. On SIGINT or SIGTERM the worker stops polling and waits
for running jobs up to the visibility timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := f.notifyContext(context.Background())
			defer stop()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			defer func() { _ = s.logger.Sync() }()
			opts := append(s.cfg.WorkerOptions(), outship.WithWorkerLogger(s.logger))
			w := outship.NewWorker(s.client, s.service(), opts...)

			errCh := make(chan error, 1)
			go func() {
				errCh <- w.StartWorking()
			}()
			s.logger.Info("worker started",
				zap.String("table_name", s.cfg.Table.Name),
				zap.Int("concurrency", s.cfg.Worker.Concurrency))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			s.logger.Info("worker shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Worker.VisibilityTimeout)
			defer cancel()
			if err := w.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, outship.ErrWorkerClosed) {
				return err
			}
			return nil
		},
	}
}

func (f CommandFactory) CreateServeCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger endpoint until interrupted",
		Long: `Serve the HTTP trigger endpoint until interrupted.
POST /jobs submits a job with the action and id parameters; GET /jobs/{id} polls it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := f.notifyContext(context.Background())
			defer stop()
			s, err := f.open(ctx, flgs)
			if err != nil {
				return err
			}
			defer func() { _ = s.logger.Sync() }()
			trigger := outship.NewTrigger(s.client, outship.WithTriggerLogger(s.logger))
			srv := &http.Server{
				Addr:    s.cfg.HTTP.Addr,
				Handler: outship.NewTriggerHandler(trigger, s.client, s.logger),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			s.logger.Info("trigger endpoint started", zap.String("addr", srv.Addr))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Worker.VisibilityTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	setStringFlag(c, &flgs.HTTPAddr, flagMap.HTTPAddr)
	return c
}
