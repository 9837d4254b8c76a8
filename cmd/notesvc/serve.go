package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/usecase/api"
)

func newServeCmd(flags *globalFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, flags, version)
		},
	}
}

func serve(ctx context.Context, flags *globalFlags, version string) error {
	svc, err := newService(flags, serviceOptions(flags, version), serviceDependencies(true))
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	logger := svc.Logger()

	c, err := openClients(svc.Config())
	if err != nil {
		return err
	}
	c.register(svc)

	if err := prepare(ctx, c, logger); err != nil {
		_ = svc.Shutdown(context.Background())
		return err
	}

	agg, err := svc.RegisterProbes(c.probes()...)
	if err != nil {
		_ = svc.Shutdown(context.Background())
		return err
	}

	handler, err := api.NewHandler(api.Dependencies{
		Checker: agg,
		Counter: c.cache,
		Store:   c.store,
		Index:   c.search,
		Logger:  logger,
	})
	if err != nil {
		_ = svc.Shutdown(context.Background())
		return fmt.Errorf("creating api handler: %w", err)
	}
	handler.Register(svc.Router())

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	select {
	case err := <-errCh:
		_ = svc.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	if err := svc.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// prepare creates the notes table and reports whether search is reachable.
// Only the migration is fatal; search may come up after the API.
func prepare(ctx context.Context, c *clients, logger domainlog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	if err := c.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	logger.Info("Postgres ready")

	if err := c.search.Info(ctx); err != nil {
		logger.WarnWith("Elasticsearch not ready yet", domainlog.Fields{
			"error": err.Error(),
		})
		return nil
	}
	logger.Info("Elasticsearch reachable")
	return nil
}
