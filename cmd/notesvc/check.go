package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	adapterlog "github.com/damianoneill/notesvc/pkg/adapter/logging"
	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
)

// errNotReady is returned by check when any dependency is unhealthy. The
// report has already been printed, so main exits without a message.
var errNotReady = errors.New("dependencies not ready")

func newCheckCmd(flags *globalFlags, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Probe every dependency once and print the readiness report",
		Long: "Probe cache, database and search concurrently, print the report as JSON " +
			"and exit non-zero unless all of them are healthy. Suitable for container health checks.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return check(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), flags, version)
		},
	}
}

// check prints only the report on out; log lines go to logs whatever the
// configured level.
func check(ctx context.Context, out, logs io.Writer, flags *globalFlags, version string) error {
	opts := serviceOptions(flags, version)
	opts.LogLevel = domainlog.ErrorLevel
	opts.EnableConfigViewer = false
	opts.EnableLogConfig = false

	deps := serviceDependencies(false)
	deps.LoggerFactory = adapterlog.NewFactory(adapterlog.WithWriter(logs))

	svc, err := newService(flags, opts, deps)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	c, err := openClients(svc.Config())
	if err != nil {
		return err
	}
	c.register(svc)
	defer func() { _ = svc.Shutdown(context.Background()) }()

	agg, err := svc.RegisterProbes(c.probes()...)
	if err != nil {
		return err
	}

	report := agg.CheckReadiness(ctx)
	if err := json.NewEncoder(out).Encode(report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if !report.OK {
		return errNotReady
	}
	return nil
}
