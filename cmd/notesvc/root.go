package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	adapterconfig "github.com/damianoneill/notesvc/pkg/adapter/config"
	adapterhttp "github.com/damianoneill/notesvc/pkg/adapter/http"
	adapterlog "github.com/damianoneill/notesvc/pkg/adapter/logging"
	adaptermetrics "github.com/damianoneill/notesvc/pkg/adapter/metrics"
	adaptertracing "github.com/damianoneill/notesvc/pkg/adapter/tracing"
	domainlog "github.com/damianoneill/notesvc/pkg/domain/logging"
	"github.com/damianoneill/notesvc/pkg/usecase/bootstrap"
)

const serviceName = "notesvc"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	logLevel   string
	envFile    string
}

func newRootCmd(version string) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Notes demo API over Redis, PostgreSQL and Elasticsearch",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnvFile(flags.envFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before configuration; ignored when missing")

	root.AddCommand(newServeCmd(&flags, version))
	root.AddCommand(newCheckCmd(&flags, version))
	return root
}

// loadEnvFile exports the variables in path without overriding ones that
// are already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// serviceOptions describes the service shared by serve and check.
func serviceOptions(flags *globalFlags, version string) bootstrap.Options {
	return bootstrap.Options{
		ServiceName:        serviceName,
		Version:            version,
		ConfigFile:         flags.configFile,
		ConfigDefaults:     configDefaults(),
		EnvBindings:        envBindings,
		EnableConfigViewer: true,
		LogLevel:           domainlog.InfoLevel,
		EnableLogConfig:    true,
		ExcludeFromLogging: []string{"/internal/*", "/metrics"},
		ExcludeFromTracing: []string{"/internal/*", "/metrics"},
	}
}

func serviceDependencies(withMetrics bool) bootstrap.Dependencies {
	deps := bootstrap.Dependencies{
		ConfigFactory: adapterconfig.NewFactory(),
		LoggerFactory: adapterlog.NewFactory(),
		RouterFactory: adapterhttp.NewFactory(),
		TracerFactory: adaptertracing.NewFactory(),
	}
	if withMetrics {
		deps.MetricsFactory = adaptermetrics.NewMetricsFactory()
	}
	return deps
}

// newService builds the bootstrap service and applies --log-level.
func newService(flags *globalFlags, opts bootstrap.Options, deps bootstrap.Dependencies) (*bootstrap.Service, error) {
	svc, err := bootstrap.NewService(opts, deps, nil)
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		if leveled, ok := svc.Logger().(domainlog.LeveledLogger); ok {
			leveled.SetLevel(domainlog.ParseLevel(flags.logLevel))
		}
	}
	return svc, nil
}
