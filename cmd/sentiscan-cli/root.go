package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	service "github.com/okian/sentiscan/internal/app"
	"github.com/okian/sentiscan/internal/config"
	"github.com/okian/sentiscan/pkg/logger"
)

// serviceFactory builds an unstarted service from the global flags.
type serviceFactory func(ctx context.Context, f globalFlags, log logger.Logger) (*service.Service, error)

type globalFlags struct {
	backend  string
	dataDir  string
	logLevel string
	json     bool
}

type cli struct {
	out     io.Writer
	factory serviceFactory
	flags   globalFlags
	log     logger.Logger
	svc     *service.Service
}

func newCLI(out io.Writer, factory serviceFactory) *cli {
	return &cli{out: out, factory: factory}
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:   "sentiscan-cli",
		Short: "Play Store review sentiment from the command line",
		Long: `sentiscan-cli fetches, stores and analyzes Play Store reviews.

Example usage:
  sentiscan-cli apps
  sentiscan-cli analyze --app Singtel --start 2024-01-01 --end 2024-01-07
  sentiscan-cli compare --app com.singtel.mysingtel --a 2024-01-01:2024-01-07 --b 2024-01-08:2024-01-14
  sentiscan-cli snapshots list --app com.singtel.mysingtel
  sentiscan-cli snapshots clear`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.flags.logLevel != "" {
				if err := logger.SetLevelString(c.flags.logLevel); err != nil {
					return err
				}
			}
			c.log = logger.Get().Named("cli").With(logger.String("run_id", uuid.NewString()))
			return nil
		},
	}
	root.SetOut(c.out)

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.backend, "backend", "", "storage backend: file, sqlite or memory (default from config)")
	pf.StringVar(&c.flags.dataDir, "data-dir", "", "data directory (default from config)")
	pf.StringVar(&c.flags.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.BoolVar(&c.flags.json, "json", false, "output as JSON")

	root.AddCommand(
		c.appsCmd(),
		c.analyzeCmd(),
		c.compareCmd(),
		c.compareAppsCmd(),
		c.versionsCmd(),
		c.snapshotsCmd(),
		c.summariesCmd(),
	)
	return root
}

// service lazily builds and starts the service on first use.
func (c *cli) service(ctx context.Context) (*service.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, err := c.factory(ctx, c.flags, c.log)
	if err != nil {
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	c.svc = svc
	return svc, nil
}

func (c *cli) close() {
	if c.svc != nil {
		c.svc.Stop()
		c.svc = nil
	}
}

// configuredService loads the shared configuration and applies flag overrides.
func configuredService(ctx context.Context, f globalFlags, log logger.Logger) (*service.Service, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f.backend != "" {
		cfg.StorageBackend = f.backend
	}
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if err := config.Validate(ctx, cfg); err != nil {
		return nil, err
	}
	opts, err := service.FromConfig(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return service.New(opts...), nil
}
