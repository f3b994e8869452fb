package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/s22625/execmon/internal/config"
	"github.com/s22625/execmon/internal/logging"
	"github.com/s22625/execmon/internal/statusserver"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	Snapshot string
	Listen   string
	BasePath string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a snapshot file as a status endpoint",
		Long: `Serve <base-path>/api/status from a JSON or YAML snapshot file.

The file is read again on every request, so editing it changes what the
next refresh sees. Useful for trying the dashboard without a backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "Snapshot file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&opts.BasePath, "base-path", "", "Path prefix for the status endpoint")

	return cmd
}

func runServe(opts *serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	serveCfg, err := resolveServeConfig(cfg, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := statusserver.New(statusserver.FileSource{Path: serveCfg.Snapshot}, statusserver.Options{
		Listen:   serveCfg.Listen,
		BasePath: serveCfg.BasePath,
		Logger:   logger,
	})
	logger.Info("serving snapshot", logging.Field("snapshot", serveCfg.Snapshot))
	if err := srv.Start(ctx); err != nil {
		return withExitCode(err, ExitInternalError)
	}
	return nil
}

// resolveServeConfig applies serve flags over the serve section of cfg.
func resolveServeConfig(cfg *config.Config, opts *serveOptions) (config.ServeConfig, error) {
	sc := cfg.Serve
	if opts.Snapshot != "" {
		sc.Snapshot = config.ExpandPath(opts.Snapshot, "")
	}
	if opts.Listen != "" {
		sc.Listen = opts.Listen
	}
	if opts.BasePath != "" {
		sc.BasePath = opts.BasePath
	}
	if sc.Listen == "" {
		sc.Listen = config.DefaultListen
	}
	if sc.Snapshot == "" {
		return sc, withExitCode(fmt.Errorf("snapshot file not specified (use --snapshot or serve.snapshot in config)"), ExitConfigError)
	}
	if _, err := os.Stat(sc.Snapshot); err != nil {
		return sc, withExitCode(fmt.Errorf("snapshot file: %w", err), ExitConfigError)
	}
	sc.BasePath = statusserver.NormalizeBasePath(sc.BasePath)
	return sc, nil
}
