package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/s22625/execmon/internal/logging"
	"github.com/s22625/execmon/internal/monitor"
	"github.com/spf13/cobra"
)

type monitorOptions struct {
	Columns         []string
	RefreshInterval string
}

func newMonitorCmd() *cobra.Command {
	opts := &monitorOptions{}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Interactive dashboard of live and past executions",
		Long: `Open the execution history dashboard. It refreshes once on start; press r
to refresh again, or set --refresh-interval (refresh_interval in config) to
poll periodically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Execution fields to show as columns (field[:width])")
	cmd.Flags().StringVar(&opts.RefreshInterval, "refresh-interval", "", "Refresh periodically, e.g. 30s (0 disables)")

	return cmd
}

func runMonitor(opts *monitorOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(opts.Columns) > 0 {
		cfg.Monitor.Columns = opts.Columns
	}
	if opts.RefreshInterval != "" {
		d, err := time.ParseDuration(opts.RefreshInterval)
		if err != nil || d < 0 {
			return withExitCode(invalidFlag("--refresh-interval", opts.RefreshInterval), ExitConfigError)
		}
		cfg.RefreshInterval = d
	}

	logger, err := newLogger(cfg, logging.DefaultLogFile())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := newStatusClient(cfg, logger)
	poller := monitor.NewPoller(client, logger)
	dashboard := monitor.NewDashboard(poller, monitor.Options{
		Endpoint:        client.URL(),
		Columns:         monitor.LoadColumns(cfg),
		RefreshInterval: cfg.RefreshInterval,
		Context:         ctx,
	})

	logger.Info("monitor started",
		logging.Field("url", client.URL()),
		logging.Field("refresh_interval", cfg.RefreshInterval))
	// A signal cancels ctx and ends the program; that is a normal exit.
	if err := dashboard.Run(); err != nil && ctx.Err() == nil {
		return withExitCode(err, ExitInternalError)
	}
	return nil
}
