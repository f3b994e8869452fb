package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/s22625/execmon/internal/config"
	"github.com/s22625/execmon/internal/model"
	"github.com/s22625/execmon/internal/monitor"
	"github.com/spf13/cobra"
)

type statusOptions struct {
	Columns []string
}

type statusResult struct {
	OK       bool   `json:"ok"`
	URL      string `json:"url"`
	Capacity int    `json:"capacity"`
	monitor.ViewState
}

func newStatusCmd() *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh once and print the execution history",
		Long: `Fetch <base>/api/status once and print the resulting view state.

Exits with code 2 when the refresh failed; the error details are printed
the same way the dashboard alert shows them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), opts, os.Stdout)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Execution fields to show as columns (field[:width])")

	return cmd
}

func runStatus(ctx context.Context, opts *statusOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(opts.Columns) > 0 {
		cfg.Monitor.Columns = opts.Columns
	}

	logger, err := newLogger(cfg, "stderr")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client := newStatusClient(cfg, logger)
	poller := monitor.NewPoller(client, logger)
	poller.Refresh(ctx)
	state := poller.State()

	if globalOpts.JSON {
		err = outputStatusJSON(out, client.URL(), state)
	} else {
		err = outputStatusTable(out, cfg, client.URL(), state)
	}
	if err != nil {
		return withExitCode(err, ExitInternalError)
	}

	if info := state.ErrorMessage; info != nil {
		return withExitCode(fmt.Errorf("failed to %s (status: %s): %s", info.Occasion, info.Status, info.Message), ExitFetchError)
	}
	return nil
}

func outputStatusJSON(out io.Writer, url string, state monitor.ViewState) error {
	result := statusResult{
		OK:        state.ErrorMessage == nil,
		URL:       url,
		Capacity:  state.Capacity(),
		ViewState: state,
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func outputStatusTable(out io.Writer, cfg *config.Config, url string, state monitor.ViewState) error {
	fmt.Fprintf(out, "URL: %s\n", url)
	fmt.Fprintf(out, "Capacity: %d (remaining %d, past %d)\n", state.Capacity(), state.RemainingCapacity, len(state.PastExecutions))

	if info := state.ErrorMessage; info != nil {
		fmt.Fprintf(out, "\nFailed to %s (status: %s)\n", info.Occasion, info.Status)
		if info.Message != "" {
			fmt.Fprintf(out, "  %s\n", info.Message)
		}
	}

	columns := monitor.LoadColumns(cfg)
	sections := []struct {
		title      string
		executions []model.ExecutionSummary
	}{
		{"LIVE EXECUTIONS", state.LiveExecutions},
		{"PAST EXECUTIONS", state.PastExecutions},
	}
	for _, section := range sections {
		fmt.Fprintf(out, "\n%s (%d)\n", section.title, len(section.executions))
		if len(section.executions) == 0 {
			fmt.Fprintln(out, "  (none)")
			continue
		}
		if err := writeExecutionTable(out, columns, section.executions); err != nil {
			return err
		}
	}
	return nil
}

func writeExecutionTable(out io.Writer, columns []monitor.ColumnDef, executions []model.ExecutionSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	header := []string{"#"}
	for _, col := range columns {
		header = append(header, col.Header)
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for i, exec := range executions {
		row := &monitor.ExecutionRow{Index: i + 1, ID: exec.ID(), Execution: exec}
		cells := []string{fmt.Sprintf("%d", row.Index)}
		for _, col := range columns {
			cells = append(cells, col.Value(row))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}
