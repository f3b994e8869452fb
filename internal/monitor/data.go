package monitor

import "github.com/s22625/execmon/internal/model"

// pane identifies one of the two execution tables.
type pane int

const (
	paneLive pane = iota
	panePast
)

func (p pane) String() string {
	if p == panePast {
		return "past"
	}
	return "live"
}

// ExecutionRow holds display data for one execution.
type ExecutionRow struct {
	Index     int
	ID        string
	Execution model.ExecutionSummary
}

// buildRows numbers executions from 1 in backend order.
func buildRows(executions []model.ExecutionSummary) []ExecutionRow {
	rows := make([]ExecutionRow, 0, len(executions))
	for i, exec := range executions {
		rows = append(rows, ExecutionRow{
			Index:     i + 1,
			ID:        exec.ID(),
			Execution: exec,
		})
	}
	return rows
}
