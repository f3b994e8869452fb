package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/s22625/execmon/internal/config"
)

// ColumnDef is one table column backed by a top-level execution field.
type ColumnDef struct {
	Field  string
	Header string
	Width  int
}

// knownWidths are the default widths of commonly reported fields.
var knownWidths = map[string]int{
	"id":          8,
	"executionId": 12,
	"status":      10,
	"state":       10,
	"startedAt":   20,
	"endedAt":     20,
}

var defaultColumns = []ColumnDef{
	newColumn("id", 0),
	newColumn("status", 0),
}

// DefaultColumns returns the columns used when none are configured.
func DefaultColumns() []ColumnDef {
	return append([]ColumnDef(nil), defaultColumns...)
}

// ParseColumn parses "field" or "field:width".
func ParseColumn(input string) (ColumnDef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return ColumnDef{}, fmt.Errorf("empty column")
	}
	field, widthStr, hasWidth := strings.Cut(input, ":")
	field = strings.TrimSpace(field)
	if field == "" {
		return ColumnDef{}, fmt.Errorf("column %q has no field name", input)
	}
	width := 0
	if hasWidth {
		w, err := strconv.Atoi(strings.TrimSpace(widthStr))
		if err != nil || w <= 0 {
			return ColumnDef{}, fmt.Errorf("column %q has invalid width %q", input, widthStr)
		}
		width = w
	}
	return newColumn(field, width), nil
}

// LoadColumns returns the configured columns, skipping invalid entries.
// It falls back to DefaultColumns when nothing valid is configured.
func LoadColumns(cfg *config.Config) []ColumnDef {
	if cfg == nil || len(cfg.Monitor.Columns) == 0 {
		return DefaultColumns()
	}
	cols := make([]ColumnDef, 0, len(cfg.Monitor.Columns))
	for _, input := range cfg.Monitor.Columns {
		col, err := ParseColumn(input)
		if err != nil {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return DefaultColumns()
	}
	return cols
}

func newColumn(field string, width int) ColumnDef {
	if width <= 0 {
		width = knownWidths[field]
	}
	if width <= 0 {
		width = defaultColumnWidth
	}
	return ColumnDef{
		Field:  field,
		Header: strings.ToUpper(field),
		Width:  width,
	}
}

// Value returns the cell text for row.
func (c ColumnDef) Value(row *ExecutionRow) string {
	if row == nil {
		return "-"
	}
	if c.Field == "id" && row.ID != "" {
		return row.ID
	}
	return row.Execution.Field(c.Field)
}

// Style returns the cell style for row.
func (c ColumnDef) Style(row *ExecutionRow, styles *Styles) lipgloss.Style {
	if row == nil {
		return styles.Header
	}
	if isStatusField(c.Field) {
		return styles.StatusStyle(row.Execution.Field(c.Field))
	}
	return styles.Text
}

func isStatusField(field string) bool {
	switch strings.ToLower(field) {
	case "status", "state", "result":
		return true
	}
	return false
}
