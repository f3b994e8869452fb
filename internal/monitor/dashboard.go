package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/s22625/execmon/internal/model"
)

type dashboardMode int

const (
	modeDashboard dashboardMode = iota
	modeHelp
)

// Options configures a Dashboard.
type Options struct {
	// Endpoint is shown in the header; it does not affect fetching.
	Endpoint string
	Columns  []ColumnDef
	// RefreshInterval enables periodic refresh when positive.
	RefreshInterval time.Duration
	Context         context.Context
}

// Dashboard is the bubbletea model for the execution-history view.
type Dashboard struct {
	poller *Poller
	ctx    context.Context

	endpoint        string
	columns         []ColumnDef
	refreshInterval time.Duration

	focus  pane
	cursor [2]int
	width  int
	height int

	mode        dashboardMode
	message     string
	lastRefresh time.Time

	keymap KeyMap
	styles Styles
	now    func() time.Time
}

type statusMsg struct {
	ticket   Ticket
	snapshot *model.StatusSnapshot
	err      error
}

type tickMsg time.Time

// NewDashboard creates a dashboard model around p.
func NewDashboard(p *Poller, opts Options) *Dashboard {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	columns := opts.Columns
	if len(columns) == 0 {
		columns = DefaultColumns()
	}
	return &Dashboard{
		poller:          p,
		ctx:             ctx,
		endpoint:        opts.Endpoint,
		columns:         columns,
		refreshInterval: opts.RefreshInterval,
		mode:            modeDashboard,
		keymap:          DefaultKeyMap(),
		styles:          DefaultStyles(),
		now:             time.Now,
	}
}

// Run starts the bubbletea program.
func (d *Dashboard) Run() error {
	program := tea.NewProgram(d, tea.WithAltScreen(), tea.WithContext(d.ctx))
	_, err := program.Run()
	return err
}

// Init implements tea.Model. The view refreshes once when it starts.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.refreshCmd(), d.tickCmd())
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		return d, nil
	case statusMsg:
		if d.poller.Complete(msg.ticket, msg.snapshot, msg.err) && msg.err == nil && msg.snapshot != nil {
			d.lastRefresh = d.now()
		}
		d.clampCursors()
		return d, nil
	case tickMsg:
		if d.refreshInterval <= 0 {
			return d, nil
		}
		if d.poller.State().Loading {
			return d, d.tickCmd()
		}
		return d, tea.Batch(d.refreshCmd(), d.tickCmd())
	case tea.KeyMsg:
		return d.handleKey(msg)
	default:
		return d, nil
	}
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	if d.mode == modeHelp {
		return d.styles.Box.Render(d.viewHelp())
	}
	return d.styles.Box.Render(d.viewDashboard())
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return d, tea.Quit
	}

	if d.mode == modeHelp {
		// Any key dismisses the help popup
		d.mode = modeDashboard
		return d, nil
	}

	switch {
	case key.Matches(msg, d.keymap.Quit):
		return d, tea.Quit
	case key.Matches(msg, d.keymap.Refresh):
		return d, d.refreshCmd()
	case key.Matches(msg, d.keymap.SwitchPane):
		if d.focus == paneLive {
			d.focus = panePast
		} else {
			d.focus = paneLive
		}
		return d, nil
	case key.Matches(msg, d.keymap.Up):
		if d.cursor[d.focus] > 0 {
			d.cursor[d.focus]--
		}
		return d, nil
	case key.Matches(msg, d.keymap.Down):
		if d.cursor[d.focus] < len(d.rows(d.focus, d.poller.State()))-1 {
			d.cursor[d.focus]++
		}
		return d, nil
	case key.Matches(msg, d.keymap.Open):
		row := d.selectedRow(d.poller.State())
		if row == nil {
			d.message = "no execution selected"
			return d, nil
		}
		id := row.ID
		if id == "" {
			id = row.Execution.Compact()
		}
		d.poller.ViewExecution(id)
		d.message = fmt.Sprintf("execution %s", truncate(id, 40))
		return d, nil
	case key.Matches(msg, d.keymap.Dismiss):
		d.poller.DismissAlert()
		return d, nil
	case key.Matches(msg, d.keymap.Help):
		d.mode = modeHelp
		return d, nil
	}
	return d, nil
}

// refreshCmd starts a refresh. Loading is set before the command is
// returned, so the next render already shows it.
func (d *Dashboard) refreshCmd() tea.Cmd {
	ticket, ok := d.poller.Begin()
	if !ok {
		d.message = "refresh already in progress"
		return nil
	}
	ctx := d.ctx
	return func() tea.Msg {
		snapshot, err := d.poller.Fetch(ctx)
		return statusMsg{ticket: ticket, snapshot: snapshot, err: err}
	}
}

func (d *Dashboard) tickCmd() tea.Cmd {
	if d.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(d.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (d *Dashboard) rows(p pane, state ViewState) []ExecutionRow {
	if p == panePast {
		return buildRows(state.PastExecutions)
	}
	return buildRows(state.LiveExecutions)
}

func (d *Dashboard) selectedRow(state ViewState) *ExecutionRow {
	rows := d.rows(d.focus, state)
	c := d.cursor[d.focus]
	if c >= 0 && c < len(rows) {
		return &rows[c]
	}
	return nil
}

func (d *Dashboard) clampCursors() {
	state := d.poller.State()
	for _, p := range []pane{paneLive, panePast} {
		n := len(d.rows(p, state))
		if d.cursor[p] >= n {
			d.cursor[p] = n - 1
		}
		if d.cursor[p] < 0 {
			d.cursor[p] = 0
		}
	}
}

func (d *Dashboard) viewDashboard() string {
	state := d.poller.State()
	live := d.rows(paneLive, state)
	past := d.rows(panePast, state)

	lines := []string{
		d.styles.Title.Render("EXECUTION HISTORY"),
		d.renderMeta(state),
	}
	alert := ""
	if state.AlertVisible && state.ErrorMessage != nil {
		alert = d.renderAlert(*state.ErrorMessage)
		lines = append(lines, "", alert)
	}

	details := d.renderDetails(d.selectedRow(state))
	liveMax, pastMax := d.tableMaxRows(alert, details)

	lines = append(lines,
		"",
		d.renderSection(paneLive, "LIVE EXECUTIONS", live, liveMax),
		"",
		d.renderSection(panePast, "PAST EXECUTIONS", past, pastMax),
	)
	if details != "" {
		lines = append(lines, "", details)
	}
	if d.message != "" {
		lines = append(lines, "", d.styles.Faint.Render(d.message))
	}
	lines = append(lines, "", d.styles.Faint.Render(d.keymap.HelpLine()))
	return strings.Join(lines, "\n")
}

func (d *Dashboard) viewHelp() string {
	lines := []string{
		d.styles.Title.Render("HELP - KEYBOARD SHORTCUTS"),
		"",
	}
	for _, b := range d.keymap.FullHelp() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %-10s %s", h.Key, h.Desc))
	}
	lines = append(lines, "", d.styles.Faint.Render("Press any key to close this help"))
	return strings.Join(lines, "\n")
}

func (d *Dashboard) renderMeta(state ViewState) string {
	parts := []string{
		fmt.Sprintf("capacity: %d", state.Capacity()),
		fmt.Sprintf("remaining: %d", state.RemainingCapacity),
		fmt.Sprintf("live: %d", len(state.LiveExecutions)),
		fmt.Sprintf("past: %d", len(state.PastExecutions)),
	}
	switch {
	case state.Loading:
		parts = append(parts, d.styles.Loading.Render("refreshing..."))
	case d.lastRefresh.IsZero():
		parts = append(parts, d.styles.Faint.Render("updated: never"))
	default:
		parts = append(parts, d.styles.Faint.Render("updated: "+formatRelativeTime(d.lastRefresh, d.now())))
	}
	meta := strings.Join(parts, "  ")
	if d.endpoint != "" {
		meta = d.styles.Faint.Render(truncate(d.endpoint, d.safeWidth())) + "\n" + meta
	}
	return meta
}

func (d *Dashboard) renderAlert(info model.ErrorInfo) string {
	width := d.safeWidth() - d.styles.Alert.GetHorizontalFrameSize()
	if width < 20 {
		width = 20
	}
	lines := []string{fmt.Sprintf("Failed to %s (status: %s)", info.Occasion, info.Status)}
	msgLines := wrapText(info.Message, width)
	if len(msgLines) > 3 {
		msgLines = append(msgLines[:3], "...")
	}
	lines = append(lines, msgLines...)
	lines = append(lines, fmt.Sprintf("[%s] dismiss  [%s] retry", d.keymap.Dismiss.Help().Key, d.keymap.Refresh.Help().Key))
	return d.styles.Alert.Render(strings.Join(lines, "\n"))
}

func (d *Dashboard) renderSection(p pane, title string, rows []ExecutionRow, maxRows int) string {
	heading := fmt.Sprintf("%s (%d)", title, len(rows))
	if p == d.focus {
		heading = "> " + heading
	} else {
		heading = "  " + heading
	}
	return d.styles.Section.Render(heading) + "\n" + d.renderTable(p, rows, maxRows)
}

func (d *Dashboard) renderTable(p pane, rows []ExecutionRow, maxRows int) string {
	summaryW := d.summaryWidth()

	header := []string{d.pad("#", indexColumnWidth, d.styles.Header)}
	for _, col := range d.columns {
		header = append(header, d.pad(col.Header, col.Width, d.styles.Header))
	}
	header = append(header, d.pad("SUMMARY", summaryW, d.styles.Header))
	lines := []string{strings.Join(header, "  ")}

	if len(rows) == 0 {
		lines = append(lines, d.styles.Faint.Render("  (none)"))
		return strings.Join(lines, "\n")
	}

	if maxRows < 1 {
		maxRows = 1
	}
	cursor := d.cursor[p]
	start := 0
	if cursor >= maxRows {
		start = cursor - maxRows + 1
	}
	end := start + maxRows
	if end > len(rows) {
		end = len(rows)
	}

	for i := start; i < end; i++ {
		row := &rows[i]
		selected := p == d.focus && i == cursor
		if selected {
			lines = append(lines, d.styles.Selected.Render(d.plainRow(row, summaryW)))
			continue
		}
		cells := []string{d.pad(fmt.Sprintf("%d", row.Index), indexColumnWidth, d.styles.Text)}
		for _, col := range d.columns {
			cells = append(cells, d.pad(col.Value(row), col.Width, col.Style(row, &d.styles)))
		}
		cells = append(cells, d.pad(row.Execution.Compact(), summaryW, d.styles.Faint))
		lines = append(lines, strings.Join(cells, "  "))
	}
	if len(rows) > end || start > 0 {
		lines = append(lines, d.styles.Faint.Render(fmt.Sprintf("  rows: %d-%d/%d", start+1, end, len(rows))))
	}
	return strings.Join(lines, "\n")
}

func (d *Dashboard) plainRow(row *ExecutionRow, summaryW int) string {
	cells := []string{padRight(fmt.Sprintf("%d", row.Index), indexColumnWidth)}
	for _, col := range d.columns {
		cells = append(cells, padRight(col.Value(row), col.Width))
	}
	cells = append(cells, padRight(row.Execution.Compact(), summaryW))
	return strings.Join(cells, "  ")
}

func (d *Dashboard) renderDetails(row *ExecutionRow) string {
	if row == nil {
		return ""
	}
	width := d.safeWidth()
	title := fmt.Sprintf("DETAILS (%s #%d)", d.focus, row.Index)
	if row.ID != "" {
		title = fmt.Sprintf("DETAILS (%s #%d, id %s)", d.focus, row.Index, truncate(row.ID, 24))
	}
	lines := []string{d.styles.Header.Render(title)}

	var body []string
	for _, line := range strings.Split(row.Execution.Pretty(), "\n") {
		body = append(body, wrapText(line, width)...)
	}
	if len(body) > detailsMaxLines {
		body = append(body[:detailsMaxLines-1], "...")
	}
	lines = append(lines, body...)
	return strings.Join(lines, "\n")
}

// tableMaxRows splits the rows left after fixed content between the tables.
func (d *Dashboard) tableMaxRows(alert, details string) (int, int) {
	used := 2 // title + meta
	if d.endpoint != "" {
		used++
	}
	if alert != "" {
		used += 1 + lipgloss.Height(alert)
	}
	used += 2 * 3 // blank + heading + column header per table
	if details != "" {
		used += 1 + lipgloss.Height(details)
	}
	if d.message != "" {
		used += 2
	}
	used += 2 // footer
	used += 2 // rows indicator per table

	available := d.safeHeight() - used
	if available < 2 {
		return 1, 1
	}
	live := available / 2
	return live, available - live
}

func (d *Dashboard) summaryWidth() int {
	fixed := indexColumnWidth
	for _, col := range d.columns {
		fixed += col.Width
	}
	fixed += 2 * (len(d.columns) + 1)
	w := d.safeWidth() - fixed
	if w < minSummaryWidth {
		w = minSummaryWidth
	}
	return w
}

func (d *Dashboard) safeWidth() int {
	frame := d.styles.Box.GetHorizontalFrameSize()
	if d.width > frame {
		return d.width - frame
	}
	return fallbackWidth
}

func (d *Dashboard) safeHeight() int {
	frame := d.styles.Box.GetVerticalFrameSize()
	if d.height > frame {
		return d.height - frame
	}
	return fallbackHeight
}

func (d *Dashboard) pad(s string, width int, style lipgloss.Style) string {
	return style.Width(width).Render(truncate(s, width))
}

func padRight(s string, width int) string {
	s = truncate(s, width)
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 3 {
		return truncateToWidth(s, width)
	}
	return truncateToWidth(s, width-3) + "..."
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	current := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		b.WriteRune(r)
		current += rw
	}
	return b.String()
}

func wrapText(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		if raw == "" {
			lines = append(lines, "")
			continue
		}
		runes := []rune(raw)
		start := 0
		for start < len(runes) {
			if runewidth.StringWidth(string(runes[start:])) <= width {
				lines = append(lines, string(runes[start:]))
				break
			}
			curWidth := 0
			lastSpace := -1
			end := start
			for ; end < len(runes); end++ {
				rw := runewidth.RuneWidth(runes[end])
				if curWidth+rw > width {
					break
				}
				curWidth += rw
				if unicode.IsSpace(runes[end]) {
					lastSpace = end
				}
			}
			split := end
			if lastSpace > start {
				split = lastSpace
			}
			if split == start {
				split = start + 1
			}
			line := strings.TrimRightFunc(string(runes[start:split]), unicode.IsSpace)
			lines = append(lines, line)
			start = split
			for start < len(runes) && unicode.IsSpace(runes[start]) {
				start++
			}
		}
	}
	return lines
}

func formatRelativeTime(when time.Time, now time.Time) string {
	if when.After(now) {
		return "just now"
	}

	elapsed := now.Sub(when)
	switch {
	case elapsed < 10*time.Second:
		return "just now"
	case elapsed < time.Minute:
		return fmt.Sprintf("%ds ago", int(elapsed.Seconds()))
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	}
}
