package monitor

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/s22625/execmon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain runs cmd and any batched commands, feeding every resulting message
// except ticks back into the dashboard.
func drain(t *testing.T, d *Dashboard, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, d, c)
		}
	case tickMsg, nil:
	default:
		_, next := d.Update(msg)
		drain(t, d, next)
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestDashboard(t *testing.T, fetcher *fakeFetcher) *Dashboard {
	t.Helper()
	d := NewDashboard(NewPoller(fetcher, nil), Options{Endpoint: "http://host/niffler/api/status"})
	d.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	d.Update(tea.WindowSizeMsg{Width: 140, Height: 50})
	return d
}

func TestDashboardInitRefreshes(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: decodeSnapshot(t,
		`{"liveExecutions":[{"id":1,"status":"running"}],"pastExecutions":[{"id":2,"status":"done"},{"id":3,"status":"failed"}],"remainingCapacity":5}`)}
	d := newTestDashboard(t, fetcher)

	cmd := d.Init()
	require.NotNil(t, cmd)
	assert.True(t, d.poller.State().Loading, "loading is set before the request runs")
	assert.Contains(t, d.View(), "refreshing...")

	drain(t, d, cmd)

	state := d.poller.State()
	assert.False(t, state.Loading)
	assert.Equal(t, 7, state.Capacity())
	assert.Equal(t, 1, fetcher.callCount())

	view := d.View()
	assert.Contains(t, view, "EXECUTION HISTORY")
	assert.Contains(t, view, "capacity: 7")
	assert.Contains(t, view, "remaining: 5")
	assert.Contains(t, view, "LIVE EXECUTIONS (1)")
	assert.Contains(t, view, "PAST EXECUTIONS (2)")
	assert.Contains(t, view, "updated: just now")
	assert.Contains(t, view, `"status": "running"`, "details pane shows the selected execution")
	assert.NotContains(t, view, "Failed to")
}

func TestDashboardShowsAlertAndDismisses(t *testing.T) {
	fetcher := &fakeFetcher{err: &model.ServerError{StatusCode: 500, Body: "boom"}}
	d := newTestDashboard(t, fetcher)

	drain(t, d, d.Init())

	state := d.poller.State()
	assert.True(t, state.AlertVisible)
	assert.False(t, state.Loading)

	view := d.View()
	assert.Contains(t, view, "Failed to get execution history (status: 500)")
	assert.Contains(t, view, "boom")

	d.Update(keyRune('x'))
	assert.False(t, d.poller.State().AlertVisible)
	assert.NotContains(t, d.View(), "Failed to")
}

func TestDashboardRefreshKey(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: &model.StatusSnapshot{RemainingCapacity: 2}}
	d := newTestDashboard(t, fetcher)
	drain(t, d, d.Init())

	_, cmd := d.Update(keyRune('r'))
	require.NotNil(t, cmd)
	assert.True(t, d.poller.State().Loading)

	_, second := d.Update(keyRune('r'))
	assert.Nil(t, second, "refresh while loading is refused")
	assert.Contains(t, d.View(), "refresh already in progress")

	drain(t, d, cmd)
	assert.False(t, d.poller.State().Loading)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestDashboardNavigationAndView(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: decodeSnapshot(t,
		`{"liveExecutions":[{"id":"a"},{"id":"b"}],"pastExecutions":[{"id":"c"}],"remainingCapacity":0}`)}
	d := newTestDashboard(t, fetcher)
	drain(t, d, d.Init())

	d.Update(keyRune('j'))
	d.Update(keyRune('j'))
	assert.Equal(t, 1, d.cursor[paneLive], "cursor stops at the last row")

	d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, d.View(), "execution b")

	d.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, panePast, d.focus)
	d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, d.View(), "execution c")

	d.Update(keyRune('k'))
	assert.Equal(t, 0, d.cursor[panePast])

	before := d.poller.State()
	d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, before, d.poller.State(), "viewing an execution does not change state")
}

func TestDashboardOpenWithoutRows(t *testing.T) {
	d := newTestDashboard(t, &fakeFetcher{snapshot: &model.StatusSnapshot{}})
	drain(t, d, d.Init())

	d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	view := d.View()
	assert.Contains(t, view, "no execution selected")
	assert.Contains(t, view, "(none)")
}

func TestDashboardCursorClampedAfterRefresh(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: decodeSnapshot(t, `{"liveExecutions":[{"id":1},{"id":2},{"id":3}],"pastExecutions":[],"remainingCapacity":1}`)}
	d := newTestDashboard(t, fetcher)
	drain(t, d, d.Init())
	d.cursor[paneLive] = 2

	fetcher.mu.Lock()
	fetcher.snapshot = decodeSnapshot(t, `{"liveExecutions":[{"id":1}],"pastExecutions":[],"remainingCapacity":1}`)
	fetcher.mu.Unlock()
	_, cmd := d.Update(keyRune('r'))
	drain(t, d, cmd)

	assert.Equal(t, 0, d.cursor[paneLive])
}

func TestDashboardHelpMode(t *testing.T) {
	d := newTestDashboard(t, &fakeFetcher{snapshot: &model.StatusSnapshot{}})
	d.Update(keyRune('?'))
	assert.Contains(t, d.View(), "HELP - KEYBOARD SHORTCUTS")

	d.Update(keyRune('z'))
	assert.Equal(t, modeDashboard, d.mode)
}

func TestDashboardQuit(t *testing.T) {
	d := newTestDashboard(t, &fakeFetcher{})
	_, cmd := d.Update(keyRune('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestDashboardTick(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: &model.StatusSnapshot{RemainingCapacity: 3}}
	d := newTestDashboard(t, fetcher)

	_, cmd := d.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd, "ticks are ignored without a refresh interval")

	d.refreshInterval = time.Minute
	_, cmd = d.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.True(t, d.poller.State().Loading)

	_, cmd2 := d.Update(tickMsg(time.Now()))
	require.NotNil(t, cmd2, "a tick while loading only reschedules")
	assert.Equal(t, 0, fetcher.callCount())
}

func TestDashboardColumns(t *testing.T) {
	fetcher := &fakeFetcher{snapshot: decodeSnapshot(t,
		`{"liveExecutions":[{"id":1,"owner":"ann"}],"pastExecutions":[],"remainingCapacity":1}`)}
	d := newTestDashboard(t, fetcher)
	d.columns = []ColumnDef{newColumn("id", 0), newColumn("owner", 8)}
	drain(t, d, d.Init())

	view := d.View()
	assert.Contains(t, view, "OWNER")
	assert.Contains(t, view, "ann")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "he...", truncate("hello world", 5))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Equal(t, "", truncate("hello", 0))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, wrapText("hello world", 7))
	assert.Equal(t, []string{"abcde", "fgh"}, wrapText("abcdefgh", 5))
	assert.Equal(t, []string{"a", "", "b"}, wrapText("a\n\nb", 10))
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", formatRelativeTime(now.Add(-5*time.Second), now))
	assert.Equal(t, "30s ago", formatRelativeTime(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", formatRelativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "2h ago", formatRelativeTime(now.Add(-2*time.Hour), now))
	assert.Equal(t, "3d ago", formatRelativeTime(now.Add(-72*time.Hour), now))
	assert.Equal(t, "just now", formatRelativeTime(now.Add(time.Hour), now))
}

func TestHelpLine(t *testing.T) {
	line := DefaultKeyMap().HelpLine()
	for _, want := range []string{"[r] refresh", "[tab] live/past", "[q] quit"} {
		assert.True(t, strings.Contains(line, want), "help line %q missing %q", line, want)
	}
}
