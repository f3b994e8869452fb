package monitor

import (
	"context"
	"errors"
	"sync"

	"github.com/s22625/execmon/internal/logging"
	"github.com/s22625/execmon/internal/model"
)

// StatusFetcher loads one status snapshot. Failures should be one of the
// model failure kinds; anything else is reported as a client-side error.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*model.StatusSnapshot, error)
}

// ViewState is everything the dashboard renders.
type ViewState struct {
	Loading           bool                     `json:"loading"`
	LiveExecutions    []model.ExecutionSummary `json:"liveExecutions"`
	PastExecutions    []model.ExecutionSummary `json:"pastExecutions"`
	RemainingCapacity int                      `json:"remainingCapacity"`
	AlertVisible      bool                     `json:"alertVisible"`
	ErrorMessage      *model.ErrorInfo         `json:"errorMessage,omitempty"`
}

// NewViewState returns the state of a freshly mounted view.
func NewViewState() ViewState {
	return ViewState{
		LiveExecutions:    []model.ExecutionSummary{},
		PastExecutions:    []model.ExecutionSummary{},
		RemainingCapacity: 1,
	}
}

// Capacity is RemainingCapacity plus the number of past executions.
func (s ViewState) Capacity() int {
	return s.RemainingCapacity + len(s.PastExecutions)
}

// Ticket identifies one refresh between Begin and Complete.
type Ticket uint64

// Poller owns a ViewState and refreshes it from a StatusFetcher.
//
// Refreshes are serialized: while one is outstanding, Begin refuses to
// start another, so the state always reflects the latest request issued.
type Poller struct {
	fetcher StatusFetcher
	logger  *logging.Logger

	mu      sync.Mutex
	state   ViewState
	seq     Ticket
	pending Ticket
}

// NewPoller creates a poller with a fresh ViewState.
func NewPoller(fetcher StatusFetcher, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Poller{
		fetcher: fetcher,
		logger:  logger.Component("poller"),
		state:   NewViewState(),
	}
}

// State returns a copy of the current view state.
func (p *Poller) State() ViewState {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	s.LiveExecutions = cloneSummaries(p.state.LiveExecutions)
	s.PastExecutions = cloneSummaries(p.state.PastExecutions)
	if p.state.ErrorMessage != nil {
		info := *p.state.ErrorMessage
		s.ErrorMessage = &info
	}
	return s
}

// Begin marks a refresh as started and sets Loading. It returns false and
// changes nothing if a refresh is already outstanding.
func (p *Poller) Begin() (Ticket, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != 0 {
		return 0, false
	}
	p.seq++
	p.pending = p.seq
	p.state.Loading = true
	return p.seq, true
}

// Complete applies the outcome of the refresh identified by t. On success
// the snapshot replaces the execution lists and remaining capacity; on
// failure only the alert fields change. Loading is cleared either way.
// It reports whether t was the outstanding refresh.
func (p *Poller) Complete(t Ticket, snapshot *model.StatusSnapshot, err error) bool {
	if err == nil && snapshot == nil {
		err = &model.ClientError{Err: errors.New("empty status response")}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if t == 0 || t != p.pending {
		p.logger.Debug("ignoring result of stale refresh", logging.Field("ticket", uint64(t)))
		return false
	}
	p.pending = 0
	p.state.Loading = false

	if err != nil {
		info := model.ClassifyError(err, model.OccasionGetExecutionHistory)
		p.state.ErrorMessage = &info
		p.state.AlertVisible = true
		p.logger.Warn("refresh failed",
			logging.Field("occasion", info.Occasion),
			logging.Field("status", info.Status.String()),
			logging.ErrorField(err))
		return true
	}

	p.state.LiveExecutions = snapshot.LiveExecutions
	p.state.PastExecutions = snapshot.PastExecutions
	p.state.RemainingCapacity = snapshot.RemainingCapacity
	p.logger.Debug("refresh applied",
		logging.Field("live", len(snapshot.LiveExecutions)),
		logging.Field("past", len(snapshot.PastExecutions)),
		logging.Field("remaining_capacity", snapshot.RemainingCapacity))
	return true
}

// Fetch calls the fetcher without touching state. It is the blocking half
// of a refresh started with Begin.
func (p *Poller) Fetch(ctx context.Context) (*model.StatusSnapshot, error) {
	if p.fetcher == nil {
		return nil, &model.ClientError{Err: errors.New("no status fetcher configured")}
	}
	return p.fetcher.FetchStatus(ctx)
}

// Refresh runs a complete refresh and blocks until it is applied. It
// returns false without fetching if another refresh is outstanding.
func (p *Poller) Refresh(ctx context.Context) bool {
	t, ok := p.Begin()
	if !ok {
		return false
	}
	snapshot, err := p.Fetch(ctx)
	p.Complete(t, snapshot, err)
	return true
}

// ViewExecution records that an execution was opened. It does not change
// the view state.
func (p *Poller) ViewExecution(executionID string) {
	p.logger.Info("view execution", logging.Field("execution_id", executionID))
}

// DismissAlert hides the alert banner. The last error stays available.
func (p *Poller) DismissAlert() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.AlertVisible = false
}

func cloneSummaries(in []model.ExecutionSummary) []model.ExecutionSummary {
	if in == nil {
		return nil
	}
	out := make([]model.ExecutionSummary, len(in))
	copy(out, in)
	return out
}
