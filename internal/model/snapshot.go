package model

// StatusSnapshot is the body of GET <base>/api/status. A snapshot is always
// applied as a whole.
type StatusSnapshot struct {
	LiveExecutions    []ExecutionSummary `json:"liveExecutions"`
	PastExecutions    []ExecutionSummary `json:"pastExecutions"`
	RemainingCapacity int                `json:"remainingCapacity"`
}

// Capacity is the remaining capacity plus the number of past executions.
func (s *StatusSnapshot) Capacity() int {
	return s.RemainingCapacity + len(s.PastExecutions)
}
