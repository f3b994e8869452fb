package monitor

const (
	detailsMaxLines    = 8
	indexColumnWidth   = 3
	defaultColumnWidth = 12
	minSummaryWidth    = 10
	fallbackWidth      = 100
	fallbackHeight     = 30
)
