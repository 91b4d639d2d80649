package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of run progress across tasks
type StatusTracker struct {
	Total     int
	Done      int
	Succeeded int
	Skipped   int
	Failed    int
	StartTime time.Time
}

// NewStatusTracker creates a new status tracker for total tasks
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

// Record counts one finished task by outcome
func (st *StatusTracker) Record(outcome string) {
	st.Done++
	switch outcome {
	case "succeeded":
		st.Succeeded++
	case "below_threshold", "skipped":
		st.Skipped++
	default:
		st.Failed++
	}
}

// GetProgressBar returns a formatted progress bar over all tasks
func (st *StatusTracker) GetProgressBar() string {
	const width = 20
	filled := 0
	if st.Total > 0 {
		filled = st.Done * width / st.Total
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Done, st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// PrintTaskStart prints the app id being crawled
func (st *StatusTracker) PrintTaskStart(appID uint32) {
	emit(false, fmt.Sprintf("%s %s app %d", Magenta("[CRAWLING]"), Dim(st.GetProgressBar()), appID))
}

// PrintTaskResult prints how a task ended
func (st *StatusTracker) PrintTaskResult(appID uint32, outcome string, points int, err error) {
	switch {
	case outcome == "succeeded":
		emit(false, fmt.Sprintf("%s app %d: %d days", Green("[SAVED]"), appID, points))
	case err != nil && (outcome == "below_threshold" || outcome == "skipped"):
		emit(false, fmt.Sprintf("%s app %d: %v", Yellow("[SKIPPED]"), appID, err))
	case err != nil:
		emit(true, fmt.Sprintf("%s app %d: %v", Red("[FAILED]"), appID, err))
	default:
		emit(false, fmt.Sprintf("%s app %d", Yellow("[SKIPPED]"), appID))
	}
}

// PrintSummary prints the totals of a run
func (st *StatusTracker) PrintSummary(unfinished int) {
	emit(false, fmt.Sprintf("\n%s %d saved, %d skipped, %d failed, %d unfinished in %s",
		Cyan("[DONE]"), st.Succeeded, st.Skipped, st.Failed, unfinished,
		st.GetElapsedTime().Round(time.Second)))
}
