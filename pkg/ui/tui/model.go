package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TaskState represents where a task is in the run
type TaskState int

const (
	TaskPending TaskState = iota
	TaskActive
	TaskDone
	TaskSkipped
	TaskFailed
)

// TaskItem represents a single app of the task list
type TaskItem struct {
	AppID     uint32
	State     TaskState
	ProbeDate time.Time
	Queries   int
	Points    int
	Outcome   string
	Err       error
	StartTime time.Time
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	progress progress.Model

	// Task state
	tasks  map[uint32]*TaskItem
	order  []uint32
	active uint32

	// Stats
	succeeded        int
	skipped          int
	failed           int
	totalPoints      int
	totalQueries     int
	cooldowns        int
	sessionStartTime time.Time

	// Cooldown policy
	window        int
	cooldownUntil time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a model for a run whose cooldown comes every window
// queries
func NewModel(window int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(steamBlue)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:          s,
		progress:         p,
		tasks:            make(map[uint32]*TaskItem),
		window:           window,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// AddTasks queues app ids in run order. Ids already known are ignored.
func (m *Model) AddTasks(ids []uint32) {
	for _, id := range ids {
		if _, ok := m.tasks[id]; ok {
			continue
		}
		m.tasks[id] = &TaskItem{AppID: id, State: TaskPending}
		m.order = append(m.order, id)
	}
}

// StartTask marks a task as the active one
func (m *Model) StartTask(appID uint32) {
	task := m.task(appID)
	task.State = TaskActive
	task.StartTime = time.Now()
	m.active = appID
}

// UpdateProbe records the query being sent for the active task
func (m *Model) UpdateProbe(appID uint32, asOf time.Time, query int) {
	task := m.task(appID)
	task.ProbeDate = asOf
	task.Queries = query
	m.totalQueries++
}

// StartCooldown records a cooldown starting at now
func (m *Model) StartCooldown(d time.Duration, now time.Time) {
	m.cooldowns++
	m.cooldownUntil = now.Add(d)
}

// FinishTask records how a task ended
func (m *Model) FinishTask(appID uint32, outcome string, points int, err error) {
	task := m.task(appID)
	task.Outcome = outcome
	task.Points = points
	task.Err = err

	switch outcome {
	case "succeeded":
		task.State = TaskDone
		m.succeeded++
		m.totalPoints += points
	case "below_threshold", "skipped":
		task.State = TaskSkipped
		m.skipped++
	default:
		task.State = TaskFailed
		m.failed++
	}
	if m.active == appID {
		m.active = 0
	}
}

func (m *Model) task(appID uint32) *TaskItem {
	if task, ok := m.tasks[appID]; ok {
		return task
	}
	m.AddTasks([]uint32{appID})
	return m.tasks[appID]
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color := mutedText
	switch level {
	case "ERROR", "FATAL":
		color = negativeRed
	case "WARN":
		color = mixedAmber
	case "SUCCESS":
		color = positiveGreen
	case "INFO":
		color = steamBlue
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// GetTasks returns the tasks in the given state, in run order
func (m *Model) GetTasks(state TaskState) []*TaskItem {
	var out []*TaskItem
	for _, id := range m.order {
		if task := m.tasks[id]; task.State == state {
			out = append(out, task)
		}
	}
	return out
}

// Finished returns how many tasks have ended, whatever their outcome
func (m *Model) Finished() int {
	return m.succeeded + m.skipped + m.failed
}

// Percent returns the finished share of the task list, between 0 and 1
func (m *Model) Percent() float64 {
	if len(m.order) == 0 {
		return 0
	}
	return float64(m.Finished()) / float64(len(m.order))
}

// QueriesUntilCooldown returns how many more queries the active task can
// send before its next cooldown
func (m *Model) QueriesUntilCooldown() int {
	task, ok := m.tasks[m.active]
	if !ok || m.window <= 0 {
		return m.window
	}
	return m.window - 1 - task.Queries%m.window
}

// WindowUsed returns the queries the active task sent in its current window
func (m *Model) WindowUsed() int {
	task, ok := m.tasks[m.active]
	if !ok || m.window <= 0 {
		return 0
	}
	return task.Queries % m.window
}

// CooldownRemaining returns how long the current cooldown still lasts
func (m *Model) CooldownRemaining(now time.Time) time.Duration {
	if left := m.cooldownUntil.Sub(now); left > 0 {
		return left
	}
	return 0
}

// ETA estimates the time left from the average task duration so far
func (m *Model) ETA(now time.Time) time.Duration {
	done := m.Finished()
	pending := len(m.order) - done
	if done == 0 || pending == 0 {
		return 0
	}
	return now.Sub(m.sessionStartTime) / time.Duration(done) * time.Duration(pending)
}

// FormatDate renders a probe date, empty before the first query
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}

// FormatCount formats large counts with a k or M suffix
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
