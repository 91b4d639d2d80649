package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Message types for the TUI

// TasksQueuedMsg is sent with the task list before the run starts
type TasksQueuedMsg struct {
	IDs []uint32
}

// TaskStartMsg is sent when the crawl of an app starts
type TaskStartMsg struct {
	AppID uint32
}

// ProbeMsg is sent before every review summary query
type ProbeMsg struct {
	AppID uint32
	AsOf  time.Time
	Query int
}

// CooldownMsg is sent when the query quota forces a pause
type CooldownMsg struct {
	AppID    uint32
	Duration time.Duration
}

// TaskDoneMsg is sent when a task ends
type TaskDoneMsg struct {
	AppID   uint32
	Outcome string
	Points  int
	Err     error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, (msg.Width-4)/2-12)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case TasksQueuedMsg:
		m.AddTasks(msg.IDs)
		m.AddLogMessage("INFO", fmt.Sprintf("Queued %d apps", len(msg.IDs)))
		return m, nil

	case TaskStartMsg:
		m.StartTask(msg.AppID)
		m.AddLogMessage("INFO", fmt.Sprintf("Crawling app %d", msg.AppID))
		return m, nil

	case ProbeMsg:
		m.UpdateProbe(msg.AppID, msg.AsOf, msg.Query)
		return m, nil

	case CooldownMsg:
		m.StartCooldown(msg.Duration, time.Now())
		m.AddLogMessage("WARN", fmt.Sprintf("Query quota reached, cooling down for %s", msg.Duration))
		return m, nil

	case TaskDoneMsg:
		m.FinishTask(msg.AppID, msg.Outcome, msg.Points, msg.Err)
		switch {
		case msg.Err == nil:
			m.AddLogMessage("SUCCESS", fmt.Sprintf("App %d: %d points", msg.AppID, msg.Points))
		case msg.Outcome == "below_threshold" || msg.Outcome == "skipped":
			m.AddLogMessage("WARN", fmt.Sprintf("App %d skipped: %v", msg.AppID, msg.Err))
		default:
			m.AddLogMessage("ERROR", fmt.Sprintf("App %d failed: %v", msg.AppID, msg.Err))
		}
		return m, m.progress.SetPercent(m.Percent())

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
