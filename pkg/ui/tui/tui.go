package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TUI is a full screen dashboard for a crawl run. It receives crawler and
// run events and forwards them to the bubbletea program.
//
// TUI is also an io.Writer for JSON log records, so it can be handed to the
// logger in place of the console.
type TUI struct {
	program *tea.Program
	model   *Model
	logs    chan LogMsg
}

const logBuffer = 256

// NewTUI creates a dashboard for a run with the given cooldown window
func NewTUI(window int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(window)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
		logs:    make(chan LogMsg, logBuffer),
	}
}

// Start runs the dashboard until it is stopped or the user quits. Log
// records written before Start are shown once it runs.
func (t *TUI) Start() error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case msg := <-t.logs:
				t.Send(msg)
			case <-done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Queue lists the apps of the run
func (t *TUI) Queue(ids []uint32) {
	t.Send(TasksQueuedMsg{IDs: ids})
}

// TaskStarted notifies the TUI that an app crawl has started
func (t *TUI) TaskStarted(appID uint32) {
	t.Send(TaskStartMsg{AppID: appID})
}

// TaskFinished notifies the TUI that an app crawl has ended
func (t *TUI) TaskFinished(appID uint32, outcome string, points int, err error) {
	t.Send(TaskDoneMsg{AppID: appID, Outcome: outcome, Points: points, Err: err})
}

// QueryStarted updates the probe date of the active app
func (t *TUI) QueryStarted(appID uint32, asOf time.Time, query int) {
	t.Send(ProbeMsg{AppID: appID, AsOf: asOf, Query: query})
}

// CooldownStarted shows a cooldown countdown
func (t *TUI) CooldownStarted(appID uint32, d time.Duration) {
	t.Send(CooldownMsg{AppID: appID, Duration: d})
}

// Write takes one zerolog JSON record. Warnings and errors are queued for
// the log panel; everything else is dropped, as is any record arriving while
// the queue is full. Write never blocks.
func (t *TUI) Write(p []byte) (int, error) {
	if msg, ok := logLine(p); ok {
		select {
		case t.logs <- msg:
		default:
		}
	}
	return len(p), nil
}

// logLine turns a JSON log record into a panel line. Task outcomes and
// cooldowns already reach the panel through their own messages.
func logLine(p []byte) (LogMsg, bool) {
	var rec map[string]interface{}
	if err := json.Unmarshal(p, &rec); err != nil {
		return LogMsg{}, false
	}

	level, _ := rec["level"].(string)
	switch level {
	case "warn", "error", "fatal":
	default:
		return LogMsg{}, false
	}
	if _, ok := rec["outcome"]; ok {
		return LogMsg{}, false
	}
	if rec["action"] == "cooldown" {
		return LogMsg{}, false
	}

	text, _ := rec["message"].(string)
	if id, ok := rec["app_id"].(float64); ok {
		text = fmt.Sprintf("App %d: %s", uint32(id), text)
	}
	if e, ok := rec["error"].(string); ok {
		text += ": " + e
	}
	return LogMsg{Level: strings.ToUpper(level), Message: text}, true
}
