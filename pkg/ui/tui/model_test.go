package tui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel(t *testing.T) {
	model := NewModel(3)

	model.AddTasks([]uint32{10, 20, 30, 10})
	if len(model.order) != 3 {
		t.Errorf("Expected 3 tasks, got %d", len(model.order))
	}

	model.StartTask(10)
	if model.active != 10 {
		t.Errorf("Expected app 10 to be active, got %d", model.active)
	}

	probe := time.Date(2022, 10, 22, 23, 59, 59, 0, time.UTC)
	model.UpdateProbe(10, probe, 1)
	model.UpdateProbe(10, probe.AddDate(0, 0, -1), 2)
	if got := FormatDate(model.tasks[10].ProbeDate); got != "2022-10-21" {
		t.Errorf("Expected probe date 2022-10-21, got %s", got)
	}
	if model.totalQueries != 2 {
		t.Errorf("Expected 2 queries, got %d", model.totalQueries)
	}
	// query 3 waits for the cooldown
	if got := model.QueriesUntilCooldown(); got != 0 {
		t.Errorf("Expected 0 queries until cooldown, got %d", got)
	}
	if got := model.WindowUsed(); got != 2 {
		t.Errorf("Expected 2 queries used in window, got %d", got)
	}

	model.FinishTask(10, "succeeded", 2, nil)
	model.FinishTask(20, "below_threshold", 0, errors.New("too few"))
	model.FinishTask(30, "fetch_failed", 0, errors.New("timeout"))

	if model.succeeded != 1 || model.skipped != 1 || model.failed != 1 {
		t.Errorf("Unexpected outcome counts %d/%d/%d", model.succeeded, model.skipped, model.failed)
	}
	if model.totalPoints != 2 {
		t.Errorf("Expected 2 points, got %d", model.totalPoints)
	}
	if model.active != 0 {
		t.Errorf("Expected no active task, got %d", model.active)
	}
	if got := model.Percent(); got != 1 {
		t.Errorf("Expected percent 1, got %f", got)
	}
	if got := len(model.GetTasks(TaskFailed)); got != 1 {
		t.Errorf("Expected 1 failed task, got %d", got)
	}

	model.AddLogMessage("INFO", "Test message")
	if len(model.logMessages) != 1 {
		t.Errorf("Expected 1 log message, got %d", len(model.logMessages))
	}
}

func TestUnknownAppIsQueued(t *testing.T) {
	model := NewModel(150)
	model.StartTask(99)
	if len(model.GetTasks(TaskActive)) != 1 {
		t.Errorf("Expected app 99 to be queued and active")
	}
}

func TestCooldown(t *testing.T) {
	model := NewModel(150)
	now := time.Now()
	model.StartCooldown(2*time.Minute, now)

	if model.cooldowns != 1 {
		t.Errorf("Expected 1 cooldown, got %d", model.cooldowns)
	}
	if got := model.CooldownRemaining(now.Add(time.Minute)); got != time.Minute {
		t.Errorf("Expected 1m remaining, got %s", got)
	}
	if got := model.CooldownRemaining(now.Add(3 * time.Minute)); got != 0 {
		t.Errorf("Expected no cooldown left, got %s", got)
	}
}

func TestUpdateMessages(t *testing.T) {
	model := NewModel(150)
	m := &model

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 50})
	m.Update(TasksQueuedMsg{IDs: []uint32{570, 730}})
	m.Update(TaskStartMsg{AppID: 570})
	m.Update(ProbeMsg{AppID: 570, AsOf: time.Date(2022, 10, 22, 23, 59, 59, 0, time.UTC), Query: 1})
	m.Update(CooldownMsg{AppID: 570, Duration: time.Minute})

	view := m.View()
	for _, want := range []string{"app 570", "2022-10-22", "cooling down"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}

	_, cmd := m.Update(TaskDoneMsg{AppID: 570, Outcome: "succeeded", Points: 42})
	if cmd == nil {
		t.Errorf("Expected a progress command after a finished task")
	}
	if m.tasks[570].State != TaskDone {
		t.Errorf("Expected app 570 to be done")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Errorf("Expected quit command")
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{500, "500"},
		{1500, "1.5k"},
		{2_500_000, "2.5M"},
	}

	for _, test := range tests {
		if result := FormatCount(test.n); result != test.expected {
			t.Errorf("FormatCount(%d) = %s, expected %s", test.n, result, test.expected)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "-" {
		t.Errorf("Expected - for zero time, got %s", got)
	}
}

func TestLogLine(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   LogMsg
		ok     bool
	}{
		{
			name:   "client warning",
			record: `{"level":"warn","app_id":440,"message":"review summary not successful"}`,
			want:   LogMsg{Level: "WARN", Message: "App 440: review summary not successful"},
			ok:     true,
		},
		{
			name:   "error with cause",
			record: `{"level":"error","error":"disk full","message":"failed to write unfinished list"}`,
			want:   LogMsg{Level: "ERROR", Message: "failed to write unfinished list: disk full"},
			ok:     true,
		},
		{name: "info dropped", record: `{"level":"info","message":"crawling app"}`},
		{name: "task outcome dropped", record: `{"level":"error","outcome":"fetch_failed","message":"task failed"}`},
		{name: "cooldown dropped", record: `{"level":"warn","action":"cooldown","message":"query quota reached, cooling down"}`},
		{name: "not json", record: `12:00:00 WARN | plain`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := logLine([]byte(tt.record))
			if ok != tt.ok {
				t.Fatalf("logLine() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("logLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriteDoesNotBlockBeforeStart(t *testing.T) {
	dashboard := NewTUI(3, tea.WithInput(nil), tea.WithOutput(io.Discard))
	record := []byte(`{"level":"warn","message":"slow store"}` + "\n")

	done := make(chan struct{})
	go func() {
		for i := 0; i < logBuffer+10; i++ {
			if n, err := dashboard.Write(record); err != nil || n != len(record) {
				t.Errorf("Write() = %d, %v", n, err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Write blocked")
	}
	if got := len(dashboard.logs); got != logBuffer {
		t.Errorf("Expected %d queued log lines, got %d", logBuffer, got)
	}
}
