package scraper

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"steamreviews/pkg/storage"
)

// Outcome is how a task ended
type Outcome string

const (
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeFetchFailed    Outcome = "fetch_failed"
	OutcomePersistFailed  Outcome = "persist_failed"
	OutcomeSkipped        Outcome = "skipped"
)

// TaskResult is the report entry of one task
type TaskResult struct {
	AppID    uint32        `json:"app_id"`
	Outcome  Outcome       `json:"outcome"`
	Points   int           `json:"points"`
	Path     string        `json:"path,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report summarises one run
type Report struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Tasks      []TaskResult    `json:"tasks"`
	Counts     map[Outcome]int `json:"counts"`
	Unfinished []uint32        `json:"unfinished"`
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Counts:    make(map[Outcome]int),
	}
}

func (r *Report) add(res TaskResult) {
	r.Tasks = append(r.Tasks, res)
	r.Counts[res.Outcome]++
}

// Count returns how many tasks ended with outcome
func (r *Report) Count(outcome Outcome) int {
	return r.Counts[outcome]
}

// Save writes the report as indented JSON
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := storage.WriteFileAtomic(path, append(data, '\n')); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
