package ui

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetQuietMode(false)
	})
	return &buf
}

func TestStatusTracker(t *testing.T) {
	st := NewStatusTracker(4)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/4", st.GetProgressBar())

	st.Record("succeeded")
	st.Record("below_threshold")
	st.Record("fetch_failed")

	assert.Equal(t, 3, st.Done)
	assert.Equal(t, 1, st.Succeeded)
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, strings.Repeat(ProgressBar, 15)+strings.Repeat(ProgressEmpty, 5), strings.Trim(strings.Fields(st.GetProgressBar())[0], "[]"))
}

func TestPrintTaskLines(t *testing.T) {
	buf := captureOutput(t)
	st := NewStatusTracker(2)

	st.PrintTaskStart(440)
	st.PrintTaskResult(440, "succeeded", 12, nil)
	st.PrintTaskResult(570, "fetch_failed", 0, errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, "app 440")
	assert.Contains(t, out, "12 days")
	assert.Contains(t, out, "[FAILED]")
	assert.Contains(t, out, "timeout")
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)
	assert.True(t, IsQuietMode())

	PrintInfo("Tasks", "3")
	PrintSuccess("done")
	PrintError("could not save unfinished list", errors.New("disk full"))

	out := buf.String()
	assert.NotContains(t, out, "Tasks")
	assert.NotContains(t, out, "done")
	assert.Contains(t, out, "disk full")
}
