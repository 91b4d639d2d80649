package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.ObserveRequest("appreviews", "ok", 20*time.Millisecond)
	m.ObserveRequest("appreviews", "ok", 30*time.Millisecond)
	m.ObserveRequest("appreviews", "server_error", time.Millisecond)
	m.IncCooldown(2 * time.Second)
	m.IncCooldown(3 * time.Second)
	m.IncTask("succeeded")
	m.IncTask("below_threshold")
	m.AddPoints(7)
	m.AddPoints(-1)
	m.IncRetries()
	m.SetUnfinished(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("appreviews", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("appreviews", "server_error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CooldownsTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.CooldownSeconds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksTotal.WithLabelValues("succeeded")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.PointsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RetriesTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.UnfinishedTasks))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("appdetails", "ok", time.Second)
		m.IncCooldown(time.Second)
		m.IncTask("skipped")
		m.AddPoints(3)
		m.IncRetries()
		m.SetUnfinished(1)
	})
}
