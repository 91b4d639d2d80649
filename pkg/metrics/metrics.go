// Package metrics bundles the Prometheus collectors of the review crawler.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a crawl run.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CooldownsTotal  prometheus.Counter
	CooldownSeconds prometheus.Counter
	TasksTotal      *prometheus.CounterVec
	PointsRecorded  prometheus.Counter
	RetriesTotal    prometheus.Counter
	UnfinishedTasks prometheus.Gauge
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamreviews_requests_total",
			Help: "Total Steam store requests by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "steamreviews_request_duration_seconds",
			Help:    "Steam store request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	cooldowns := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steamreviews_cooldowns_total",
			Help: "Cooldown pauses taken after a full query window.",
		},
	)
	cooldownSeconds := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steamreviews_cooldown_seconds_total",
			Help: "Time spent in cooldown pauses.",
		},
	)
	tasks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "steamreviews_tasks_total",
			Help: "Crawl tasks by outcome.",
		},
		[]string{"outcome"},
	)
	points := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steamreviews_points_recorded_total",
			Help: "Daily snapshots persisted.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "steamreviews_retries_total",
			Help: "Release lookup retry attempts.",
		},
	)
	unfinished := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "steamreviews_unfinished_tasks",
			Help: "Tasks not yet persisted in the current run.",
		},
	)

	registry.MustRegister(requests, requestDuration, cooldowns, cooldownSeconds, tasks, points, retries, unfinished)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		CooldownsTotal:  cooldowns,
		CooldownSeconds: cooldownSeconds,
		TasksTotal:      tasks,
		PointsRecorded:  points,
		RetriesTotal:    retries,
		UnfinishedTasks: unfinished,
	}
}

// ObserveRequest counts one request and records its latency.
func (m *Metrics) ObserveRequest(endpoint, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, result).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncCooldown records one cooldown pause of length d.
func (m *Metrics) IncCooldown(d time.Duration) {
	if m == nil {
		return
	}
	m.CooldownsTotal.Inc()
	m.CooldownSeconds.Add(d.Seconds())
}

// IncTask counts a finished task by outcome.
func (m *Metrics) IncTask(outcome string) {
	if m == nil {
		return
	}
	m.TasksTotal.WithLabelValues(outcome).Inc()
}

// AddPoints counts persisted snapshots.
func (m *Metrics) AddPoints(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PointsRecorded.Add(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// SetUnfinished publishes the size of the unfinished set.
func (m *Metrics) SetUnfinished(n int) {
	if m == nil {
		return
	}
	m.UnfinishedTasks.Set(float64(n))
}
