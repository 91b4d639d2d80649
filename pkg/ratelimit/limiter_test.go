package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "steamreviews/pkg/errors"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name       string
		maxQueries int
		cooldown   time.Duration
		wantErr    bool
	}{
		{"valid", 150, 128 * time.Second, false},
		{"window of one", 1, time.Millisecond, false},
		{"zero window", 0, time.Second, true},
		{"negative window", -3, time.Second, true},
		{"zero cooldown", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.maxQueries, tt.cooldown)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.maxQueries, p.MaxQueriesPerWindow)
		})
	}
}

func TestPolicyDue(t *testing.T) {
	p := Policy{MaxQueriesPerWindow: 3, Cooldown: time.Minute}

	var due []int
	for n := 0; n <= 10; n++ {
		if p.Due(n) {
			due = append(due, n)
		}
	}
	assert.Equal(t, []int{3, 6, 9}, due)
	assert.Equal(t, 3, p.Cooldowns(10))
	assert.Equal(t, 0, p.Cooldowns(2))
	assert.Equal(t, "3 queries / 1m0s cooldown", p.String())
}

func TestRecordingWaiter(t *testing.T) {
	rw := NewRecordingWaiter()
	rw.Wait(100 * time.Millisecond)
	rw.Wait(time.Minute)
	rw.Wait(100 * time.Millisecond)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, time.Minute, 100 * time.Millisecond}, rw.Waits())
	assert.Equal(t, 2, rw.Count(100*time.Millisecond))
	assert.Equal(t, time.Minute+200*time.Millisecond, rw.Total())

	rw.Reset()
	assert.Empty(t, rw.Waits())
}

func TestSleepWaiter(t *testing.T) {
	start := time.Now()
	SleepWaiter{}.Wait(20 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	start = time.Now()
	SleepWaiter{}.Wait(-time.Second)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}
