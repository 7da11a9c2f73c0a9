// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package health_test

import (
	"testing"
	"time"

	ragerr "github.com/sigil-dev/ragdesk/pkg/errors"
	"github.com/sigil-dev/ragdesk/pkg/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T, cooldown time.Duration) *health.Tracker {
	t.Helper()
	h, err := health.NewTracker(cooldown)
	require.NoError(t, err)
	return h
}

func TestNewTracker_RejectsNonPositiveCooldown(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		_, err := health.NewTracker(d)
		require.Error(t, err)
		assert.True(t, ragerr.IsInvalidInput(err))
	}
}

func TestTracker_FailureAndRecovery(t *testing.T) {
	h := newTestTracker(t, 30*time.Second)
	assert.True(t, h.IsHealthy())

	h.RecordFailure()
	assert.False(t, h.IsHealthy())

	h.RecordSuccess()
	assert.True(t, h.IsHealthy())
}

func TestTracker_CooldownBoundary(t *testing.T) {
	cooldown := 10 * time.Second
	now := time.Now()

	tests := []struct {
		name        string
		elapsed     time.Duration
		wantHealthy bool
	}{
		{"before cooldown", 9 * time.Second, false},
		{"at exact cooldown boundary", 10 * time.Second, true},
		{"after cooldown", 11 * time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestTracker(t, cooldown)
			h.SetNowFunc(func() time.Time { return now })
			h.RecordFailure()

			h.SetNowFunc(func() time.Time { return now.Add(tt.elapsed) })
			assert.Equal(t, tt.wantHealthy, h.IsHealthy())
		})
	}
}

func TestTracker_Metrics(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := newTestTracker(t, 30*time.Second)
	h.SetNowFunc(func() time.Time { return now })

	m := h.Metrics()
	assert.True(t, m.Available)
	assert.Zero(t, m.FailureCount)
	assert.Nil(t, m.LastFailureAt)
	assert.Nil(t, m.CooldownUntil)

	h.RecordFailure()
	m = h.Metrics()
	assert.False(t, m.Available)
	assert.Equal(t, int64(1), m.FailureCount)
	require.NotNil(t, m.LastFailureAt)
	assert.Equal(t, now, *m.LastFailureAt)
	require.NotNil(t, m.CooldownUntil)
	assert.Equal(t, now.Add(30*time.Second), *m.CooldownUntil)
}
