package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to PassStatus
		allowed  bool
	}{
		{PassStatusPending, PassStatusApproved, true},
		{PassStatusPending, PassStatusRejected, true},
		{PassStatusPending, PassStatusCancelled, true},
		{PassStatusPending, PassStatusExpired, true},
		{PassStatusPending, PassStatusUsed, false},
		{PassStatusApproved, PassStatusActive, true},
		{PassStatusApproved, PassStatusUsed, true},
		{PassStatusApproved, PassStatusRejected, false},
		{PassStatusActive, PassStatusUsed, true},
		{PassStatusActive, PassStatusExpired, true},
		{PassStatusActive, PassStatusCancelled, false},
		{PassStatusUsed, PassStatusExpired, false},
		{PassStatusRejected, PassStatusApproved, false},
		{PassStatusCancelled, PassStatusPending, false},
		{PassStatusExpired, PassStatusActive, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, status := range []PassStatus{PassStatusUsed, PassStatusExpired, PassStatusRejected, PassStatusCancelled} {
		assert.True(t, status.Terminal(), string(status))
	}
	for _, status := range NonTerminalStatuses {
		assert.False(t, status.Terminal(), string(status))
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()
	grace := 30 * time.Minute
	pass := &Pass{
		Status:     PassStatusApproved,
		LeaveTime:  now.Add(time.Hour),
		ReturnTime: now.Add(4 * time.Hour),
	}

	// before the window an approved pass stays approved
	require.Equal(t, PassStatusApproved, pass.EffectiveStatus(now, grace))

	// inside the window it reads as active without a write
	require.Equal(t, PassStatusActive, pass.EffectiveStatus(now.Add(2*time.Hour), grace))

	// past return time but within grace it is still active
	require.Equal(t, PassStatusActive, pass.EffectiveStatus(now.Add(4*time.Hour+10*time.Minute), grace))

	// past return plus grace it reads as expired
	require.Equal(t, PassStatusExpired, pass.EffectiveStatus(now.Add(5*time.Hour), grace))

	// terminal states always win over the clock
	pass.Status = PassStatusUsed
	require.Equal(t, PassStatusUsed, pass.EffectiveStatus(now.Add(10*time.Hour), grace))

	pass.Status = PassStatusRejected
	require.Equal(t, PassStatusRejected, pass.EffectiveStatus(now.Add(2*time.Hour), grace))
}

func TestLapsedBy(t *testing.T) {
	now := time.Now()
	pass := &Pass{ReturnTime: now.Add(-time.Hour)}
	assert.True(t, pass.LapsedBy(now, 30*time.Minute))
	assert.False(t, pass.LapsedBy(now, 2*time.Hour))
}
