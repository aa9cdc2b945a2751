package ble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpamGuardAllowsBurstThenBlocks(t *testing.T) {
	g := newSpamGuard()
	const addr = "AA:BB:CC:DD:EE:FF"

	allowed := 0
	for i := 0; i < attemptsBurstable+2; i++ {
		if g.Allow(addr) {
			allowed++
		}
	}
	require.LessOrEqual(t, allowed, attemptsBurstable+1)
	require.Greater(t, allowed, 0)
}

func TestSpamGuardRecoversOverTime(t *testing.T) {
	g := newSpamGuard()
	now := time.Now()
	g.timeNow = func() time.Time { return now }
	const addr = "11:22:33:44:55:66"

	for g.Allow(addr) {
	}
	require.False(t, g.Allow(addr))

	now = now.Add(2 * time.Second)
	require.True(t, g.Allow(addr))
}

func TestSpamGuardIsolatesAddresses(t *testing.T) {
	g := newSpamGuard()
	for g.Allow("one") {
	}
	require.True(t, g.Allow("two"))
}
