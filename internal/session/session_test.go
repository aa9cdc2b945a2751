package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tinnci/cattysend/internal/config"
	"github.com/Tinnci/cattysend/internal/wire"
)

func TestNewSenderIDVaries(t *testing.T) {
	a := newSenderID()
	b := newSenderID()
	// Not a strict guarantee: two draws from 65536 values collide with
	// probability 1/65536, so a failure points to a broken RNG wire-up
	// far more often than to bad luck.
	require.NotEqual(t, a, b)
}

func TestReceiverAcceptPolicyAlwaysAccepts(t *testing.T) {
	r := &Receiver{settings: config.Default()}
	policy := r.acceptPolicy()
	require.True(t, policy(wire.SendRequest{}))
}

func TestEventHelpersPopulateExpectedField(t *testing.T) {
	require.Equal(t, "x", statusEvent("x").Status)
	require.Equal(t, uint64(3), progressEvent(3, 10).Sent)
	require.Equal(t, uint64(10), progressEvent(3, 10).Total)
	require.True(t, completeEvent().Complete)
	require.Equal(t, errors.New("boom").Error(), errorEvent(errors.New("boom")).Err.Error())
}

func TestSinkEmitToleratesNil(t *testing.T) {
	var s Sink
	require.NotPanics(t, func() { s.emit(statusEvent("ignored")) })
}
