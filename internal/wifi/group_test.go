package wifi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGroupCredentialsShape(t *testing.T) {
	ssid, psk, err := NewGroupCredentials()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ssid, "DIRECT-"))
	require.Len(t, strings.TrimPrefix(ssid, "DIRECT-"), 8)
	require.Len(t, psk, 8)
}

func TestNewGroupCredentialsAreRandom(t *testing.T) {
	ssid1, _, err := NewGroupCredentials()
	require.NoError(t, err)
	ssid2, _, err := NewGroupCredentials()
	require.NoError(t, err)
	require.NotEqual(t, ssid1, ssid2)
}
