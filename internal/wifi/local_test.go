package wifi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGatewayIPDerivesFromDottedQuad(t *testing.T) {
	require.Equal(t, "192.168.49.1", GatewayIP("192.168.49.37"))
	require.Equal(t, "10.42.0.1", GatewayIP("10.42.0.23"))
}

func TestGatewayIPFallsBackOnMalformedInput(t *testing.T) {
	require.Equal(t, "192.168.49.1", GatewayIP("not-an-ip"))
}

func TestLocalMACFallsBackWhenInterfaceMissing(t *testing.T) {
	mac := LocalMAC("definitely-not-a-real-interface-xyz")
	require.Equal(t, "02:00:00:00:00:00", mac)
}
