package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tinnci/cattysend/internal/brand"
)

func TestDefaultSettingsUseXiaomiFor5GHz(t *testing.T) {
	s := Default()
	require.Equal(t, brand.Xiaomi.ID(), s.BrandID)
	require.True(t, s.Supports5GHz)
}

func TestCapabilityUUIDMatchesReferenceFormat(t *testing.T) {
	s := Settings{Supports5GHz: true, BrandID: brand.Xiaomi.ID()} // 30 = 0x1E
	u := s.CapabilityUUID()
	str := u.String()
	require.True(t, strings.HasPrefix(str, "0000011e"), "UUID: %s", str)
	require.True(t, strings.HasSuffix(str, "00805f9b34fb"), "UUID: %s", str)
}

func TestCapabilityUUIDNo5GHz(t *testing.T) {
	s := Settings{Supports5GHz: false, BrandID: 10} // Oppo
	u := s.CapabilityUUID()
	require.True(t, strings.HasPrefix(u.String(), "0000000a"), "UUID: %s", u.String())
}
