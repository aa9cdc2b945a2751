package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceInfoOmitsAbsentOptionalFields(t *testing.T) {
	info := NewDeviceInfo("AA:BB:CC:DD:EE:FF", nil)
	raw, err := json.Marshal(info)
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"key"`)
	require.Contains(t, string(raw), `"catShare":1`)
	require.Contains(t, string(raw), `"state":0`)
}

func TestDeviceInfoIncludesKeyWhenPresent(t *testing.T) {
	key := "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQc="
	info := NewDeviceInfo("AA:BB:CC:DD:EE:FF", &key)
	raw, err := json.Marshal(info)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"key":"`+key+`"`)
}

func TestP2pInfoIsEncrypted(t *testing.T) {
	plain := P2pInfo{SSID: "net", PSK: "pw", MAC: "AA:BB:CC:DD:EE:FF", Port: 8080}
	require.False(t, plain.IsEncrypted())

	key := "base64key"
	encrypted := plain
	encrypted.Key = &key
	require.True(t, encrypted.IsEncrypted())
}

func TestSendRequestEffectiveIDs(t *testing.T) {
	id := "xyz"
	r := SendRequest{ID: &id}
	require.Equal(t, "xyz", r.EffectiveTaskID())
	require.Equal(t, "unknown", r.EffectiveSenderID())

	taskID := "primary"
	r2 := SendRequest{TaskID: &taskID, ID: &id}
	require.Equal(t, "primary", r2.EffectiveTaskID())

	r3 := SendRequest{}
	require.Equal(t, "unknown", r3.EffectiveTaskID())
}
