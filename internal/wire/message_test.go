package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	msg, ok := Parse(`action:1:sendRequest?{"taskId":"123"}`)
	require.True(t, ok)
	require.Equal(t, KindAction, msg.Kind)
	require.EqualValues(t, 1, msg.ID)
	require.Equal(t, "sendRequest", msg.Name)
	require.NotNil(t, msg.Payload)

	var req SendRequest
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	require.NotNil(t, req.TaskID)
	require.Equal(t, "123", *req.TaskID)
}

func TestParseAck(t *testing.T) {
	msg, ok := Parse(`ack:0:versionNegotiation?{"version":1}`)
	require.True(t, ok)
	require.Equal(t, KindAck, msg.Kind)
	require.EqualValues(t, 0, msg.ID)
	require.Equal(t, "versionNegotiation", msg.Name)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, ok := Parse("not a valid frame")
	require.False(t, ok)
}

func TestParseNoPayload(t *testing.T) {
	msg, ok := Parse("ack:5:ping")
	require.True(t, ok)
	require.Nil(t, msg.Payload)
}

func TestVersionNegotiationString(t *testing.T) {
	msg := VersionNegotiation(0)
	text := msg.String()
	require.Contains(t, text, "action:0:versionNegotiation?")
}

func TestRoundTrip(t *testing.T) {
	original := Status(99, "task123", StatusOK, "ok")
	text := original.String()
	parsed, ok := Parse(text)
	require.True(t, ok)
	require.Equal(t, original.Kind, parsed.Kind)
	require.Equal(t, original.ID, parsed.ID)
	require.Equal(t, original.Name, parsed.Name)
	require.JSONEq(t, string(original.Payload), string(parsed.Payload))
}

func TestRoundTripArbitraryMessages(t *testing.T) {
	cases := []Message{
		{Kind: KindAction, ID: 42, Name: "sendRequest", Payload: json.RawMessage(`{"a":1}`)},
		{Kind: KindAck, ID: 0, Name: "ping"},
	}
	for _, msg := range cases {
		parsed, ok := Parse(msg.String())
		require.True(t, ok)
		require.Equal(t, msg.Kind, parsed.Kind)
		require.Equal(t, msg.ID, parsed.ID)
		require.Equal(t, msg.Name, parsed.Name)
	}
}
