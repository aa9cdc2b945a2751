package transfer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Tinnci/cattysend/internal/wire"
)

func TestReceiverFSMHappyPath(t *testing.T) {
	fsm := NewReceiverFSM(AcceptAll)
	require.Equal(t, StateAwaitVersionNegotiation, fsm.State())

	replies, err := fsm.Step(wire.VersionNegotiation(1))
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, wire.KindAck, replies[0].Kind)
	require.Equal(t, StateAwaitSendRequest, fsm.State())

	sendReq, err := wire.Action(2, "sendRequest", wire.SendRequest{
		TaskID:    strPtr("task-1"),
		FileName:  "photo.jpg",
		MimeType:  "image/jpeg",
		FileCount: 1,
		TotalSize: 1024,
	})
	require.NoError(t, err)

	replies, err = fsm.Step(sendReq)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, wire.KindAck, replies[0].Kind)
	require.Equal(t, StateDownloading, fsm.State())
	require.Equal(t, "task-1", fsm.TaskID)

	status := fsm.CompleteDownload()
	require.Equal(t, StateCompleted, fsm.State())
	require.True(t, fsm.State().IsTerminal())

	var payload struct {
		TaskID string `json:"taskId"`
		Type   int    `json:"type"`
	}
	require.NoError(t, json.Unmarshal(status.Payload, &payload))
	require.Equal(t, "task-1", payload.TaskID)
	require.Equal(t, wire.StatusOK, payload.Type)
}

func TestReceiverFSMRejectsWhenPolicyDeclines(t *testing.T) {
	fsm := NewReceiverFSM(func(wire.SendRequest) bool { return false })
	_, err := fsm.Step(wire.VersionNegotiation(1))
	require.NoError(t, err)

	sendReq, err := wire.Action(2, "sendRequest", wire.SendRequest{TaskID: strPtr("task-2")})
	require.NoError(t, err)

	replies, err := fsm.Step(sendReq)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, "status", replies[0].Name)
	require.Equal(t, StateRejected, fsm.State())
	require.True(t, fsm.State().IsTerminal())
}

func TestReceiverFSMAcksUnknownActionsWithoutChangingState(t *testing.T) {
	fsm := NewReceiverFSM(AcceptAll)
	unknown, err := wire.Action(9, "ping", nil)
	require.NoError(t, err)

	replies, err := fsm.Step(unknown)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	require.Equal(t, wire.KindAck, replies[0].Kind)
	require.Equal(t, uint32(9), replies[0].ID)
	require.Equal(t, StateAwaitVersionNegotiation, fsm.State())
}

func TestReceiverFSMFailIsTerminal(t *testing.T) {
	fsm := NewReceiverFSM(AcceptAll)
	fsm.Fail()
	require.Equal(t, StateFailed, fsm.State())
	require.True(t, fsm.State().IsTerminal())
}

func strPtr(s string) *string { return &s }
