// Package transfer implements the WebSocket control-channel state
// machine, the TLS bulk-download endpoint, and ZIP packaging/
// extraction: the wire-level half of a transfer, independent of how
// the BLE/Wi-Fi bearer got the two peers onto the same link.
package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/Tinnci/cattysend/internal/wire"
)

// ReceiverState is the receiver side of the control-channel state
// machine.
type ReceiverState int

const (
	StateAwaitVersionNegotiation ReceiverState = iota
	StateAwaitSendRequest
	StateDownloading
	StateReportingStatus
	StateCompleted
	StateRejected
	StateFailed
)

func (s ReceiverState) String() string {
	switch s {
	case StateAwaitVersionNegotiation:
		return "Await_VersionNegotiation"
	case StateAwaitSendRequest:
		return "Await_SendRequest"
	case StateDownloading:
		return "Downloading"
	case StateReportingStatus:
		return "Reporting_Status"
	case StateCompleted:
		return "Completed"
	case StateRejected:
		return "Rejected"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

func (s ReceiverState) IsTerminal() bool {
	return s == StateCompleted || s == StateRejected || s == StateFailed
}

// AcceptPolicy decides whether to accept an incoming send request.
type AcceptPolicy func(req wire.SendRequest) bool

// AcceptAll always accepts. It is NewReceiverFSM's default policy and
// the policy the session receiver always uses.
func AcceptAll(wire.SendRequest) bool { return true }

// ReceiverFSM drives the receiver side of the control channel
// described in spec.md §4.6.1. It owns no I/O itself: Step consumes
// one incoming frame and returns zero or more outgoing frames; once a
// SendRequest is accepted it is stored in Accepted and its task id in
// TaskID.
type ReceiverFSM struct {
	state  ReceiverState
	myID   uint32
	policy AcceptPolicy

	TaskID string
	Accepted wire.SendRequest
}

// NewReceiverFSM starts in StateAwaitVersionNegotiation.
func NewReceiverFSM(policy AcceptPolicy) *ReceiverFSM {
	if policy == nil {
		policy = AcceptAll
	}
	return &ReceiverFSM{state: StateAwaitVersionNegotiation, policy: policy}
}

func (f *ReceiverFSM) State() ReceiverState { return f.state }

// nextMyID returns a fresh monotone id for a self-initiated action,
// independent of the ids the peer assigns its own messages.
func (f *ReceiverFSM) nextMyID() uint32 {
	f.myID++
	return f.myID
}

// Step advances the FSM by one received frame and returns the frames
// to send in response, in order.
func (f *ReceiverFSM) Step(msg wire.Message) ([]wire.Message, error) {
	switch f.state {
	case StateAwaitVersionNegotiation:
		if msg.Kind == wire.KindAction && msg.Name == "versionNegotiation" {
			ack, err := wire.Ack(msg.ID, "versionNegotiation", versionAckPayload{Version: 1, ThreadLimit: 5})
			if err != nil {
				return nil, err
			}
			f.state = StateAwaitSendRequest
			return []wire.Message{ack}, nil
		}
		return f.ackOther(msg)

	case StateAwaitSendRequest:
		if msg.Kind == wire.KindAction && msg.Name == "sendRequest" {
			return f.handleSendRequest(msg)
		}
		return f.ackOther(msg)

	default:
		return f.ackOther(msg)
	}
}

func (f *ReceiverFSM) handleSendRequest(msg wire.Message) ([]wire.Message, error) {
	var req wire.SendRequest
	if msg.Payload != nil {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return nil, fmt.Errorf("transfer: decode sendRequest payload: %w", err)
		}
	}
	f.TaskID = req.EffectiveTaskID()

	if !f.policy(req) {
		status := wire.Status(f.nextMyID(), f.TaskID, wire.StatusUserRefused, "user refuse")
		f.state = StateRejected
		return []wire.Message{status}, nil
	}

	ack, err := wire.Ack(msg.ID, "sendRequest", nil)
	if err != nil {
		return nil, err
	}
	f.Accepted = req
	f.state = StateDownloading
	return []wire.Message{ack}, nil
}

// CompleteDownload transitions Downloading -> Completed and returns
// the status frame to send, once the HTTP side finishes successfully.
func (f *ReceiverFSM) CompleteDownload() wire.Message {
	status := wire.Status(f.nextMyID(), f.TaskID, wire.StatusOK, "ok")
	f.state = StateCompleted
	return status
}

// Fail transitions the FSM to Failed; callers use this for socket
// errors/closes where no further frame is expected to be sent.
func (f *ReceiverFSM) Fail() {
	f.state = StateFailed
}

func (f *ReceiverFSM) ackOther(msg wire.Message) ([]wire.Message, error) {
	ack, err := wire.Ack(msg.ID, msg.Name, nil)
	if err != nil {
		return nil, err
	}
	return []wire.Message{ack}, nil
}

type versionAckPayload struct {
	Version     int `json:"version"`
	ThreadLimit int `json:"threadLimit"`
}
