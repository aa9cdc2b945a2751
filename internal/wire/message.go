// Package wire implements the CatShare-compatible WebSocket control
// grammar and its JSON payload shapes: WsMessage framing, and the
// DeviceInfo / P2pInfo / SendRequest payloads exchanged over BLE and
// the WebSocket control channel.
package wire

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// msgPattern matches "kind:id:name" with an optional "?payload" suffix.
// The payload capture group (5) deliberately spans to end of string so
// a JSON payload containing "?" is not truncated.
var msgPattern = regexp.MustCompile(`^(\w+):(\d+):(\w+)(\?(.*))?$`)

// Kind is the message verb: either an action or an acknowledgement of
// one.
type Kind string

const (
	KindAction Kind = "action"
	KindAck    Kind = "ack"
)

// Message is a single control-channel frame. Payload is kept as raw
// JSON so callers decode it into whatever shape the Name implies.
type Message struct {
	Kind    Kind
	ID      uint32
	Name    string
	Payload json.RawMessage // nil when the frame carried no "?payload"
}

// Parse decodes text per the grammar
// "^(\w+):(\d+):(\w+)(\?(.*))?$". It returns false if text does not
// match, or its id field overflows uint32.
func Parse(text string) (Message, bool) {
	m := msgPattern.FindStringSubmatch(text)
	if m == nil {
		return Message{}, false
	}
	id, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return Message{}, false
	}
	msg := Message{
		Kind: Kind(m[1]),
		ID:   uint32(id),
		Name: m[3],
	}
	if m[4] != "" {
		msg.Payload = json.RawMessage(m[5])
	}
	return msg, true
}

// String renders the literal inverse of Parse: "kind:id:name" plus
// "?payload" when Payload is set. Round-tripping Parse(msg.String())
// reproduces msg for any value Parse itself could have produced.
func (m Message) String() string {
	s := fmt.Sprintf("%s:%d:%s", m.Kind, m.ID, m.Name)
	if m.Payload != nil {
		s += "?" + string(m.Payload)
	}
	return s
}

// Action builds an "action" frame, marshalling payload to JSON (no
// payload when payload is nil).
func Action(id uint32, name string, payload any) (Message, error) {
	return build(KindAction, id, name, payload)
}

// Ack builds an "ack" frame, marshalling payload to JSON (no payload
// when payload is nil).
func Ack(id uint32, name string, payload any) (Message, error) {
	return build(KindAck, id, name, payload)
}

func build(kind Kind, id uint32, name string, payload any) (Message, error) {
	msg := Message{Kind: kind, ID: id, Name: name}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("wire: marshal payload for %s:%d:%s: %w", kind, id, name, err)
	}
	msg.Payload = raw
	return msg, nil
}

// versionNegotiationPayload is the fixed payload of VersionNegotiation:
// this implementation speaks protocol version 1 only.
type versionNegotiationPayload struct {
	Version  int   `json:"version"`
	Versions []int `json:"versions"`
}

// VersionNegotiation builds the action:id:versionNegotiation?{...}
// frame both peers exchange at session start.
func VersionNegotiation(id uint32) Message {
	msg, err := Action(id, "versionNegotiation", versionNegotiationPayload{Version: 1, Versions: []int{1}})
	if err != nil {
		// payload is a static literal; marshalling it can never fail.
		panic(err)
	}
	return msg
}

// Status type codes carried in a status frame's "type" field.
const (
	StatusOK          = 1
	StatusUserRefused = 3
)

type statusPayload struct {
	TaskID string `json:"taskId"`
	ID     string `json:"id"`
	Type   int    `json:"type"`
	Reason string `json:"reason"`
}

// Status builds the action:id:status?{...} frame used to report a
// transfer's outcome. statusType is StatusOK, StatusUserRefused, or
// any other value to signal failure.
func Status(id uint32, taskID string, statusType int, reason string) Message {
	msg, err := Action(id, "status", statusPayload{
		TaskID: taskID,
		ID:     taskID,
		Type:   statusType,
		Reason: reason,
	})
	if err != nil {
		panic(err)
	}
	return msg
}
