// Package session composes the crypto, advertisement, BLE, Wi-Fi, wire,
// and transfer packages into the two user-facing workflows spec.md
// calls Sender and Receiver: orchestration only, no protocol logic of
// its own.
package session

// Event is the orchestrator-level progress report, handed to whatever
// progress_sink the caller supplied. Exactly one of Status/Progress/
// Complete/Err is meaningful per event.
type Event struct {
	Status   string
	Sent     uint64
	Total    uint64
	Complete bool
	Err      error
}

func statusEvent(s string) Event               { return Event{Status: s} }
func progressEvent(sent, total uint64) Event   { return Event{Sent: sent, Total: total} }
func completeEvent() Event                     { return Event{Complete: true} }
func errorEvent(err error) Event               { return Event{Err: err} }

// Sink receives Events in order. A nil Sink is valid; events are
// simply dropped.
type Sink func(Event)

func (s Sink) emit(e Event) {
	if s != nil {
		s(e)
	}
}
