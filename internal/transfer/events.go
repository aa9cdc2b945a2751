package transfer

// Event is a unit of progress reported to whatever is driving a
// transfer (today: internal/session; eventually a UI of some kind).
// Exactly one of the fields other than the zero value is meaningful
// per event, mirroring the Status/Progress/Complete/Error variants
// spec.md §4.7 describes for the session-level progress sink.
type Event struct {
	Status   string
	Sent     uint64
	Total    uint64
	Complete bool
	Err      error
}

func StatusEvent(s string) Event { return Event{Status: s} }

func ProgressEvent(sent, total uint64) Event { return Event{Sent: sent, Total: total} }

func CompleteEvent() Event { return Event{Complete: true} }

func ErrorEvent(err error) Event { return Event{Err: err} }

// Sink receives Events in order; internal/session adapts this into
// whatever its own caller-facing channel type is.
type Sink func(Event)
