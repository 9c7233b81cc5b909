package battle

// EventType tags the events a stream session delivers to the reducer.
type EventType int

const (
	// EventToken carries an incremental text chunk for one lane.
	EventToken EventType = iota
	// EventReplace overwrites a lane's full text without touching its phase.
	// This is the only event allowed to mutate a terminal lane.
	EventReplace
	// EventDone transitions a lane to Done or Errored.
	EventDone
	// EventResult is the single-shot terminal variant: full text, latency
	// and optional error in one event. Emitted when the backend replays a
	// previously completed battle instead of re-streaming it.
	EventResult
	// EventSessionEnd signals that the backend closed the stream normally.
	EventSessionEnd
	// EventTransportError signals that the connection dropped or the server
	// aborted the stream without finishing both lanes.
	EventTransportError
)

var eventTypeNames = map[EventType]string{
	EventToken:          "token",
	EventReplace:        "replace",
	EventDone:           "done",
	EventResult:         "result",
	EventSessionEnd:     "session_end",
	EventTransportError: "transport_error",
}

func (t EventType) String() string {
	if s, ok := eventTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Event is the tagged union consumed by Apply. Side is meaningful only for
// lane-scoped events (token, replace, done, result).
type Event struct {
	Type      EventType
	Side      Side
	Text      string // token chunk, or full text for replace/result
	LatencyMs int    // done/result only
	Err       string // lane-level error on done/result
}
