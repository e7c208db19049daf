package events

// Event is one journaled change. Events carry a global sequence number instead
// of a wall-clock timestamp so a replayed run produces an identical journal.
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Sequence() int
	Version() int
}

type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadAllEvents(fromPosition int) ([]Event, error)
}

type BaseEvent struct {
	EventType     string
	Stream        string
	EventData     interface{}
	EventSequence int
	EventVersion  int
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Sequence() int {
	return e.EventSequence
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent creates an unsequenced event; the store assigns sequence and version
func NewEvent(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
	}
}
