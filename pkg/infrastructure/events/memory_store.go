package events

import (
	"fmt"
	"sync"
)

// InMemoryEventStore keeps every stream in memory. Sequence numbers are global
// and versions count per stream, both starting at 1.
type InMemoryEventStore struct {
	versions  map[string]int
	mutex     sync.RWMutex
	allEvents []Event
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		versions:  make(map[string]int),
		allEvents: make([]Event, 0),
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	if streamID == "" {
		return fmt.Errorf("stream id cannot be empty")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.versions[streamID]++
	s.allEvents = append(s.allEvents, BaseEvent{
		EventType:     event.Type(),
		Stream:        streamID,
		EventData:     event.Data(),
		EventSequence: len(s.allEvents) + 1,
		EventVersion:  s.versions[streamID],
	})
	return nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[fromPosition:]...), nil
}
