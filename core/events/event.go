package events

// Event represents a typed state change emitted by a protocol module. The
// attribute map carries the payload as canonical strings so downstream
// consumers (indexers, accounting exports) never depend on binary layouts.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Emitter broadcasts events to downstream subscribers.
type Emitter interface {
	Emit(*Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for engines whose caller has not attached a subscriber.
type NoopEmitter struct{}

func (NoopEmitter) Emit(*Event) {}

// Recorder captures emitted events in order. Intended for tests.
type Recorder struct {
	Events []*Event
}

func (r *Recorder) Emit(evt *Event) {
	if evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}

// ByType returns the recorded events matching the supplied type.
func (r *Recorder) ByType(eventType string) []*Event {
	var matched []*Event
	for _, evt := range r.Events {
		if evt.Type == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}
