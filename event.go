package unspool

// Event is a sealed interface representing a streaming event.
// Transport errors come from Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventChunk carries text to append to the message buffer.
type EventChunk struct {
	Text string
}

func (EventChunk) event() {}

// EventMetadata carries non-content information reported by the source,
// such as the model that produced the message.
type EventMetadata struct {
	Model string
}

func (EventMetadata) event() {}

// Interface compliance checks.
var (
	_ Event = EventChunk{}
	_ Event = EventMetadata{}
)
