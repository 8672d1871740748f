package unspool

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving chunks.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream is a pull-based source of text chunks for one message.
// Cancellation flows through the context used to open it.
//
// Next returns io.EOF once generation completes; any other error is
// terminal and the text received so far remains valid.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}
