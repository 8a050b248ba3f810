package process

// Stream identifies which output stream of a child a line came from.
type Stream string

const (
	// StreamStdout tags lines read from standard output.
	StreamStdout Stream = "stdout"
	// StreamStderr tags lines read from standard error.
	StreamStderr Stream = "stderr"
)

// String returns the stream name.
func (s Stream) String() string {
	return string(s)
}

// OutputEvent is one line of output from a supervised tool.
type OutputEvent struct {
	// Tool is the slot name the producing process was started under.
	Tool string `json:"tool"`

	// Message is the line text without its terminator.
	Message string `json:"message"`

	// Stream is the stream the line was read from.
	Stream Stream `json:"stream"`
}

// Sink receives output events from relay goroutines.
//
// Deliver may be called concurrently for different streams and tools.
// Errors are ignored by the relay; a failing sink never stalls the child.
type Sink interface {
	Deliver(ev OutputEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev OutputEvent) error

// Deliver calls f(ev).
func (f SinkFunc) Deliver(ev OutputEvent) error {
	return f(ev)
}

// discardSink drops every event.
type discardSink struct{}

func (discardSink) Deliver(OutputEvent) error { return nil }
