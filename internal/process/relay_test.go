package process

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingReader records whether Close was called.
type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func runRelay(t *testing.T, input string, stream Stream, sink Sink) *trackingReader {
	t.Helper()
	r := &trackingReader{Reader: strings.NewReader(input)}
	relay("parser", stream, r, sink, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return r
}

func TestRelay_LineIntegrity(t *testing.T) {
	sink := &collector{}
	r := runRelay(t, "A\nB\n", StreamStdout, sink)

	assert.Equal(t, []OutputEvent{
		{Tool: "parser", Message: "A", Stream: StreamStdout},
		{Tool: "parser", Message: "B", Stream: StreamStdout},
	}, sink.all())
	assert.True(t, r.closed, "relay must close its stream")
}

func TestRelay_Framing(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty stream", "", nil},
		{"unterminated only", "no newline", nil},
		{"trailing fragment dropped", "one\ntwo\nthr", []string{"one", "two"}},
		{"crlf stripped", "win\r\nline\r\n", []string{"win", "line"}},
		{"lone cr kept inside line", "a\rb\n", []string{"a\rb"}},
		{"blank lines delivered", "\n\nx\n", []string{"", "", "x"}},
		{"unicode", "héllo wörld\n", []string{"héllo wörld"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &collector{}
			runRelay(t, tt.input, StreamStderr, sink)
			assert.Equal(t, tt.want, sink.messages("parser", StreamStderr))
		})
	}
}

func TestRelay_LongLine(t *testing.T) {
	long := strings.Repeat("x", 256*1024)
	sink := &collector{}
	runRelay(t, long+"\nshort\n", StreamStdout, sink)

	msgs := sink.messages("parser", StreamStdout)
	require.Len(t, msgs, 2)
	assert.Len(t, msgs[0], len(long))
	assert.Equal(t, "short", msgs[1])
}

func TestRelay_UndecodableLineStopsDeliveryAndDrains(t *testing.T) {
	input := "ok\n\xff\xfe\nafter\nmore\n"
	buf := bytes.NewReader([]byte(input))
	r := &trackingReader{Reader: buf}

	sink := &collector{}
	relay("parser", StreamStdout, r, sink, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, []string{"ok"}, sink.messages("parser", StreamStdout))
	assert.Equal(t, 0, buf.Len(), "remaining output must be drained")
	assert.True(t, r.closed)
}

func TestRelay_SinkErrorsAreSwallowed(t *testing.T) {
	var calls int
	sink := SinkFunc(func(OutputEvent) error {
		calls++
		return errors.New("sink unavailable")
	})

	runRelay(t, "a\nb\nc\n", StreamStdout, sink)
	assert.Equal(t, 3, calls, "relay keeps reading after delivery failures")
}

func TestRelay_SinkPanicsAreRecovered(t *testing.T) {
	var calls int
	sink := SinkFunc(func(OutputEvent) error {
		calls++
		panic("bad sink")
	})

	assert.NotPanics(t, func() {
		runRelay(t, "a\nb\n", StreamStdout, sink)
	})
	assert.Equal(t, 2, calls)
}

// failingReader returns data once, then a non-EOF error.
type failingReader struct {
	data []byte
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("read failed")
	}
	r.done = true
	return copy(p, r.data), nil
}

func (r *failingReader) Close() error { return nil }

func TestRelay_ReadErrorEndsLoop(t *testing.T) {
	sink := &collector{}
	relay("viewer", StreamStderr, &failingReader{data: []byte("first\npart")}, sink, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, []string{"first"}, sink.messages("viewer", StreamStderr))
}

func TestStream_String(t *testing.T) {
	assert.Equal(t, "stdout", StreamStdout.String())
	assert.Equal(t, "stderr", StreamStderr.String())
}
