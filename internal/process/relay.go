package process

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// relay forwards each complete line read from r to sink until r is
// exhausted. It closes r before returning.
func relay(tool string, stream Stream, r io.ReadCloser, sink Sink, logger *slog.Logger) {
	defer r.Close()

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			// A fragment without a terminator is dropped here.
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logger.Debug("output relay read failed", "tool", tool, "stream", stream, "error", err)
			}
			return
		}

		line = strings.TrimSuffix(line[:len(line)-1], "\r")
		if !utf8.ValidString(line) {
			logger.Debug("output relay stopped on undecodable line", "tool", tool, "stream", stream)
			// Keep the pipe drained so the child never blocks on a full buffer.
			_, _ = io.Copy(io.Discard, br)
			return
		}

		deliver(sink, OutputEvent{Tool: tool, Message: line, Stream: stream}, logger)
	}
}

// deliver hands ev to sink, swallowing errors and panics.
func deliver(sink Sink, ev OutputEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("output sink panicked", "tool", ev.Tool, "stream", ev.Stream, "panic", r)
		}
	}()

	if err := sink.Deliver(ev); err != nil {
		logger.Debug("output event dropped", "tool", ev.Tool, "stream", ev.Stream, "error", err)
	}
}
