// Package outputlog keeps the most recent output lines of each tool for
// display.
package outputlog

import (
	"sort"
	"sync"

	"github.com/dshills/toolshell/internal/event"
	"github.com/dshills/toolshell/internal/process"
)

// DefaultCapacity is the number of lines kept per tool.
const DefaultCapacity = 1000

// Log is a bounded per-tool line buffer. It is safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	capacity int
	allowed  map[string]bool
	buffers  map[string]*ring
}

// New creates a log keeping capacity lines per tool. If tools is non-empty,
// lines for any other tool are ignored. A capacity <= 0 uses DefaultCapacity.
func New(capacity int, tools ...string) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	l := &Log{
		capacity: capacity,
		buffers:  make(map[string]*ring),
	}
	if len(tools) > 0 {
		l.allowed = make(map[string]bool, len(tools))
		for _, t := range tools {
			l.allowed[t] = true
		}
	}
	return l
}

// Append records one output line, evicting the oldest line of its tool
// when full.
func (l *Log) Append(ev process.OutputEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowed != nil && !l.allowed[ev.Tool] {
		return
	}

	buf, ok := l.buffers[ev.Tool]
	if !ok {
		buf = newRing(l.capacity)
		l.buffers[ev.Tool] = buf
	}
	buf.push(ev)
}

// Entries returns the buffered output of tool with its stream, oldest first.
func (l *Log) Entries(tool string) []process.OutputEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	buf, ok := l.buffers[tool]
	if !ok {
		return nil
	}
	return buf.snapshot()
}

// Lines returns the buffered message text of tool, oldest first.
func (l *Log) Lines(tool string) []string {
	entries := l.Entries(tool)
	if entries == nil {
		return nil
	}
	lines := make([]string, len(entries))
	for i, ev := range entries {
		lines[i] = ev.Message
	}
	return lines
}

// Clear drops all buffered lines for tool.
func (l *Log) Clear(tool string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buffers, tool)
}

// Tools returns the names of tools with buffered output, sorted.
func (l *Log) Tools() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tools := make([]string, 0, len(l.buffers))
	for t := range l.buffers {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// Attach subscribes the log to process output on bus. The returned function
// removes the subscription.
func (l *Log) Attach(bus *event.Bus) (func(), error) {
	id, err := bus.Subscribe(event.TopicProcessOutput, func(ev event.Event) {
		out, ok := ev.Payload.(process.OutputEvent)
		if !ok {
			return
		}
		l.Append(out)
	})
	if err != nil {
		return nil, err
	}
	return func() { bus.Unsubscribe(id) }, nil
}

// ring is a fixed-size circular buffer of output events.
type ring struct {
	lines []process.OutputEvent
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{lines: make([]process.OutputEvent, capacity)}
}

func (r *ring) push(line process.OutputEvent) {
	if r.size < len(r.lines) {
		r.lines[(r.start+r.size)%len(r.lines)] = line
		r.size++
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % len(r.lines)
}

func (r *ring) snapshot() []process.OutputEvent {
	out := make([]process.OutputEvent, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.lines[(r.start+i)%len(r.lines)]
	}
	return out
}
