package event

import (
	"strings"
	"time"
)

// Topics published by the application shell.
const (
	// TopicProcessOutput carries a process.OutputEvent for every line a tool writes.
	TopicProcessOutput = "process.output"

	// TopicToolStarted carries a ToolStatus after a tool was launched.
	TopicToolStarted = "tool.started"

	// TopicToolStopped carries a ToolStatus after a tool was asked to stop.
	TopicToolStopped = "tool.stopped"

	// TopicToolFailed carries a ToolStatus when a tool could not be launched.
	TopicToolFailed = "tool.failed"

	// TopicConfigChanged carries the reloaded configuration.
	TopicConfigChanged = "config.changed"
)

// Event is a published notification.
type Event struct {
	// Topic is the topic the event was published on.
	Topic string

	// Payload is the event data.
	Payload any

	// Time is when the event was published.
	Time time.Time
}

// Handler receives events.
type Handler func(ev Event)

// ToolStatus is the payload of tool lifecycle topics.
type ToolStatus struct {
	// Tool is the tool slot name.
	Tool string `json:"tool"`

	// Error describes a launch failure for TopicToolFailed.
	Error string `json:"error,omitempty"`
}

// validTopic reports whether t is usable as a published topic.
func validTopic(t string) bool {
	if t == "" || strings.Contains(t, "*") {
		return false
	}
	for _, seg := range strings.Split(t, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

// validPattern reports whether p is usable as a subscription pattern.
func validPattern(p string) bool {
	if p == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(p, ".*"); ok {
		return validTopic(prefix)
	}
	return validTopic(p)
}

// matchPattern checks if a topic matches a subscription pattern.
func matchPattern(pattern, topic string) bool {
	if pattern == "*" {
		return true
	}
	prefix, ok := strings.CutSuffix(pattern, ".*")
	if !ok {
		return pattern == topic
	}
	return strings.HasPrefix(topic, prefix+".")
}
