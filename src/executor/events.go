// Package executor drives the tool-calling conversation loop: it requests
// completions, forwards text deltas as they stream in, executes the tool
// calls the model asks for, and feeds the results back until the model
// produces a plain text answer or the loop's safety bounds trip.
package executor

import "strings"

// EventType identifies a conversation event.
type EventType string

const (
	EventTextDelta       EventType = "text-delta"
	EventToolCallRequest EventType = "tool-call-request"
	EventToolProgress    EventType = "tool-progress"
	EventToolCallResult  EventType = "tool-call-result"
	EventError           EventType = "error"
)

// Event is a single conversation event. Fields are populated per type:
// text-delta carries Content; tool-call-request carries ID, Name and
// Arguments; tool-progress carries ID, Name and Content; tool-call-result
// carries ID and Content; error carries Message.
type Event struct {
	Type      EventType `json:"type"`
	Content   string    `json:"content,omitempty"`
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Arguments string    `json:"arguments,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// EventSink receives conversation events in order. Implementations must not
// reorder events; the loop blocks on Send so a sink writing to a network
// stream forwards each event before the next one is produced.
type EventSink interface {
	Send(event Event) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(event Event) error

func (f SinkFunc) Send(event Event) error { return f(event) }

// TextDeltaEvent builds a text-delta event.
func TextDeltaEvent(content string) Event {
	return Event{Type: EventTextDelta, Content: content}
}

// ToolCallRequestEvent builds a tool-call-request event.
func ToolCallRequestEvent(id, name, arguments string) Event {
	return Event{Type: EventToolCallRequest, ID: id, Name: name, Arguments: arguments}
}

// ToolProgressEvent builds a tool-progress event.
func ToolProgressEvent(id, name, content string) Event {
	return Event{Type: EventToolProgress, ID: id, Name: name, Content: content}
}

// ToolCallResultEvent builds a tool-call-result event.
func ToolCallResultEvent(id, content string) Event {
	return Event{Type: EventToolCallResult, ID: id, Content: content}
}

// ErrorEvent builds an error event.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

// CollectorSink accumulates events in memory. Used for non-streamed requests
// and in tests.
type CollectorSink struct {
	Events []Event
}

func (c *CollectorSink) Send(event Event) error {
	c.Events = append(c.Events, event)
	return nil
}

// Text returns the concatenated text-delta content.
func (c *CollectorSink) Text() string {
	var sb strings.Builder
	for _, e := range c.Events {
		if e.Type == EventTextDelta {
			sb.WriteString(e.Content)
		}
	}
	return sb.String()
}

// Errors returns the messages of any error events.
func (c *CollectorSink) Errors() []string {
	var out []string
	for _, e := range c.Events {
		if e.Type == EventError {
			out = append(out, e.Message)
		}
	}
	return out
}
