package executor

import (
	"encoding/json"

	"github.com/launchpad-agents/launchpad/src/aisdk"
)

// ConversationState tracks one conversation across loop iterations. Messages
// are append-only; the counters and flags below bound the loop.
type ConversationState struct {
	messages []*aisdk.Message

	// toolCallCount counts executed tool calls across the whole conversation.
	toolCallCount int

	// activeGroup names the tool group whose persona instruction was injected
	// most recently. Empty until the first grouped tool runs.
	activeGroup string

	// executed holds signatures of already-executed calls so repeats are
	// answered from a note instead of rerun.
	executed map[string]struct{}

	// hadFailure is sticky. Once any tool execution fails, every later
	// completion is requested without tools so the model must answer in text.
	hadFailure bool
}

// NewConversationState seeds a conversation with an optional system prompt
// followed by the caller-provided history.
func NewConversationState(systemPrompt string, history []*aisdk.Message) *ConversationState {
	s := &ConversationState{
		executed: make(map[string]struct{}),
	}
	if systemPrompt != "" {
		s.messages = append(s.messages, &aisdk.Message{Role: "system", Content: systemPrompt})
	}
	s.messages = append(s.messages, history...)
	return s
}

// Append adds a message to the conversation.
func (s *ConversationState) Append(msg *aisdk.Message) {
	s.messages = append(s.messages, msg)
}

// Messages returns the conversation history. The returned slice must not be
// mutated.
func (s *ConversationState) Messages() []*aisdk.Message {
	return s.messages
}

// ToolCallCount returns the number of tool calls executed so far.
func (s *ConversationState) ToolCallCount() int { return s.toolCallCount }

// CountToolCall records one executed tool call.
func (s *ConversationState) CountToolCall() { s.toolCallCount++ }

// ActiveGroup returns the currently active tool group name.
func (s *ConversationState) ActiveGroup() string { return s.activeGroup }

// SetActiveGroup records a persona handoff.
func (s *ConversationState) SetActiveGroup(name string) { s.activeGroup = name }

// HadFailure reports whether any tool execution has failed.
func (s *ConversationState) HadFailure() bool { return s.hadFailure }

// RecordFailure marks the conversation as having seen a tool failure.
func (s *ConversationState) RecordFailure() { s.hadFailure = true }

// MarkExecuted records a call signature as executed.
func (s *ConversationState) MarkExecuted(sig string) {
	s.executed[sig] = struct{}{}
}

// AlreadyExecuted reports whether a call with this signature already ran.
func (s *ConversationState) AlreadyExecuted(sig string) bool {
	_, ok := s.executed[sig]
	return ok
}

// CallSignature derives a stable identity for a tool call from its name and
// arguments. Arguments are canonicalized by parsing and re-marshaling, which
// sorts object keys, so `{"a":1,"b":2}` and `{"b":2,"a":1}` collide.
// Unparseable arguments fall back to their raw text.
func CallSignature(name string, args json.RawMessage) string {
	var parsed any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return name + ":" + string(args)
	}
	canonical, err := json.Marshal(parsed)
	if err != nil {
		return name + ":" + string(args)
	}
	return name + ":" + string(canonical)
}
