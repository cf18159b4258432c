package aisdk

import (
	"context"
	"sort"
	"strings"
)

// ModelClient issues chat completions against a specific model.
type ModelClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest) (StreamInterface, error)
}

// StreamInterface reads chunks from a streamed completion. Read returns
// io.EOF once the transport has delivered its explicit terminal marker; a
// connection that drops before the marker surfaces a different error.
type StreamInterface interface {
	Read() (*StreamChunk, error)
	Close() error
}

// StreamAggregator assembles a streamed completion back into a full response:
// text deltas are concatenated and tool-call fragments are reassembled by
// index, a Name fragment starting a call and argument-only fragments
// extending the call at that index.
type StreamAggregator struct {
	ID      string
	Object  string
	Created int64
	Model   string
	Content strings.Builder

	FinishReason string
	Usage        *Usage

	calls map[int]*pendingCall
}

type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// NewStreamAggregator creates a new stream aggregator.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{
		Object: "chat.completion",
		calls:  make(map[int]*pendingCall),
	}
}

// AddChunk processes a stream chunk and updates the aggregated state.
func (a *StreamAggregator) AddChunk(chunk *StreamChunk) {
	if a.ID == "" {
		a.ID = chunk.ID
	}
	if a.Created == 0 {
		a.Created = chunk.Created
	}
	if a.Model == "" {
		a.Model = chunk.Model
	}
	if chunk.Usage != nil {
		a.Usage = chunk.Usage
	}

	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != "" {
		a.Content.WriteString(choice.Delta.Content)
	}

	for _, tc := range choice.Delta.ToolCalls {
		call, ok := a.calls[tc.Index]
		if !ok {
			call = &pendingCall{}
			a.calls[tc.Index] = call
		}
		if tc.ID != "" {
			call.id = tc.ID
		}
		if tc.Function.Name != "" {
			call.name = tc.Function.Name
		}
		if tc.Function.Arguments != "" {
			call.args.WriteString(tc.Function.Arguments)
		}
	}

	if choice.FinishReason != nil && *choice.FinishReason != "" {
		a.FinishReason = *choice.FinishReason
	}
}

// ToolCalls returns the reassembled tool calls in index order.
func (a *StreamAggregator) ToolCalls() []ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		pc := a.calls[i]
		args := pc.args.String()
		if args == "" {
			args = "{}"
		}
		calls = append(calls, ToolCall{
			ID:   pc.id,
			Type: "function",
			Function: FunctionCall{
				Name:      pc.name,
				Arguments: []byte(args),
			},
		})
	}
	return calls
}

// ToResponse converts the aggregated stream into a ChatCompletionResponse.
func (a *StreamAggregator) ToResponse() *ChatCompletionResponse {
	response := &ChatCompletionResponse{
		ID:      a.ID,
		Object:  a.Object,
		Created: a.Created,
		Model:   a.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: Message{
					Role:      "assistant",
					Content:   a.Content.String(),
					ToolCalls: a.ToolCalls(),
				},
				FinishReason: a.FinishReason,
			},
		},
	}
	if a.Usage != nil {
		response.Usage = *a.Usage
	}
	return response
}
