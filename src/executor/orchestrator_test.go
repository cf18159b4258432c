package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/aisdk"
	"github.com/launchpad-agents/launchpad/src/llmclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTurn struct {
	chunks []*aisdk.StreamChunk
	// err is returned after the chunks are drained instead of the normal
	// end-of-stream marker.
	err error
}

type scriptedClient struct {
	turns    []scriptedTurn
	requests []*aisdk.ChatCompletionRequest
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req *aisdk.ChatCompletionRequest) (*aisdk.ChatCompletionResponse, error) {
	return nil, errors.New("not implemented")
}

func (c *scriptedClient) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	c.requests = append(c.requests, req)
	if len(c.turns) == 0 {
		return nil, errors.New("no scripted turns left")
	}
	turn := c.turns[0]
	c.turns = c.turns[1:]
	return &scriptedStream{turn: turn}, nil
}

type scriptedStream struct {
	turn scriptedTurn
	idx  int
}

func (s *scriptedStream) Read() (*aisdk.StreamChunk, error) {
	if s.idx >= len(s.turn.chunks) {
		if s.turn.err != nil {
			return nil, s.turn.err
		}
		return nil, io.EOF
	}
	chunk := s.turn.chunks[s.idx]
	s.idx++
	return chunk, nil
}

func (s *scriptedStream) Close() error { return nil }

func textChunk(content string) *aisdk.StreamChunk {
	return &aisdk.StreamChunk{
		Choices: []aisdk.StreamChoice{{Delta: aisdk.StreamDelta{Content: content}}},
	}
}

func callChunk(index int, id, name, args string) *aisdk.StreamChunk {
	return &aisdk.StreamChunk{
		Choices: []aisdk.StreamChoice{{
			Delta: aisdk.StreamDelta{
				ToolCalls: []aisdk.ToolCallDelta{{
					Index:    index,
					ID:       id,
					Function: aisdk.FunctionCallDelta{Name: name, Arguments: args},
				}},
			},
		}},
	}
}

type lookupInput struct {
	Query string `json:"query" required:"true"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrchestrator(t *testing.T, client aisdk.ModelClient, tb *agent.Toolbox, maxCalls int) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		Client:       client,
		Toolbox:      tb,
		Logger:       quietLogger(),
		MaxToolCalls: maxCalls,
		Seed:         42,
	})
	require.NoError(t, err)
	return o
}

func userTurn(text string) []*aisdk.Message {
	return []*aisdk.Message{{Role: "user", Content: text}}
}

func TestRunPlainText(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{textChunk("Hello"), textChunk(" world")}},
	}}
	o := newOrchestrator(t, client, agent.NewToolbox(), 10)
	sink := &CollectorSink{}
	state := NewConversationState("be brief", userTurn("hi"))

	require.NoError(t, o.Run(context.Background(), state, sink))

	assert.Equal(t, "Hello world", sink.Text())
	assert.Empty(t, sink.Errors())

	msgs := state.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "Hello world", msgs[2].Content)
}

func TestRunToolRoundTrip(t *testing.T) {
	executed := 0
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) {
			executed++
			return "result for " + in.Query, nil
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		// Arguments arrive fragmented across chunks.
		{chunks: []*aisdk.StreamChunk{
			callChunk(0, "call_1", "lookup", `{"que`),
			callChunk(0, "", "", `ry":"go"}`),
		}},
		{chunks: []*aisdk.StreamChunk{textChunk("done")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("look up go"))

	require.NoError(t, o.Run(context.Background(), state, sink))
	assert.Equal(t, 1, executed)

	// Request, then result, then the final text.
	types := make([]EventType, 0, len(sink.Events))
	for _, e := range sink.Events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventToolCallRequest, EventToolCallResult, EventTextDelta}, types)

	req := sink.Events[0]
	assert.Equal(t, "call_1", req.ID)
	assert.Equal(t, "lookup", req.Name)
	assert.JSONEq(t, `{"query":"go"}`, req.Arguments)

	res := sink.Events[1]
	assert.Equal(t, "call_1", res.ID)
	assert.Equal(t, "result for go", res.Content)

	// The follow-up completion carries the tool message correlated by id.
	require.Len(t, client.requests, 2)
	second := client.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "lookup", last.Name)
	assert.Equal(t, "result for go", last.Content)
}

func TestRunSuppressesDuplicateCalls(t *testing.T) {
	executed := 0
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) {
			executed++
			return "ok", nil
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_1", "lookup", `{"query":"go","page":1}`)}},
		// Same call with the keys flipped.
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_2", "lookup", `{"page":1,"query":"go"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("done")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))
	assert.Equal(t, 1, executed)

	// The duplicate produces no events, only a skip message in history so the
	// follow-up completion stays valid.
	var results []Event
	for _, e := range sink.Events {
		if e.Type == EventToolCallResult {
			results = append(results, e)
		}
	}
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Content)

	var toolMsgs []*aisdk.Message
	for _, m := range state.Messages() {
		if m.Role == "tool" {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Equal(t, "ok", toolMsgs[0].Content)
	assert.Contains(t, toolMsgs[1].Content, "already executed")
	assert.Equal(t, "call_2", toolMsgs[1].ToolCallID)
}

func TestRunWithdrawsToolsAfterFailure(t *testing.T) {
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) {
			return "", errors.New("upstream unavailable")
		})))
	skippedCalls := 0
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"other", "another tool",
		func(ctx context.Context, in lookupInput) (string, error) {
			skippedCalls++
			return "should not run", nil
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		// Two calls in one batch; the first fails, the second must be skipped.
		{chunks: []*aisdk.StreamChunk{
			callChunk(0, "call_1", "lookup", `{"query":"a"}`),
			callChunk(1, "call_2", "other", `{"query":"b"}`),
		}},
		{chunks: []*aisdk.StreamChunk{textChunk("sorry")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))
	assert.Equal(t, 0, skippedCalls)
	assert.True(t, state.HadFailure())

	var results []Event
	for _, e := range sink.Events {
		if e.Type == EventToolCallResult {
			results = append(results, e)
		}
	}
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "failed")

	// The skipped second call still leaves a tool message in history.
	var toolMsgs []*aisdk.Message
	for _, m := range state.Messages() {
		if m.Role == "tool" {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Contains(t, toolMsgs[1].Content, "skipped")

	// The follow-up completion offers no tools.
	require.Len(t, client.requests, 2)
	assert.NotEmpty(t, client.requests[0].Tools)
	assert.Empty(t, client.requests[1].Tools)
}

func TestRunEnforcesCallCeiling(t *testing.T) {
	executed := 0
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) {
			executed++
			return "ok", nil
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_1", "lookup", `{"query":"a"}`)}},
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_2", "lookup", `{"query":"b"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("final answer")}},
	}}
	o := newOrchestrator(t, client, tb, 2)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))
	assert.Equal(t, 2, executed)
	assert.Equal(t, "final answer", sink.Text())

	require.Len(t, client.requests, 3)
	assert.NotEmpty(t, client.requests[0].Tools)
	assert.NotEmpty(t, client.requests[1].Tools)
	assert.Empty(t, client.requests[2].Tools)
}

func TestRunUnknownTool(t *testing.T) {
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) { return "ok", nil })))

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_1", "no_such_tool", `{}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("done")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))

	var result *Event
	for i := range sink.Events {
		if sink.Events[i].Type == EventToolCallResult {
			result = &sink.Events[i]
		}
	}
	require.NotNil(t, result)
	assert.Contains(t, result.Content, "unknown tool")

	// Unknown tools do not trip the failure flag, but the call still counts
	// against the ceiling.
	assert.False(t, state.HadFailure())
	assert.Equal(t, 1, state.ToolCallCount())
	require.Len(t, client.requests, 2)
	assert.NotEmpty(t, client.requests[1].Tools)
}

func TestRunRepeatedUnknownToolHitsCeiling(t *testing.T) {
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) { return "ok", nil })))

	// The model re-issues the same unresolvable call every turn. The first
	// occurrence counts and marks the signature, the re-issue is skipped as
	// a duplicate but still counts, and the ceiling then withdraws tools.
	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_1", "no_such_tool", `{}`)}},
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_2", "no_such_tool", `{}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("giving up")}},
	}}
	o := newOrchestrator(t, client, tb, 2)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))
	assert.Equal(t, 2, state.ToolCallCount())
	assert.False(t, state.HadFailure())

	var toolMsgs []*aisdk.Message
	for _, m := range state.Messages() {
		if m.Role == "tool" {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 2)
	assert.Contains(t, toolMsgs[0].Content, "unknown tool")
	assert.Contains(t, toolMsgs[1].Content, "already executed")

	require.Len(t, client.requests, 3)
	assert.NotEmpty(t, client.requests[0].Tools)
	assert.NotEmpty(t, client.requests[1].Tools)
	assert.Empty(t, client.requests[2].Tools)
}

func TestRunArgumentErrorKeepsToolsOffered(t *testing.T) {
	executed := 0
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(ctx context.Context, in lookupInput) (string, error) {
			executed++
			return "result for " + in.Query, nil
		})))

	// Valid JSON missing the required field, then a corrected retry.
	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_1", "lookup", `{}`)}},
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_2", "lookup", `{"query":"go"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("done")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))

	// The rejection never reached the handler and must not downgrade the
	// conversation, or the corrected retry would be impossible.
	assert.False(t, state.HadFailure())
	assert.Equal(t, 1, executed)
	assert.Equal(t, 2, state.ToolCallCount())

	var results []Event
	for _, e := range sink.Events {
		if e.Type == EventToolCallResult {
			results = append(results, e)
		}
	}
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Content, "missing required parameters: query")
	assert.Equal(t, "result for go", results[1].Content)

	require.Len(t, client.requests, 3)
	assert.NotEmpty(t, client.requests[1].Tools)
}

func TestRunFinishesInFlightToolAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	canceledMidCall := false
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"lookup", "looks things up",
		func(toolCtx context.Context, in lookupInput) (string, error) {
			// Simulates the client dropping while the tool is running.
			cancel()
			canceledMidCall = toolCtx.Err() != nil
			return "finished", nil
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "call_1", "lookup", `{"query":"go"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("done")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(ctx, state, sink))
	assert.False(t, canceledMidCall)

	var result *Event
	for i := range sink.Events {
		if sink.Events[i].Type == EventToolCallResult {
			result = &sink.Events[i]
		}
	}
	require.NotNil(t, result)
	assert.Equal(t, "finished", result.Content)
}

func TestRunInjectsGroupInstruction(t *testing.T) {
	tb := agent.NewToolbox()
	tb.AddGroup("shopping_browsing", "You are browsing the store.")
	tb.AddGroup("purchase_management", "You are managing a purchase.")
	mk := func(name, group string) {
		require.NoError(t, tb.RegisterTool(group, agent.MustNewGenericTool(
			name, "a tool",
			func(ctx context.Context, in lookupInput) (string, error) { return "ok", nil })))
	}
	mk("search_products", "shopping_browsing")
	mk("add_to_cart", "shopping_browsing")
	mk("checkout", "purchase_management")

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "c1", "search_products", `{"query":"mug"}`)}},
		{chunks: []*aisdk.StreamChunk{callChunk(0, "c2", "add_to_cart", `{"query":"mug-1"}`)}},
		{chunks: []*aisdk.StreamChunk{callChunk(0, "c3", "checkout", `{"query":"now"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("ordered")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("base prompt", userTurn("buy a mug"))

	require.NoError(t, o.Run(context.Background(), state, sink))

	var systems []string
	for _, m := range state.Messages() {
		if m.Role == "system" {
			systems = append(systems, m.Content)
		}
	}
	// Base prompt, browsing persona once for the two browsing calls, then
	// the purchase persona.
	assert.Equal(t, []string{
		"base prompt",
		"You are browsing the store.",
		"You are managing a purchase.",
	}, systems)
	assert.Equal(t, "purchase_management", state.ActiveGroup())
}

func TestRunStreamsToolProgress(t *testing.T) {
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("shopping_browsing", agent.MustNewGenericStreamingTool(
		"search_products", "searches",
		func(ctx context.Context, in lookupInput, progress agent.ProgressFunc) (string, error) {
			progress("searching catalog")
			progress("ranking 3 hits")
			return "3 products", nil
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "c1", "search_products", `{"query":"mug"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("found them")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("mug"))

	require.NoError(t, o.Run(context.Background(), state, sink))

	types := make([]EventType, 0, len(sink.Events))
	for _, e := range sink.Events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{
		EventToolCallRequest,
		EventToolProgress,
		EventToolProgress,
		EventToolCallResult,
		EventTextDelta,
	}, types)
	assert.Equal(t, "searching catalog", sink.Events[1].Content)
	assert.Equal(t, "search_products", sink.Events[1].Name)
	assert.Equal(t, "c1", sink.Events[1].ID)
}

func TestRunRecoversToolPanic(t *testing.T) {
	tb := agent.NewToolbox()
	require.NoError(t, tb.RegisterTool("research", agent.MustNewGenericTool(
		"boom", "panics",
		func(ctx context.Context, in lookupInput) (string, error) {
			panic("nil map write")
		})))

	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{callChunk(0, "c1", "boom", `{"query":"x"}`)}},
		{chunks: []*aisdk.StreamChunk{textChunk("sorry")}},
	}}
	o := newOrchestrator(t, client, tb, 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("go"))

	require.NoError(t, o.Run(context.Background(), state, sink))
	assert.True(t, state.HadFailure())
	assert.Equal(t, "sorry", sink.Text())
}

func TestRunCompletionFailureEmitsErrorEvent(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{textChunk("partial")}, err: llmclient.ErrTruncatedStream},
	}}
	o := newOrchestrator(t, client, agent.NewToolbox(), 10)
	sink := &CollectorSink{}
	state := NewConversationState("", userTurn("hi"))

	err := o.Run(context.Background(), state, sink)
	require.Error(t, err)

	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.NotEmpty(t, errs[0])
	// The partial text was still forwarded before the failure.
	assert.Equal(t, "partial", sink.Text())
}

func TestRunSendsReproducibilityKnobs(t *testing.T) {
	client := &scriptedClient{turns: []scriptedTurn{
		{chunks: []*aisdk.StreamChunk{textChunk("hi")}},
	}}
	o := newOrchestrator(t, client, agent.NewToolbox(), 10)
	state := NewConversationState("", userTurn("hi"))

	require.NoError(t, o.Run(context.Background(), state, &CollectorSink{}))

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	require.NotNil(t, req.Temperature)
	assert.Equal(t, float64(0), *req.Temperature)
	require.NotNil(t, req.Seed)
	assert.Equal(t, 42, *req.Seed)
}

func TestCallSignature(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{name: "key order ignored", a: `{"a":1,"b":"x"}`, b: `{"b":"x","a":1}`, equal: true},
		{name: "whitespace ignored", a: `{"a": 1}`, b: `{"a":1}`, equal: true},
		{name: "different values", a: `{"a":1}`, b: `{"a":2}`, equal: false},
		{name: "nested key order ignored", a: `{"o":{"x":1,"y":2}}`, b: `{"o":{"y":2,"x":1}}`, equal: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sa := CallSignature("tool", json.RawMessage(tt.a))
			sb := CallSignature("tool", json.RawMessage(tt.b))
			if tt.equal {
				assert.Equal(t, sa, sb)
			} else {
				assert.NotEqual(t, sa, sb)
			}
		})
	}

	// Different tool names never collide.
	assert.NotEqual(t,
		CallSignature("a", json.RawMessage(`{}`)),
		CallSignature("b", json.RawMessage(`{}`)))

	// Unparseable arguments fall back to raw text.
	assert.Equal(t,
		CallSignature("a", json.RawMessage(`{broken`)),
		CallSignature("a", json.RawMessage(`{broken`)))
}
