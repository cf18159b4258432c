package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/aisdk"
	"github.com/launchpad-agents/launchpad/src/llmclient"
)

const DefaultMaxToolCalls = 10

// Config configures an Orchestrator.
type Config struct {
	Client  aisdk.ModelClient
	Toolbox *agent.Toolbox
	Logger  *slog.Logger

	// MaxToolCalls bounds executed tool calls per conversation. Once reached,
	// completions are requested without tools. Defaults to DefaultMaxToolCalls.
	MaxToolCalls int

	// Temperature and Seed are sent on every completion so repeated runs of
	// the same conversation stay reproducible.
	Temperature float64
	Seed        int
}

// Orchestrator runs the conversation loop for a single request.
type Orchestrator struct {
	client       aisdk.ModelClient
	toolbox      *agent.Toolbox
	logger       *slog.Logger
	maxToolCalls int
	temperature  float64
	seed         int
}

// New creates an orchestrator from config.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Client == nil {
		return nil, errors.New("model client is required")
	}
	if cfg.Toolbox == nil {
		return nil, errors.New("toolbox is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxToolCalls <= 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}
	return &Orchestrator{
		client:       cfg.Client,
		toolbox:      cfg.Toolbox,
		logger:       cfg.Logger.With("component", "executor"),
		maxToolCalls: cfg.MaxToolCalls,
		temperature:  cfg.Temperature,
		seed:         cfg.Seed,
	}, nil
}

// Run drives the conversation until the model answers in plain text. Events
// are sent to the sink in the order they occur. On a completion transport
// failure Run sends a single error event and returns the error; the caller
// still owns stream termination.
func (o *Orchestrator) Run(ctx context.Context, state *ConversationState, sink EventSink) error {
	for {
		withTools := o.toolsAllowed(state)

		msg, err := o.requestTurn(ctx, state, sink, withTools)
		if err != nil {
			o.logger.Error("completion request failed", "error", err)
			if sendErr := sink.Send(ErrorEvent(llmclient.UserMessage(err))); sendErr != nil {
				return errors.Join(err, sendErr)
			}
			return err
		}
		state.Append(msg)

		if len(msg.ToolCalls) == 0 {
			return nil
		}
		if !withTools {
			// The model emitted tool calls even though none were offered.
			// Executing them would defeat the bound, so end the turn.
			o.logger.Warn("model requested tools after tools were withdrawn", "count", len(msg.ToolCalls))
			return nil
		}

		if err := o.executeToolCalls(ctx, state, sink, msg.ToolCalls); err != nil {
			return err
		}
	}
}

// toolsAllowed reports whether the next completion may offer tools. Tools
// are withdrawn after any tool failure and once the call ceiling is hit,
// which forces the model to produce a text answer.
func (o *Orchestrator) toolsAllowed(state *ConversationState) bool {
	return !state.HadFailure() && state.ToolCallCount() < o.maxToolCalls
}

// requestTurn issues one streamed completion, forwarding text deltas to the
// sink as they arrive while reassembling the full assistant message.
func (o *Orchestrator) requestTurn(ctx context.Context, state *ConversationState, sink EventSink, withTools bool) (*aisdk.Message, error) {
	req := &aisdk.ChatCompletionRequest{
		Messages:    state.Messages(),
		Temperature: &o.temperature,
		Seed:        &o.seed,
	}
	if withTools {
		req.Tools = o.toolbox.ChatTools()
		if len(req.Tools) > 0 {
			req.ToolChoice = "auto"
		}
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	agg := aisdk.NewStreamAggregator()
	for {
		chunk, err := stream.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		agg.AddChunk(chunk)

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if err := sink.Send(TextDeltaEvent(chunk.Choices[0].Delta.Content)); err != nil {
				return nil, err
			}
		}
	}

	resp := agg.ToResponse()
	msg := resp.Choices[0].Message
	return &msg, nil
}

// executeToolCalls handles one batch of calls from a single assistant
// message, strictly in the order the model listed them. Every call produces
// a tool message in history so the follow-up completion stays valid; skipped
// calls (duplicates, or anything after a failure) produce no events.
func (o *Orchestrator) executeToolCalls(ctx context.Context, state *ConversationState, sink EventSink, calls []aisdk.ToolCall) error {
	// Tool execution is detached from request cancellation. A client
	// disconnect must not abort a call whose side effects already started;
	// the disconnect surfaces on the next completion request instead.
	execCtx := context.WithoutCancel(ctx)

	for i := range calls {
		call := &calls[i]
		name := call.Function.Name

		o.injectPersona(state, name)

		// Every call the model lists counts toward the ceiling, skipped or
		// not. Counting only executed calls would let a model that keeps
		// re-issuing the same unresolvable call loop without bound.
		state.CountToolCall()

		sig := CallSignature(name, call.Function.Arguments)
		if reason := o.skipReason(state, name, sig); reason != "" {
			state.Append(toolMessage(call, reason))
			continue
		}

		if err := sink.Send(ToolCallRequestEvent(call.ID, name, string(call.Function.Arguments))); err != nil {
			return err
		}

		content := o.runCall(execCtx, state, sink, call, sig)

		if err := sink.Send(ToolCallResultEvent(call.ID, content)); err != nil {
			return err
		}
		state.Append(toolMessage(call, content))
	}
	return nil
}

func toolMessage(call *aisdk.ToolCall, content string) *aisdk.Message {
	return &aisdk.Message{
		Role:       "tool",
		Content:    content,
		Name:       call.Function.Name,
		ToolCallID: call.ID,
	}
}

// skipReason reports why a call must not run, or "" when it should.
func (o *Orchestrator) skipReason(state *ConversationState, name, sig string) string {
	if state.HadFailure() {
		o.logger.Warn("skipping tool call after earlier failure", "tool", name)
		return fmt.Sprintf("skipped %s: a previous tool call in this conversation failed", name)
	}
	if state.AlreadyExecuted(sig) {
		o.logger.Info("suppressing duplicate tool call", "tool", name)
		return fmt.Sprintf("skipped %s: this call was already executed with the same arguments, use the earlier result", name)
	}
	return ""
}

// runCall executes a single tool call and returns the content to feed back
// to the model. Unknown tools and argument errors are reported as content
// rather than loop errors so the model can recover; only execution failures
// trip the sticky failure flag.
func (o *Orchestrator) runCall(ctx context.Context, state *ConversationState, sink EventSink, call *aisdk.ToolCall, sig string) string {
	name := call.Function.Name

	// The signature is marked even for calls that never reach a handler, so
	// a verbatim re-issue is answered from history instead of rerun.
	state.MarkExecuted(sig)

	if !o.toolbox.HasTool(name) {
		o.logger.Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("unknown tool: %s", name)
	}

	if len(call.Function.Arguments) > 0 && !json.Valid(call.Function.Arguments) {
		o.logger.Warn("tool call arguments are not valid JSON", "tool", name)
		return fmt.Sprintf("arguments for %s are not valid JSON", name)
	}

	progress := func(line string) {
		if err := sink.Send(ToolProgressEvent(call.ID, name, line)); err != nil {
			o.logger.Warn("failed to forward tool progress", "tool", name, "error", err)
		}
	}

	resp, err := o.safeExecute(ctx, call, progress)

	if err != nil {
		o.logger.Error("tool execution failed", "tool", name, "error", err)
		state.RecordFailure()
		return fmt.Sprintf("tool %s failed: %v", name, err)
	}
	if resp.IsError {
		if resp.IsArgumentError {
			// The model can retry with corrected arguments, so tools must
			// stay on offer for the next completion.
			o.logger.Warn("tool rejected its arguments", "tool", name, "error", string(resp.Content))
			return string(resp.Content)
		}
		o.logger.Error("tool reported an error", "tool", name, "error", string(resp.Content))
		state.RecordFailure()
		return fmt.Sprintf("tool %s failed: %s", name, resp.Content)
	}
	return string(resp.Content)
}

// injectPersona appends the tool group's instruction as a system message
// when control moves to a different group.
func (o *Orchestrator) injectPersona(state *ConversationState, toolName string) {
	group, ok := o.toolbox.GroupOf(toolName)
	if !ok || group.Instruction == "" || group.Name == state.ActiveGroup() {
		return
	}
	o.logger.Info("switching tool group", "from", state.ActiveGroup(), "to", group.Name)
	state.Append(&aisdk.Message{Role: "system", Content: group.Instruction})
	state.SetActiveGroup(group.Name)
}

// safeExecute runs a tool, converting panics into errors so one misbehaving
// tool cannot take down the request.
func (o *Orchestrator) safeExecute(ctx context.Context, call *aisdk.ToolCall, progress agent.ProgressFunc) (resp *aisdk.ToolResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", call.Function.Name, r)
		}
	}()
	return o.toolbox.ExecuteToolStream(ctx, call, progress)
}
