package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/launchpad-agents/launchpad/src/aisdk"
	"github.com/swaggest/jsonschema-go"
)

// GenericStreamingTool is a GenericTool whose handler can report progress
// while it runs. Progress lines are forwarded to the caller as they are
// produced; the return value becomes the final tool result.
type GenericStreamingTool[TInput any, TOutput any] struct {
	name        string
	description string
	handler     func(ctx context.Context, input TInput, progress ProgressFunc) (TOutput, error)
	schema      *jsonschema.Schema
}

var _ StreamingTool = (*GenericStreamingTool[struct{}, string])(nil)

// NewGenericStreamingTool creates a streaming tool with automatic schema
// generation.
func NewGenericStreamingTool[TInput any, TOutput any](
	name, description string,
	handler func(ctx context.Context, input TInput, progress ProgressFunc) (TOutput, error),
) (*GenericStreamingTool[TInput, TOutput], error) {
	var input TInput
	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", name, err)
	}

	return &GenericStreamingTool[TInput, TOutput]{
		name:        name,
		description: description,
		handler:     handler,
		schema:      &schema,
	}, nil
}

// MustNewGenericStreamingTool is like NewGenericStreamingTool but panics on
// schema errors.
func MustNewGenericStreamingTool[TInput any, TOutput any](
	name, description string,
	handler func(ctx context.Context, input TInput, progress ProgressFunc) (TOutput, error),
) *GenericStreamingTool[TInput, TOutput] {
	tool, err := NewGenericStreamingTool(name, description, handler)
	if err != nil {
		panic(err)
	}
	return tool
}

func (t *GenericStreamingTool[TInput, TOutput]) GetType() string { return "function" }

func (t *GenericStreamingTool[TInput, TOutput]) GetName() string { return t.name }

func (t *GenericStreamingTool[TInput, TOutput]) GetDescription() string { return t.description }

func (t *GenericStreamingTool[TInput, TOutput]) GetParameters() *jsonschema.Schema { return t.schema }

// Execute runs the tool with progress discarded.
func (t *GenericStreamingTool[TInput, TOutput]) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	return t.ExecuteStream(ctx, call, func(string) {})
}

// ExecuteStream runs the tool, forwarding progress lines to the callback.
func (t *GenericStreamingTool[TInput, TOutput]) ExecuteStream(ctx context.Context, call *aisdk.ToolCall, progress ProgressFunc) (*aisdk.ToolResponse, error) {
	var input TInput
	args := call.Function.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return &aisdk.ToolResponse{
			Content:         []byte(fmt.Sprintf("invalid arguments for %s: %v", t.name, err)),
			IsError:         true,
			IsArgumentError: true,
		}, nil
	}

	if err := validateRequired(input, args); err != nil {
		return &aisdk.ToolResponse{
			Content:         []byte(err.Error()),
			IsError:         true,
			IsArgumentError: true,
		}, nil
	}

	if progress == nil {
		progress = func(string) {}
	}
	output, err := t.handler(ctx, input, progress)
	if err != nil {
		return &aisdk.ToolResponse{
			Content: []byte(err.Error()),
			IsError: true,
		}, nil
	}

	content, err := marshalOutput(output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output of %s: %w", t.name, err)
	}
	return &aisdk.ToolResponse{Content: content}, nil
}
