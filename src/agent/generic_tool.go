package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/launchpad-agents/launchpad/src/aisdk"
	"github.com/swaggest/jsonschema-go"
)

// GenericTool provides a type-safe tool implementation. The parameter schema
// is reflected from TInput, and arguments are validated against the struct's
// required fields before the handler runs.
type GenericTool[TInput any, TOutput any] struct {
	name        string
	description string
	handler     func(ctx context.Context, input TInput) (TOutput, error)
	schema      *jsonschema.Schema
}

// NewGenericTool creates a new generic tool with automatic schema generation.
func NewGenericTool[TInput any, TOutput any](
	name, description string,
	handler func(ctx context.Context, input TInput) (TOutput, error),
) (*GenericTool[TInput, TOutput], error) {
	var input TInput
	reflector := jsonschema.Reflector{}
	schema, err := reflector.Reflect(input)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", name, err)
	}

	return &GenericTool[TInput, TOutput]{
		name:        name,
		description: description,
		handler:     handler,
		schema:      &schema,
	}, nil
}

// MustNewGenericTool is like NewGenericTool but panics on schema errors.
// Intended for package-level tool constructors with static input types.
func MustNewGenericTool[TInput any, TOutput any](
	name, description string,
	handler func(ctx context.Context, input TInput) (TOutput, error),
) *GenericTool[TInput, TOutput] {
	tool, err := NewGenericTool(name, description, handler)
	if err != nil {
		panic(err)
	}
	return tool
}

func (t *GenericTool[TInput, TOutput]) GetType() string { return "function" }

func (t *GenericTool[TInput, TOutput]) GetName() string { return t.name }

func (t *GenericTool[TInput, TOutput]) GetDescription() string { return t.description }

func (t *GenericTool[TInput, TOutput]) GetParameters() *jsonschema.Schema { return t.schema }

// Execute runs the tool. Argument parse failures and handler errors are both
// folded into an IsError response so the model can see what went wrong;
// IsArgumentError separates the former, where the handler never ran.
func (t *GenericTool[TInput, TOutput]) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
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

	output, err := t.handler(ctx, input)
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

func marshalOutput(output any) ([]byte, error) {
	switch v := any(output).(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(output)
	}
}

// validateRequired checks that every field tagged `required:"true"` on the
// input struct was actually present in the raw arguments. Unmarshal alone
// would silently zero them.
func validateRequired(input any, raw json.RawMessage) error {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		// Non-object arguments are left to the handler.
		return nil
	}

	v := reflect.ValueOf(input)
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return nil
	}

	var missing []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		jsonName := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			jsonName = strings.Split(tag, ",")[0]
		}
		if _, ok := present[jsonName]; !ok {
			missing = append(missing, jsonName)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}
