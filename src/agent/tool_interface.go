// Package agent provides the tool abstraction and the grouped tool registry
// used by the conversation loop.
package agent

import (
	"context"

	"github.com/launchpad-agents/launchpad/src/aisdk"
	jsonschema "github.com/swaggest/jsonschema-go"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// GetType returns the tool type (always "function" for now)
	GetType() string

	// GetName returns the tool's name
	GetName() string

	// GetDescription returns the tool's description
	GetDescription() string

	// GetParameters returns the JSON schema for the tool's parameters
	GetParameters() *jsonschema.Schema

	// Execute runs the tool with the given parameters
	Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)
}

// ProgressFunc receives an intermediate value produced while a tool is still
// running. Values must be forwarded in emission order and without buffering.
type ProgressFunc func(content string)

// StreamingTool is implemented by tools whose execution is a sequence of
// sub-steps. Each sub-step reports through progress; the returned response is
// the final consolidated result.
type StreamingTool interface {
	Tool
	ExecuteStream(ctx context.Context, call *aisdk.ToolCall, progress ProgressFunc) (*aisdk.ToolResponse, error)
}

// ToChatTool converts a Tool to the ChatTool shape sent in API requests.
func ToChatTool(tool Tool) *aisdk.ChatTool {
	return &aisdk.ChatTool{
		Type: tool.GetType(),
		Function: aisdk.ChatToolFunction{
			Name:        tool.GetName(),
			Description: tool.GetDescription(),
			Parameters:  tool.GetParameters(),
		},
	}
}

// ToChatTools converts a slice of Tools to ChatTools.
func ToChatTools(tools []Tool) []*aisdk.ChatTool {
	chatTools := make([]*aisdk.ChatTool, len(tools))
	for i, tool := range tools {
		chatTools[i] = ToChatTool(tool)
	}
	return chatTools
}
