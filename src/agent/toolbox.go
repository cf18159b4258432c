package agent

import (
	"context"
	"fmt"

	"github.com/launchpad-agents/launchpad/src/aisdk"
)

// ToolExecutor is a function type for tool execution
type ToolExecutor func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)

// ToolMiddleware is a function that wraps a ToolExecutor to add functionality.
type ToolMiddleware func(next ToolExecutor) ToolExecutor

// Group is a named subset of tools sharing a persona instruction. When the
// conversation loop is about to run a tool from a group other than the active
// one, the group's instruction is injected as a system message.
type Group struct {
	Name        string
	Instruction string
}

// Toolbox handles tool/function calling functionality. Tools are registered
// into named groups; iteration preserves registration order so the schema
// list sent to the model is stable.
type Toolbox struct {
	tools      map[string]Tool
	groupOf    map[string]*Group
	groups     map[string]*Group
	order      []string
	middleware []ToolMiddleware
}

// NewToolbox creates a new tool registry.
func NewToolbox() *Toolbox {
	return &Toolbox{
		tools:   make(map[string]Tool),
		groupOf: make(map[string]*Group),
		groups:  make(map[string]*Group),
	}
}

// AddGroup declares a tool group. Re-declaring a group updates its
// instruction.
func (tb *Toolbox) AddGroup(name, instruction string) *Group {
	if g, ok := tb.groups[name]; ok {
		g.Instruction = instruction
		return g
	}
	g := &Group{Name: name, Instruction: instruction}
	tb.groups[name] = g
	return g
}

// RegisterTool registers a tool into a group. The group is created on demand
// with an empty instruction.
func (tb *Toolbox) RegisterTool(group string, tool Tool) error {
	if tool.GetName() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := tb.tools[tool.GetName()]; exists {
		return fmt.Errorf("tool %s is already registered", tool.GetName())
	}

	g, ok := tb.groups[group]
	if !ok {
		g = tb.AddGroup(group, "")
	}

	tb.tools[tool.GetName()] = tool
	tb.groupOf[tool.GetName()] = g
	tb.order = append(tb.order, tool.GetName())
	return nil
}

// RegisterMiddleware registers middleware applied to all tool executions.
// Middleware is applied in the order it's registered (first registered =
// outermost layer).
func (tb *Toolbox) RegisterMiddleware(middleware ToolMiddleware) {
	tb.middleware = append(tb.middleware, middleware)
}

// Tools returns the registered tools in registration order.
func (tb *Toolbox) Tools() []Tool {
	out := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		out = append(out, tb.tools[name])
	}
	return out
}

// ChatTools returns the schema list advertised to the model.
func (tb *Toolbox) ChatTools() []*aisdk.ChatTool {
	return ToChatTools(tb.Tools())
}

// Names returns the registered tool names in registration order.
func (tb *Toolbox) Names() []string {
	out := make([]string, len(tb.order))
	copy(out, tb.order)
	return out
}

// GetTool returns a specific tool by name.
func (tb *Toolbox) GetTool(name string) (Tool, bool) {
	tool, exists := tb.tools[name]
	return tool, exists
}

// HasTool checks if a tool is available.
func (tb *Toolbox) HasTool(name string) bool {
	_, exists := tb.tools[name]
	return exists
}

// GroupOf returns the group a tool was registered into.
func (tb *Toolbox) GroupOf(name string) (*Group, bool) {
	g, exists := tb.groupOf[name]
	return g, exists
}

// ExecuteTool executes a tool call with middleware applied.
func (tb *Toolbox) ExecuteTool(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	tool, exists := tb.tools[call.Function.Name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", call.Function.Name)
	}

	final := ToolExecutor(tool.Execute)
	for i := len(tb.middleware) - 1; i >= 0; i-- {
		final = tb.middleware[i](final)
	}
	return final(ctx, call)
}

// ExecuteToolStream is like ExecuteTool but forwards progress from tools
// that support it. Tools without streaming support run normally and report
// no progress.
func (tb *Toolbox) ExecuteToolStream(ctx context.Context, call *aisdk.ToolCall, progress ProgressFunc) (*aisdk.ToolResponse, error) {
	tool, exists := tb.tools[call.Function.Name]
	if !exists {
		return nil, fmt.Errorf("tool %s not found", call.Function.Name)
	}

	final := ToolExecutor(func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
		if st, ok := tool.(StreamingTool); ok {
			return st.ExecuteStream(ctx, call, progress)
		}
		return tool.Execute(ctx, call)
	})
	for i := len(tb.middleware) - 1; i >= 0; i-- {
		final = tb.middleware[i](final)
	}
	return final(ctx, call)
}

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger interface {
	Info(msg string, args ...interface{})
}) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
			logger.Info("executing tool", "tool", call.Function.Name, "params", string(call.Function.Arguments))
			result, err := next(ctx, call)
			if err != nil {
				logger.Info("tool execution failed", "error", err)
			}
			return result, err
		}
	}
}
