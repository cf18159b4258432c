// Package mcptools connects to Model Context Protocol servers over stdio and
// exposes their tools through the agent tool interface.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/swaggest/jsonschema-go"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/aisdk"
)

// Client wraps one MCP server session.
type Client struct {
	session *mcp.ClientSession
	timeout time.Duration
}

// Option configures the MCP client.
type Option func(*clientConfig)

type clientConfig struct {
	timeout time.Duration
	env     map[string]string
}

// WithTimeout sets the timeout for tool execution.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithEnv adds environment variables to the server subprocess.
func WithEnv(env map[string]string) Option {
	return func(c *clientConfig) { c.env = env }
}

// NewStdioClient starts the server subprocess and connects to it over stdio.
func NewStdioClient(ctx context.Context, command string, args []string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mcpClient := mcp.NewClient(&mcp.Implementation{
		Name:    "launchpad",
		Version: "0.1.0",
	}, nil)

	cmd := exec.Command(command, args...)
	if len(cfg.env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	transport := &mcp.CommandTransport{
		Command: cmd,
	}

	session, err := mcpClient.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP server: %w", err)
	}

	return &Client{
		session: session,
		timeout: cfg.timeout,
	}, nil
}

// Tools lists the server's tools, each wrapped as an agent tool.
func (c *Client) Tools(ctx context.Context) ([]agent.Tool, error) {
	result, err := c.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("listing MCP tools: %w", err)
	}

	tools := make([]agent.Tool, 0, len(result.Tools))
	for i := range result.Tools {
		tools = append(tools, &mcpTool{
			client:  c,
			mcpTool: result.Tools[i],
		})
	}
	return tools, nil
}

// Close closes the MCP session and stops the subprocess.
func (c *Client) Close() error {
	return c.session.Close()
}

// mcpTool adapts one MCP server tool to the agent tool interface.
type mcpTool struct {
	client  *Client
	mcpTool *mcp.Tool
}

func (t *mcpTool) GetType() string { return "function" }

func (t *mcpTool) GetName() string { return t.mcpTool.Name }

func (t *mcpTool) GetDescription() string { return t.mcpTool.Description }

func (t *mcpTool) GetParameters() *jsonschema.Schema {
	return convertSchema(t.mcpTool.InputSchema)
}

func (t *mcpTool) Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.client.timeout)
	defer cancel()

	var arguments map[string]any
	args := call.Function.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, &arguments); err != nil {
		return &aisdk.ToolResponse{
			Content:         []byte(fmt.Sprintf("invalid arguments for %s: %v", t.mcpTool.Name, err)),
			IsError:         true,
			IsArgumentError: true,
		}, nil
	}

	result, err := t.client.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      t.mcpTool.Name,
		Arguments: arguments,
	})
	if err != nil {
		return nil, fmt.Errorf("calling MCP tool %s: %w", t.mcpTool.Name, err)
	}

	return &aisdk.ToolResponse{
		Content: []byte(flattenContent(result.Content)),
		IsError: result.IsError,
	}, nil
}

// convertSchema translates an MCP input schema into the schema type the chat
// API expects. Unconvertible schemas degrade to a bare object.
func convertSchema(input any) *jsonschema.Schema {
	fallback := &jsonschema.Schema{}
	fallback.AddType(jsonschema.Object)
	if input == nil {
		return fallback
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return fallback
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return fallback
	}
	return &schema
}

// flattenContent joins MCP content items into one text blob. Non-text items
// are described rather than inlined.
func flattenContent(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		switch item := c.(type) {
		case *mcp.TextContent:
			parts = append(parts, item.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[Image: %s, %d bytes]", item.MIMEType, len(item.Data)))
		case *mcp.EmbeddedResource:
			if item.Resource != nil {
				parts = append(parts, fmt.Sprintf("[Resource: %s]", item.Resource.URI))
			} else {
				parts = append(parts, "[Resource: embedded]")
			}
		}
	}
	return strings.Join(parts, "\n")
}
