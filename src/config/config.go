// Package config defines the agent's settings: server address, LLM endpoint,
// loop bounds and per-tool credentials. Settings come from an optional JSON
// file merged over defaults; the CLI layer maps flags and environment
// variables onto the same struct.
package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// Settings is the complete agent configuration.
type Settings struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"required,min=1,max=65535"`

	LLM   LLMSettings   `json:"llm"`
	Agent AgentSettings `json:"agent"`
	Tools ToolSettings  `json:"tools"`

	// MCPServers lists external tool servers to attach over stdio.
	MCPServers []MCPServerSettings `json:"mcp_servers,omitempty"`
}

// LLMSettings configures the chat completion endpoint.
type LLMSettings struct {
	BaseURL string `json:"base_url" validate:"required,url"`
	APIKey  string `json:"api_key,omitempty"`
	ModelID string `json:"model_id" validate:"required"`
}

// AgentSettings configures the conversation loop.
type AgentSettings struct {
	// SystemPrompt is used verbatim when set; otherwise SystemPromptPath is
	// read per request.
	SystemPrompt     string `json:"system_prompt,omitempty"`
	SystemPromptPath string `json:"system_prompt_path,omitempty"`

	MaxToolCalls int     `json:"max_tool_calls" validate:"min=1"`
	Temperature  float64 `json:"temperature" validate:"gte=0,lte=2"`
	Seed         int     `json:"seed"`
}

// ToolSettings carries per-tool endpoints and credentials. A tool whose
// settings are empty is not registered.
type ToolSettings struct {
	// Groups restricts which tool groups are registered. Empty means all
	// groups whose settings are present.
	Groups []string `json:"groups,omitempty"`

	SearxURL string `json:"searx_url,omitempty" validate:"omitempty,url"`

	LeakAPIURL   string `json:"leak_api_url,omitempty" validate:"omitempty,url"`
	LeakAPIToken string `json:"leak_api_token,omitempty"`

	ShopBaseURL  string `json:"shop_base_url,omitempty" validate:"omitempty,url"`
	ShopEmail    string `json:"shop_email,omitempty"`
	ShopPassword string `json:"shop_password,omitempty"`

	BioDatabasePath string `json:"bio_database_path,omitempty"`
}

// MCPServerSettings describes one stdio MCP server.
type MCPServerSettings struct {
	Name    string            `json:"name" validate:"required"`
	Command string            `json:"command" validate:"required"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Default returns the baseline settings.
func Default() *Settings {
	return &Settings{
		Host: "127.0.0.1",
		Port: 8000,
		LLM: LLMSettings{
			BaseURL: "https://api.openai.com/v1",
			ModelID: "gpt-4o-mini",
		},
		Agent: AgentSettings{
			MaxToolCalls: 10,
			Temperature:  0,
			Seed:         42,
		},
	}
}

// Load reads a JSON settings file and merges it over the defaults. A missing
// path returns plain defaults.
func Load(fs afero.Fs, path string) (*Settings, error) {
	settings := Default()
	if path == "" {
		return settings, nil
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}
	if !exists {
		return settings, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks the settings for coherence.
func (s *Settings) Validate() error {
	v := validator.New()
	if err := v.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("invalid setting %s: failed %q check (value %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	if s.Agent.SystemPrompt != "" && s.Agent.SystemPromptPath != "" {
		return fmt.Errorf("system_prompt and system_prompt_path are mutually exclusive")
	}
	return nil
}

// Addr returns the listen address.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GroupEnabled reports whether a tool group should be registered.
func (s *ToolSettings) GroupEnabled(name string) bool {
	if len(s.Groups) == 0 {
		return true
	}
	for _, g := range s.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// CleanEnv normalizes an environment value: trims whitespace and strips one
// matching pair of surrounding quotes. Deploy tooling tends to write
// `KEY="value"` into env files and the quotes end up in the value.
func CleanEnv(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
