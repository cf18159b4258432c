package launchpadagent

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchpad-agents/launchpad/src/storage"
	"github.com/spf13/afero"
)

// DefaultSystemPrompt is used when no prompt text or prompt file is
// configured.
const DefaultSystemPrompt = `You are Launchpad, a personal assistant agent.

You help the user by answering questions, researching topics on the web, and carrying out tasks in the connected online store on their behalf. Use the tools available to you when they help; answer directly when they do not.

Rules:
- Only call a tool when the user's request needs it.
- Report tool results truthfully. If a tool fails, tell the user what failed instead of inventing an answer.
- Before placing or canceling an order, state clearly what you are about to do.
- Keep answers short and concrete.`

// PromptSource resolves the system prompt for each request. Reading happens
// per request so edits to the prompt file apply without a restart, and the
// bio section always reflects the current store contents.
type PromptSource struct {
	fs     afero.Fs
	path   string
	static string
	bio    *storage.BioStore
}

// PromptOption configures a PromptSource.
type PromptOption func(*PromptSource)

// WithStaticPrompt uses the given text instead of a prompt file.
func WithStaticPrompt(text string) PromptOption {
	return func(p *PromptSource) { p.static = text }
}

// WithPromptFile reads the prompt from a file on each request.
func WithPromptFile(fs afero.Fs, path string) PromptOption {
	return func(p *PromptSource) {
		p.fs = fs
		p.path = path
	}
}

// WithBio appends remembered user facts to every prompt.
func WithBio(store *storage.BioStore) PromptOption {
	return func(p *PromptSource) { p.bio = store }
}

// NewPromptSource builds a prompt source. With no options it serves the
// default prompt.
func NewPromptSource(opts ...PromptOption) *PromptSource {
	p := &PromptSource{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SystemPrompt resolves the prompt text for one request.
func (p *PromptSource) SystemPrompt(ctx context.Context) (string, error) {
	prompt := DefaultSystemPrompt
	switch {
	case p.static != "":
		prompt = p.static
	case p.path != "":
		data, err := afero.ReadFile(p.fs, p.path)
		if err != nil {
			return "", fmt.Errorf("failed to read system prompt file %s: %w", p.path, err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	if p.bio != nil {
		entries, err := p.bio.List(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load user bio: %w", err)
		}
		if len(entries) > 0 {
			var sb strings.Builder
			sb.WriteString(prompt)
			sb.WriteString("\n\nKnown facts about the user:\n")
			for _, e := range entries {
				sb.WriteString("- ")
				sb.WriteString(e.Content)
				sb.WriteString("\n")
			}
			prompt = strings.TrimRight(sb.String(), "\n")
		}
	}
	return prompt, nil
}
