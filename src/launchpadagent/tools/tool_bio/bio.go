package tool_bio

import (
	"context"
	"fmt"

	"github.com/launchpad-agents/launchpad/src/agent"
	"github.com/launchpad-agents/launchpad/src/storage"
)

// Tool name constants
const (
	Name    = "bio"
	GetName = "get_bio"
)

const bioDescription = `Remember or forget a fact about the user. Use action "write" to save a new fact and "delete" to remove a fact you previously saved (content must match the saved fact).`

const getBioDescription = `Look up remembered facts about the user relevant to a query.`

// BioInput represents the parameters for bio
type BioInput struct {
	Action  string `json:"action" required:"true" description:"Either write or delete"`
	Content string `json:"content" required:"true" description:"The fact to save or remove"`
}

// GetBioInput represents the parameters for get_bio
type GetBioInput struct {
	Query string `json:"query" required:"true" description:"What to look for in the remembered facts"`
}

// Tool returns the bio tool over the given store.
func Tool(store *storage.BioStore) (agent.Tool, error) {
	handler := func(ctx context.Context, input BioInput) (string, error) {
		switch input.Action {
		case "write":
			entry, err := store.Add(ctx, input.Content)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("saved: %s", entry.Content), nil
		case "delete":
			entries, err := store.List(ctx)
			if err != nil {
				return "", err
			}
			for _, e := range entries {
				if e.Content == input.Content {
					if err := store.Delete(ctx, e.ID); err != nil {
						return "", err
					}
					return fmt.Sprintf("deleted: %s", e.Content), nil
				}
			}
			return "", fmt.Errorf("no saved fact matches %q", input.Content)
		default:
			return "", fmt.Errorf("action must be write or delete, got %q", input.Action)
		}
	}
	return agent.NewGenericTool(Name, bioDescription, handler)
}

// GetTool returns the get_bio tool over the given store.
func GetTool(store *storage.BioStore) (agent.Tool, error) {
	handler := func(ctx context.Context, input GetBioInput) ([]string, error) {
		entries, err := store.Search(ctx, input.Query, 20)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.Content)
		}
		return out, nil
	}
	return agent.NewGenericTool(GetName, getBioDescription, handler)
}
