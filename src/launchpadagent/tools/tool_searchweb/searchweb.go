package tool_searchweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/launchpad-agents/launchpad/src/agent"
)

// Tool name constant
const Name = "search_web"

const description = `Search the web for the given query and return up to 10 results, each with a URL, title and short description. Use this to find pages worth scraping for detail.`

// SearchWebInput represents the parameters for search_web
type SearchWebInput struct {
	Query string `json:"query" required:"true" description:"The query to search the web for"`
	Lang  string `json:"lang,omitempty" description:"The language code of the query (default en)"`
}

// SearchResult is one result row.
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Config points the tool at a SearxNG instance.
type Config struct {
	// BaseURL of the SearxNG instance, e.g. http://searx.internal:8080.
	BaseURL string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

type searxResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Tool returns the search_web tool backed by the configured search instance.
func Tool(cfg Config) (agent.Tool, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("search_web requires a search instance base URL")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	handler := func(ctx context.Context, input SearchWebInput) ([]SearchResult, error) {
		lang := input.Lang
		if lang == "" {
			lang = "en"
		}
		q := url.Values{
			"q":        {input.Query},
			"format":   {"json"},
			"language": {lang},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/search?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("search request failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
		}

		var parsed searxResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to decode search response: %w", err)
		}

		results := make([]SearchResult, 0, 10)
		for _, r := range parsed.Results {
			results = append(results, SearchResult{
				URL:         r.URL,
				Title:       r.Title,
				Description: r.Content,
			})
			if len(results) == 10 {
				break
			}
		}
		return results, nil
	}

	return agent.NewGenericTool(Name, description, handler)
}
