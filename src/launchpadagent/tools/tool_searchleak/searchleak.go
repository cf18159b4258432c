package tool_searchleak

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/launchpad-agents/launchpad/src/agent"
)

// Tool name constants
const (
	Name      = "search_leak"
	BatchName = "batch_search_leak"
)

const searchDescription = `Search breach databases for data associated with an email, username, phone number or name. Returns the raw report as JSON. Only use this for accounts the user owns or has authorized you to investigate.`

const batchDescription = `Run several breach database searches in one call. Takes a list of queries and returns one JSON report per query, in order.`

// SearchLeakInput represents the parameters for search_leak
type SearchLeakInput struct {
	Request string `json:"request" required:"true" description:"The email, username, phone number or name to search for"`
	Limit   int    `json:"limit,omitempty" description:"Maximum number of records per source (default 100)"`
	Lang    string `json:"lang,omitempty" description:"Report language code (default en)"`
}

// BatchSearchLeakInput represents the parameters for batch_search_leak
type BatchSearchLeakInput struct {
	Requests []string `json:"requests" required:"true" description:"The queries to search for"`
	Limit    int      `json:"limit,omitempty" description:"Maximum number of records per source (default 100)"`
	Lang     string   `json:"lang,omitempty" description:"Report language code (default en)"`
}

// Config points the tools at a breach-lookup API.
type Config struct {
	// APIURL of the lookup service.
	APIURL string
	// Token authenticates requests. The tools refuse to run without it.
	Token string
	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client
}

type apiRequest struct {
	Token   string `json:"token"`
	Request string `json:"request"`
	Limit   int    `json:"limit"`
	Lang    string `json:"lang"`
	Type    string `json:"type"`
}

// Tool returns the search_leak tool.
func Tool(cfg Config) (agent.Tool, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, input SearchLeakInput) (string, error) {
		return client.search(ctx, input.Request, input.Limit, input.Lang)
	}
	return agent.NewGenericTool(Name, searchDescription, handler)
}

// BatchTool returns the batch_search_leak tool.
func BatchTool(cfg Config) (agent.Tool, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, input BatchSearchLeakInput) (string, error) {
		if len(input.Requests) == 0 {
			return "", fmt.Errorf("requests cannot be empty")
		}
		reports := make([]json.RawMessage, 0, len(input.Requests))
		for _, request := range input.Requests {
			report, err := client.search(ctx, request, input.Limit, input.Lang)
			if err != nil {
				return "", fmt.Errorf("search for %q failed: %w", request, err)
			}
			reports = append(reports, json.RawMessage(report))
		}
		out, err := json.Marshal(reports)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return agent.NewGenericTool(BatchName, batchDescription, handler)
}

type leakClient struct {
	cfg    Config
	client *http.Client
}

func newClient(cfg Config) (*leakClient, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("breach lookup requires an API URL")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("breach lookup requires an API token")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &leakClient{cfg: cfg, client: client}, nil
}

func (c *leakClient) search(ctx context.Context, request string, limit int, lang string) (string, error) {
	if request == "" {
		return "", fmt.Errorf("no search request provided")
	}
	if limit <= 0 {
		limit = 100
	}
	if lang == "" {
		lang = "en"
	}

	payload, err := json.Marshal(apiRequest{
		Token:   c.cfg.Token,
		Request: request,
		Limit:   limit,
		Lang:    lang,
		Type:    "json",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read lookup response: %w", err)
	}
	if !json.Valid(body) {
		return "", fmt.Errorf("lookup returned a malformed report")
	}
	return string(body), nil
}
