package tool_scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/launchpad-agents/launchpad/src/agent"
)

// Tool name constant
const Name = "scrape"

const description = `Scrape a URL and return the readable content of the page.

Use format "text" for the plain text of the page (default) or "markdown" to preserve headings, lists and links. Scripts and styles are stripped either way. The response is capped at 5MB.`

// ScrapeInput represents the parameters for scrape
type ScrapeInput struct {
	URL    string `json:"url" required:"true" description:"The URL to scrape"`
	Format string `json:"format,omitempty" description:"Output format: text or markdown (default text)"`
}

const maxBodySize = 5 * 1024 * 1024

var spaceRun = regexp.MustCompile(`\s+`)

// Tool returns the scrape tool.
func Tool() (agent.Tool, error) {
	client := &http.Client{
		Timeout: 60 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
	handler := func(ctx context.Context, input ScrapeInput) (string, error) {
		return scrape(ctx, client, input)
	}
	return agent.NewGenericTool(Name, description, handler)
}

func scrape(ctx context.Context, client *http.Client, input ScrapeInput) (string, error) {
	format := strings.ToLower(input.Format)
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "markdown" {
		return "", fmt.Errorf("format must be text or markdown")
	}
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return "", fmt.Errorf("URL must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to scrape %s: %w", input.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape of %s returned status %d", input.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if format == "markdown" {
		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(string(body))
		if err != nil {
			return "", fmt.Errorf("failed to convert page to markdown: %w", err)
		}
		return markdown, nil
	}
	return extractText(string(body))
}

// extractText strips scripts and styles and collapses whitespace, leaving
// the page's visible text.
func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " ")), nil
}
