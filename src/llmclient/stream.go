package llmclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/launchpad-agents/launchpad/src/aisdk"
)

// CreateChatCompletionStream sends a streamed chat completion request and
// returns a reader over its chunks. The stream does not go through the retry
// path: once bytes have been delivered a replay would duplicate them.
func (c *Client) CreateChatCompletionStream(ctx context.Context, req *aisdk.ChatCompletionRequest) (aisdk.StreamInterface, error) {
	logger := c.logger.With("method", "CreateChatCompletionStream", "model", c.config.Model)
	logger.Debug("sending streamed chat completion request", "messages", len(req.Messages))

	req.Model = c.config.Model
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	// Streams run for the whole completion; the per-request timeout on the
	// shared client would cut them off.
	streamClient := &http.Client{Transport: c.httpClient.Transport}

	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, &ConnectionError{URL: c.config.BaseURL, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.handleError(resp)
	}

	return &sseStream{
		reader: bufio.NewReader(resp.Body),
		closer: resp.Body,
	}, nil
}

// sseStream parses `data: <json>` frames from an SSE response body.
type sseStream struct {
	reader *bufio.Reader
	closer io.Closer
	done   bool
}

// Read returns the next chunk. io.EOF signals the explicit `[DONE]` terminal
// marker; ErrTruncatedStream signals the body ended without it.
func (s *sseStream) Read() (*aisdk.StreamChunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, ErrTruncatedStream
			}
			return nil, fmt.Errorf("reading stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return nil, io.EOF
		}

		var chunk aisdk.StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("parsing chunk: %w", err)
		}
		return &chunk, nil
	}
}

// Close closes the stream.
func (s *sseStream) Close() error {
	return s.closer.Close()
}
