package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
	"github.com/bv-juan-bedoya/search-agent-tool/internal/httputil"
)

const defaultAPIVersion = "2024-02-15-preview"

// Client resolves date expressions by asking an OpenAI-compatible chat
// deployment. It implements Resolver.
type Client struct {
	endpoint   string
	deployment string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the reference clock used in the system prompt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a chat-completions client for the given Azure OpenAI
// style endpoint and deployment.
func NewClient(endpoint, deployment, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		deployment: deployment,
		apiKey:     apiKey,
		apiVersion: defaultAPIVersion,
		httpClient: httputil.NewClient(timeout),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ResolveDates asks the deployment to interpret the query's date expression
// and parses the reply into one of the two wire shapes.
func (c *Client) ResolveDates(ctx context.Context, query string) (fecha.Resolution, error) {
	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(c.now())},
			{Role: "user", Content: query},
		},
		Temperature: 0,
		MaxTokens:   120,
	})
	if err != nil {
		return fecha.Resolution{}, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fecha.Resolution{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fecha.Resolution{}, fmt.Errorf("date parser agent: %w", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fecha.Resolution{}, fmt.Errorf("date parser agent: decode response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		if parsed.Error != nil {
			return fecha.Resolution{}, fmt.Errorf("date parser agent: http %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return fecha.Resolution{}, fmt.Errorf("date parser agent: http %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return fecha.Resolution{}, fmt.Errorf("date parser agent: empty response")
	}

	return extractResolution(parsed.Choices[0].Message.Content)
}
