// Package search queries the document index through an Azure OpenAI
// "on your data" chat deployment, scoped by a release-date filter.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/httputil"
)

const apiVersion = "2023-10-01-preview"

// Config carries the search backend settings.
type Config struct {
	OpenAIEndpoint string
	Deployment     string
	APIKey         string
	SearchEndpoint string
	SearchIndex    string
	SearchAPIKey   string
	SemanticConfig string
	TopN           int
	Timeout        time.Duration
	Retries        int
}

// Client calls the chat deployment with the search index attached as a data
// source.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a search client from config, applying defaults for the
// semantic configuration, document count, timeout and retry count.
func NewClient(cfg Config) *Client {
	if cfg.SemanticConfig == "" {
		cfg.SemanticConfig = "docs-index-semantic-confg"
	}
	if cfg.TopN == 0 {
		cfg.TopN = 10
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retries == 0 {
		cfg.Retries = 2
	}
	cfg.OpenAIEndpoint = strings.TrimRight(cfg.OpenAIEndpoint, "/")
	return &Client{cfg: cfg, httpClient: httputil.NewClient(cfg.Timeout)}
}

// Answer is the backend's reply to a filtered query.
type Answer struct {
	Text string
	Raw  json.RawMessage
}

type dataSource struct {
	Type       string           `json:"type"`
	Parameters dataSourceParams `json:"parameters"`
}

type dataSourceParams struct {
	Endpoint              string `json:"endpoint"`
	IndexName             string `json:"indexName"`
	Key                   string `json:"key"`
	Filter                string `json:"filter"`
	SemanticConfiguration string `json:"semanticConfiguration"`
	TopNDocuments         int    `json:"topNDocuments"`
}

type askRequest struct {
	Messages []askMessage `json:"messages"`
	// dataSources is the pre-GA field name used by the extensions endpoint.
	DataSources []dataSource `json:"dataSources"`
	Temperature float64      `json:"temperature"`
	TopP        float64      `json:"top_p"`
	MaxTokens   int          `json:"max_tokens"`
}

type askMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type askResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Ask sends the user query to the deployment with the date filter applied to
// the attached index. Transient failures are retried with backoff.
func (c *Client) Ask(ctx context.Context, query, filterExpr string) (Answer, error) {
	body, err := json.Marshal(askRequest{
		Messages: []askMessage{{Role: "user", Content: query}},
		DataSources: []dataSource{{
			Type: "AzureCognitiveSearch",
			Parameters: dataSourceParams{
				Endpoint:              c.cfg.SearchEndpoint,
				IndexName:             c.cfg.SearchIndex,
				Key:                   c.cfg.SearchAPIKey,
				Filter:                filterExpr,
				SemanticConfiguration: c.cfg.SemanticConfig,
				TopNDocuments:         c.cfg.TopN,
			},
		}},
		Temperature: 0.2,
		TopP:        1,
		MaxTokens:   800,
	})
	if err != nil {
		return Answer{}, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/extensions/chat/completions?api-version=%s",
		c.cfg.OpenAIEndpoint, c.cfg.Deployment, apiVersion)

	var answer Answer
	err = httputil.Retry(ctx, c.cfg.Retries, 500*time.Millisecond, 5*time.Second, func() error {
		a, err := c.ask(ctx, url, body)
		if err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return Answer{}, fmt.Errorf("search backend: %w", err)
	}
	return answer, nil
}

func (c *Client) ask(ctx context.Context, url string, body []byte) (Answer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Answer{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Answer{}, err
	}
	if resp.StatusCode/100 != 2 {
		return Answer{}, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed askResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Answer{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Answer{}, fmt.Errorf("empty response")
	}
	return Answer{Text: parsed.Choices[0].Message.Content, Raw: raw}, nil
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
