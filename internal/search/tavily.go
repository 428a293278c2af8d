package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	tavilyEndpoint       = "https://api.tavily.com/search"
	searchTimeoutSeconds = 30
)

// TavilyConfig configures the Tavily search provider.
type TavilyConfig struct {
	APIKey string `json:"apiKey"`

	// SearchDepth: "basic" (1 API call) or "advanced" (2 API calls).
	SearchDepth string `json:"searchDepth"`
}

// TavilyProvider implements search via the Tavily API.
type TavilyProvider struct {
	apiKey      string
	searchDepth string
	client      *http.Client
}

// NewTavilyProvider creates a Tavily provider.
func NewTavilyProvider(cfg TavilyConfig) *TavilyProvider {
	depth := cfg.SearchDepth
	if depth == "" {
		depth = "advanced"
	}
	return &TavilyProvider{
		apiKey:      cfg.APIKey,
		searchDepth: depth,
		client:      &http.Client{Timeout: searchTimeoutSeconds * time.Second},
	}
}

func (p *TavilyProvider) Name() string { return "tavily" }

func (p *TavilyProvider) Search(ctx context.Context, query string, count int) ([]Result, error) {
	body, err := json.Marshal(map[string]any{
		"query":        query,
		"max_results":  count,
		"search_depth": p.searchDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API returned %d: %s", resp.StatusCode, truncateStr(string(respBody), 200))
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return results, nil
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
