// Package search implements the web search collaborator.
// Providers: Tavily (keyed, primary) and DuckDuckGo (keyless fallback).
package search

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultMaxResults = 5
	maxResults        = 20
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Provider abstracts a web search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Service runs queries against a provider and renders already-formatted
// result text for the researcher agent.
type Service struct {
	provider   Provider
	maxResults int
}

// NewService wraps a provider. maxResults <= 0 uses the default.
func NewService(provider Provider, max int) *Service {
	if max <= 0 {
		max = defaultMaxResults
	}
	if max > maxResults {
		max = maxResults
	}
	return &Service{provider: provider, maxResults: max}
}

// Search returns formatted result text. Failures are not retried here.
func (s *Service) Search(ctx context.Context, query string) (string, error) {
	results, err := s.provider.Search(ctx, query, s.maxResults)
	if err != nil {
		return "", fmt.Errorf("%s search: %w", s.provider.Name(), err)
	}
	return FormatResults(results), nil
}

// FormatResults renders hits as numbered readable text.
func FormatResults(results []Result) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		title := r.Title
		if title == "" {
			title = "No title"
		}
		content := r.Content
		if content == "" {
			content = "No content available"
		}
		fmt.Fprintf(&sb, "%d. %s\n   URL: %s\n   %s\n", i+1, title, r.URL, content)
	}
	return sb.String()
}
