package search

import (
	"strings"
	"testing"
)

func TestFormatResults_Empty(t *testing.T) {
	if got := FormatResults(nil); got != "No results found." {
		t.Errorf("expected no-results text, got %q", got)
	}
}

func TestFormatResults_NumbersAndFallbacks(t *testing.T) {
	got := FormatResults([]Result{
		{Title: "Go", URL: "https://go.dev", Content: "The Go programming language"},
		{URL: "https://example.com"},
	})

	if !strings.Contains(got, "1. Go") || !strings.Contains(got, "URL: https://go.dev") {
		t.Errorf("first result not formatted: %q", got)
	}
	if !strings.Contains(got, "2. No title") || !strings.Contains(got, "No content available") {
		t.Errorf("missing-field fallbacks not applied: %q", got)
	}
}

func TestExtractDDGResults_ParsesAndUnwrapsRedirects(t *testing.T) {
	html := `<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fdoc&rut=abc">Go <b>Docs</b></a>` +
		`<a class="result__snippet">Official <b>documentation</b></a>`

	results := extractDDGResults(html, 5)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Go Docs" {
		t.Errorf("title tags not stripped: %q", results[0].Title)
	}
	if results[0].URL != "https://go.dev/doc" {
		t.Errorf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[0].Content != "Official documentation" {
		t.Errorf("snippet wrong: %q", results[0].Content)
	}
}

func TestExtractDDGResults_RespectsCount(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteString(`<a class="result__a" href="https://example.com">t</a>`)
	}
	if got := extractDDGResults(sb.String(), 3); len(got) != 3 {
		t.Errorf("expected 3 results, got %d", len(got))
	}
}
