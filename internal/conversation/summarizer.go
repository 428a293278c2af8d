package conversation

import (
	"context"
	"fmt"
	"strings"
)

// Generator is the free-text LLM surface the summarizer needs. Satisfied by
// providers.OpenAIClient.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SummaryPrefix marks the system message that replaces compacted history.
const SummaryPrefix = "Previous conversation summary: "

const summarySystemPrompt = `You are a conversation summarizer. Your job is to create a concise
summary of the conversation, focusing on:
- Main topics and questions discussed
- Key findings and research results
- General themes and direction of the conversation

Keep the summary brief (200-300 tokens). Focus on high-level topics and findings, not
specific validation scores or detailed assessments. This summary will be used to provide
context for future exchanges.`

// Summarize reduces a non-empty message sequence to brief summary text via
// the LLM. A failed LLM call fails the turn; there is no silent fallback.
func Summarize(ctx context.Context, llm Generator, msgs []Message) (string, error) {
	if len(msgs) == 0 {
		return "", fmt.Errorf("summarize: empty message sequence")
	}

	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		label := "Assistant"
		if m.Role == RoleUser {
			label = "User"
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}

	prompt := fmt.Sprintf("%s\n\nPlease summarize this conversation:\n\n%s\n\nProvide a concise summary focusing on topics discussed and key findings.",
		summarySystemPrompt, sb.String())

	summary, err := llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
