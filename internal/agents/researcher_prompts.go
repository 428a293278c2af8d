package agents

import (
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
)

const synthesisSystemPrompt = `You are a research assistant in an ongoing conversation. Your job is to analyze search
results and provide clear, concise answers to the user's questions.

When responding:
- If this is a follow-up question, reference previous findings naturally (e.g., "Building on what
  we discussed earlier...")
- If the user asks for clarification or more details, expand on relevant points from previous
  answers
- Always be factual and cite key information
- Maintain conversation continuity when appropriate`

const researcherAudioSystemPrompt = `You are a research assistant having a conversation with colleagues.
Your job is to verbally present your research findings in a natural, conversational way.
Speak as if you're talking to someone, not reading a report.
Keep it concise (2-3 sentences) but informative.
Use natural speech patterns like "I found that...", "It turns out...", "Interestingly..."
If this is part of an ongoing conversation, reference previous points naturally when relevant.`

const contextSnippetLen = 300

// appendSummaryContext quotes any compaction summaries present in the
// transcript (system messages carrying the summary marker).
func appendSummaryContext(parts *[]string, history []conversation.Message) {
	var summaries []string
	for _, m := range history {
		if m.Role == conversation.RoleSystem && strings.Contains(strings.ToLower(m.Content), "summary") {
			summaries = append(summaries, m.Content)
		}
	}
	if len(summaries) == 0 {
		return
	}
	*parts = append(*parts, "Previous conversation summary:")
	for _, s := range summaries {
		*parts = append(*parts, "  "+s)
	}
	*parts = append(*parts, "")
}

// appendRecentContext quotes the last few user/agent messages (excluding
// summaries and the current query) so follow-ups stay coherent.
func appendRecentContext(parts *[]string, history []conversation.Message) {
	if len(history) <= 2 {
		return
	}

	var recent []conversation.Message
	for _, m := range history {
		if m.Role != conversation.RoleUser && m.Role != conversation.RoleAgent {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), "summary") {
			continue
		}
		recent = append(recent, m)
	}
	if len(recent) == 0 {
		return
	}

	// Last 2-3 exchanges, excluding the current query itself.
	var window []conversation.Message
	if len(recent) > 6 {
		window = recent[len(recent)-6 : len(recent)-1]
	} else {
		window = recent[:len(recent)-1]
	}
	if len(window) == 0 {
		return
	}

	*parts = append(*parts, "Recent conversation context:")
	for _, m := range window {
		label := "Assistant"
		if m.Role == conversation.RoleUser {
			label = "User"
		}
		content := m.Content
		if len(content) > contextSnippetLen {
			content = content[:contextSnippetLen] + "..."
		}
		*parts = append(*parts, fmt.Sprintf("  %s: %s", label, content))
	}
	*parts = append(*parts, "")
}

// synthesisUserPrompt builds the structured-synthesis prompt from the query,
// raw search results, and conversation history.
func synthesisUserPrompt(query, searchResults string, history []conversation.Message) string {
	var parts []string
	appendSummaryContext(&parts, history)
	appendRecentContext(&parts, history)

	parts = append(parts,
		fmt.Sprintf("Current User Question: %s", query),
		"",
		"Search Results:",
		searchResults,
		"",
		"Please provide a well-structured answer based on these search results. "+
			"If this is a follow-up question, reference the previous conversation naturally. "+
			"Be factual and cite key information.",
	)
	return strings.Join(parts, "\n")
}

// researcherAudioUserPrompt asks for the spoken 2-3 sentence version.
func researcherAudioUserPrompt(query, detailedContent string, history []conversation.Message) string {
	parts := []string{fmt.Sprintf("You just researched: %q", query), ""}

	if len(history) > 2 {
		parts = append(parts, "This is part of an ongoing conversation.", "")
	}

	parts = append(parts,
		"Your detailed findings:",
		detailedContent,
		"",
		"Now, verbally share your key findings in a natural, conversational way (2-3 sentences). "+
			"If this continues a previous topic, reference it naturally.",
	)
	return strings.Join(parts, "\n")
}
