package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
	"github.com/nextlevelbuilder/audioagents/internal/tts"
)

// ResearchSynthesis is the structured output of the synthesis call.
type ResearchSynthesis struct {
	Answer   string   `json:"answer"`
	KeyFacts []string `json:"key_facts"`
	Sources  []string `json:"sources"`
}

var researchSynthesisSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"answer": {
			"type": "string",
			"description": "Clear, concise answer to the user's question based on search results"
		},
		"key_facts": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Key facts extracted from search results"
		},
		"sources": {
			"type": "array",
			"items": {"type": "string"},
			"description": "Sources or citations from the search results"
		}
	},
	"required": ["answer", "key_facts", "sources"],
	"additionalProperties": false
}`)

// Researcher searches for information and synthesizes it into a detailed
// answer plus a conversational audio summary.
type Researcher struct {
	search  Searcher
	speaker Speaker
	llm     LLM
}

// NewResearcher creates the researcher agent.
func NewResearcher(search Searcher, speaker Speaker, llm LLM) *Researcher {
	return &Researcher{search: search, speaker: speaker, llm: llm}
}

func (r *Researcher) Name() string { return "researcher" }

// Process runs the research flow: search, synthesize, summarize for audio,
// synthesize speech. Any collaborator failure fails the turn.
func (r *Researcher) Process(ctx context.Context, msgs []conversation.Message) (*Response, error) {
	query := lastUserMessage(msgs)

	searchResults, err := r.search.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("researcher search: %w", err)
	}

	content, err := r.synthesize(ctx, query, searchResults, msgs)
	if err != nil {
		return nil, err
	}

	audioSummary, err := r.llm.Generate(ctx,
		researcherAudioSystemPrompt+"\n\n"+researcherAudioUserPrompt(query, content, msgs))
	if err != nil {
		return nil, fmt.Errorf("researcher audio summary: %w", err)
	}

	audio, err := r.speaker.Speak(ctx, tts.VoiceResearcher, audioSummary)
	if err != nil {
		return nil, err
	}

	return &Response{
		Content:      content,
		AudioSummary: audioSummary,
		Audio:        audio,
		Query:        query,
	}, nil
}

func (r *Researcher) synthesize(ctx context.Context, query, searchResults string, msgs []conversation.Message) (string, error) {
	var synthesis ResearchSynthesis
	err := r.llm.GenerateStructured(ctx,
		synthesisSystemPrompt,
		synthesisUserPrompt(query, searchResults, msgs),
		"research_synthesis", researchSynthesisSchema, &synthesis)
	if err != nil {
		return "", fmt.Errorf("researcher synthesis: %w", err)
	}

	// Render the structured synthesis into readable text.
	parts := []string{synthesis.Answer}
	if len(synthesis.KeyFacts) > 0 {
		parts = append(parts, "\n\nKey Facts:")
		for _, fact := range synthesis.KeyFacts {
			parts = append(parts, "  • "+fact)
		}
	}
	if len(synthesis.Sources) > 0 {
		parts = append(parts, "\n\nSources:")
		for _, src := range synthesis.Sources {
			parts = append(parts, "  • "+src)
		}
	}
	return strings.Join(parts, "\n"), nil
}
