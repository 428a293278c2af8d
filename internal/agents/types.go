// Package agents implements the researcher and validator agents. The
// researcher searches and synthesizes; the validator scores and critiques
// the researcher's output, threading prior validation outcomes so its
// confidence improves as identified gaps get closed.
package agents

import (
	"context"
	"encoding/json"

	"github.com/nextlevelbuilder/audioagents/internal/conversation"
)

// LLM is the language-model collaborator surface the agents need.
// Satisfied by providers.OpenAIClient.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema json.RawMessage, out any) error
}

// Searcher is the web search collaborator surface.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Speaker is the text-to-speech collaborator surface. Satisfied by
// tts.Manager; a nil-audio result means TTS is disabled.
type Speaker interface {
	Speak(ctx context.Context, role, text string) ([]byte, error)
}

// Response is what an agent produced for one turn.
type Response struct {
	// Content is the detailed text result (synthesis or assessment).
	Content string

	// AudioSummary is the conversational spoken version of Content.
	AudioSummary string

	// Audio is the synthesized speech, nil when TTS is off.
	Audio []byte

	// Query is the user question the agent answered.
	Query string
}

// Agent is the shared contract over the two agent variants.
type Agent interface {
	Name() string
	Process(ctx context.Context, msgs []conversation.Message) (*Response, error)
}

// lastUserMessage returns the content of the most recent user message.
func lastUserMessage(msgs []conversation.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == conversation.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

// lastAgentMessage returns the content of the most recent agent message.
func lastAgentMessage(msgs []conversation.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == conversation.RoleAgent {
			return msgs[i].Content
		}
	}
	return ""
}
