package conversation

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding approximates any model tiktoken doesn't know about.
const fallbackEncoding = "cl100k_base"

// encodingCacheSize bounds the per-model tokenizer cache. Encodings are
// expensive to construct, so one entry per model name we've ever seen.
const encodingCacheSize = 8

// TokenEstimator approximates the model-context cost of message sequences.
// An unknown model name degrades estimate quality, never correctness: the
// estimator falls back to cl100k_base and keeps going.
type TokenEstimator struct {
	model     string
	encodings *lru.Cache[string, *tiktoken.Tiktoken]
}

// NewTokenEstimator creates an estimator tuned for the given model name.
func NewTokenEstimator(model string) *TokenEstimator {
	cache, _ := lru.New[string, *tiktoken.Tiktoken](encodingCacheSize)
	return &TokenEstimator{model: model, encodings: cache}
}

// CountText returns the token count of a single piece of text.
func (e *TokenEstimator) CountText(text string) int {
	enc := e.encodingFor(e.model)
	if enc == nil {
		// Last resort: ~4 chars per token heuristic.
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// EstimateMessages returns the estimated total token cost of a message
// sequence, including per-message role and formatting overhead. Adding a
// message never decreases the result.
func (e *TokenEstimator) EstimateMessages(msgs []Message) int {
	total := 0
	for _, m := range msgs {
		total += e.CountText(fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return total
}

func (e *TokenEstimator) encodingFor(model string) *tiktoken.Tiktoken {
	if enc, ok := e.encodings.Get(model); ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		slog.Debug("no tokenizer for model, using fallback encoding",
			"model", model, "encoding", fallbackEncoding)
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil
		}
	}

	e.encodings.Add(model, enc)
	return enc
}
