package conversation

import (
	"context"
	"log/slog"
	"sync"
)

// Context manager defaults, matching the shipped thresholds.
const (
	DefaultMaxExchanges = 5
	DefaultMaxTokens    = 10000
)

// ContextManager bounds transcript growth. Once per validator turn it checks
// both thresholds and, when either is exceeded, replaces everything older
// than the last maxExchanges exchanges with a single summary message.
type ContextManager struct {
	llm       Generator
	estimator *TokenEstimator

	mu           sync.Mutex
	maxExchanges int
	maxTokens    int
}

// NewContextManager creates a context manager. Non-positive thresholds get
// the defaults.
func NewContextManager(llm Generator, est *TokenEstimator, maxExchanges, maxTokens int) *ContextManager {
	cm := &ContextManager{llm: llm, estimator: est}
	cm.SetLimits(maxExchanges, maxTokens)
	return cm
}

// SetLimits replaces the compaction thresholds, taking effect on the next
// Manage call. Non-positive values get the defaults.
func (cm *ContextManager) SetLimits(maxExchanges, maxTokens int) {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	cm.mu.Lock()
	cm.maxExchanges = maxExchanges
	cm.maxTokens = maxTokens
	cm.mu.Unlock()
}

// Limits returns the current compaction thresholds.
func (cm *ContextManager) Limits() (maxExchanges, maxTokens int) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.maxExchanges, cm.maxTokens
}

// Manage returns the transcript to carry forward, compacted when needed.
// Compaction only ever operates on exchange-bounded partitions: if the token
// threshold fired but every exchange is still recent enough to keep, the
// sequence comes back unchanged. A compacted transcript holds fewer than
// maxExchanges+1 exchanges, so a second call right after never fires again.
func (cm *ContextManager) Manage(ctx context.Context, msgs []Message) ([]Message, error) {
	maxExchanges, maxTokens := cm.Limits()

	if !ShouldSummarize(msgs, cm.estimator, maxExchanges, maxTokens) {
		return msgs, nil
	}

	toSummarize, toKeep := PartitionHistory(msgs, maxExchanges)
	if len(toSummarize) == 0 {
		// Token threshold fired but nothing is old enough to compact.
		return msgs, nil
	}

	summary, err := Summarize(ctx, cm.llm, toSummarize)
	if err != nil {
		return nil, err
	}

	slog.Info("conversation compacted",
		"summarized", len(toSummarize),
		"kept", len(toKeep),
		"exchanges_kept", maxExchanges)

	out := make([]Message, 0, len(toKeep)+1)
	out = append(out, SystemMessage(SummaryPrefix+summary))
	out = append(out, toKeep...)
	return out, nil
}
