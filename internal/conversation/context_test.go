package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubGenerator returns canned summary text and records whether it ran.
type stubGenerator struct {
	reply  string
	err    error
	called int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.called++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestContextManager_BelowThresholdsUnchanged(t *testing.T) {
	gen := &stubGenerator{reply: "summary"}
	cm := NewContextManager(gen, NewTokenEstimator("gpt-4o-mini"), 5, 1_000_000)

	msgs := buildExchanges(3)
	out, err := cm.Manage(context.Background(), msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(msgs) {
		t.Errorf("expected sequence unchanged, got %d of %d messages", len(out), len(msgs))
	}
	if gen.called != 0 {
		t.Errorf("summarizer must not run below thresholds, ran %d times", gen.called)
	}
}

func TestContextManager_CompactsOldExchanges(t *testing.T) {
	gen := &stubGenerator{reply: "we discussed questions one through six"}
	cm := NewContextManager(gen, NewTokenEstimator("gpt-4o-mini"), 5, 1_000_000)

	msgs := buildExchanges(6)
	out, err := cm.Manage(context.Background(), msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Summary message + last 5 exchanges (10 messages) verbatim.
	if len(out) != 11 {
		t.Fatalf("expected 11 messages after compaction, got %d", len(out))
	}
	if out[0].Role != RoleSystem || !strings.HasPrefix(out[0].Content, SummaryPrefix) {
		t.Errorf("expected leading summary system message, got %+v", out[0])
	}
	if out[1].Content != "question 2" || out[len(out)-1].Content != "answer 6" {
		t.Errorf("recent exchanges not preserved verbatim: %+v ... %+v", out[1], out[len(out)-1])
	}
	if gen.called != 1 {
		t.Errorf("expected exactly one summarizer call, got %d", gen.called)
	}
}

func TestContextManager_SecondCompactionDoesNotFire(t *testing.T) {
	gen := &stubGenerator{reply: "first summary"}
	cm := NewContextManager(gen, NewTokenEstimator("gpt-4o-mini"), 5, 1_000_000)

	out, err := cm.Manage(context.Background(), buildExchanges(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	again, err := cm.Manage(context.Background(), out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != len(out) {
		t.Errorf("immediate re-compaction must be a no-op, %d -> %d messages", len(out), len(again))
	}
	if gen.called != 1 {
		t.Errorf("summarizer ran again on compacted history: %d calls", gen.called)
	}
}

func TestContextManager_SetLimits(t *testing.T) {
	gen := &stubGenerator{reply: "retuned summary"}
	cm := NewContextManager(gen, NewTokenEstimator("gpt-4o-mini"), 10, 1_000_000)

	msgs := buildExchanges(6)
	out, err := cm.Manage(context.Background(), msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(msgs) || gen.called != 0 {
		t.Fatal("precondition: loose limits must not compact")
	}

	cm.SetLimits(5, 1_000_000)
	out, err = cm.Manage(context.Background(), msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 11 || gen.called != 1 {
		t.Errorf("tightened limits did not apply: %d messages, %d summarizer calls", len(out), gen.called)
	}

	cm.SetLimits(0, 0)
	if maxExchanges, maxTokens := cm.Limits(); maxExchanges != DefaultMaxExchanges || maxTokens != DefaultMaxTokens {
		t.Errorf("non-positive limits must reset to defaults, got %d/%d", maxExchanges, maxTokens)
	}
}

func TestContextManager_TokenTriggerWithoutOldExchanges(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	// Token threshold of 1 fires immediately, but only 2 exchanges exist.
	cm := NewContextManager(gen, NewTokenEstimator("gpt-4o-mini"), 5, 1)

	msgs := buildExchanges(2)
	out, err := cm.Manage(context.Background(), msgs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(msgs) {
		t.Errorf("expected unchanged sequence when nothing is old enough, got %d messages", len(out))
	}
	if gen.called != 0 {
		t.Error("summarizer must never run on an empty partition")
	}
}

func TestContextManager_SummarizerFailurePropagates(t *testing.T) {
	wantErr := errors.New("llm unavailable")
	gen := &stubGenerator{err: wantErr}
	cm := NewContextManager(gen, NewTokenEstimator("gpt-4o-mini"), 5, 1_000_000)

	_, err := cm.Manage(context.Background(), buildExchanges(6))
	if !errors.Is(err, wantErr) {
		t.Errorf("expected summarizer failure to propagate, got %v", err)
	}
}

func TestSummarize_RejectsEmptySequence(t *testing.T) {
	gen := &stubGenerator{reply: "nope"}
	if _, err := Summarize(context.Background(), gen, nil); err == nil {
		t.Error("expected error for empty sequence")
	}
	if gen.called != 0 {
		t.Error("LLM must not be invoked for an empty sequence")
	}
}

func TestSummarize_FormatsRoles(t *testing.T) {
	gen := &stubGenerator{reply: "  a summary  "}
	got, err := Summarize(context.Background(), gen, []Message{
		UserMessage("what is Go"),
		AgentMessage("a programming language"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a summary" {
		t.Errorf("expected trimmed summary text, got %q", got)
	}
}
