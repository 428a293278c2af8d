package conversation

import (
	"errors"
	"fmt"
)

// MaxValidationHistory bounds the rolling window of prior validator
// outcomes threaded through metadata.
const MaxValidationHistory = 2

// ErrScoreOutOfRange signals a collaborator contract violation: the LLM
// returned a confidence score outside [0,100]. Never clamped locally.
var ErrScoreOutOfRange = errors.New("confidence score out of range [0,100]")

// ValidationHistory reads the prior-outcome window from metadata. When the
// window is absent but a legacy last-turn scalar score is present, a
// one-entry history is reconstructed from the scalars so older persisted
// threads keep their improvement tracking.
func ValidationHistory(meta Metadata) []ValidationRecord {
	if len(meta.ValidationHistory) > 0 {
		return meta.ValidationHistory
	}
	// States persisted before the window existed carry only the scalars.
	legacy := meta.HasValidation || meta.Assessment != "" || meta.ConfidenceScore > 0
	if legacy && meta.Agent == "validator" {
		return []ValidationRecord{{
			ConfidenceScore: meta.ConfidenceScore,
			Assessment:      meta.Assessment,
			IsValidated:     meta.IsValidated,
		}}
	}
	return nil
}

// RecordValidation appends a new validator outcome to the metadata window,
// truncating to the last MaxValidationHistory entries, most-recent-last.
// A score outside [0,100] is rejected before it can enter the window.
func RecordValidation(meta *Metadata, rec ValidationRecord) error {
	if rec.ConfidenceScore < 0 || rec.ConfidenceScore > 100 {
		return fmt.Errorf("%w: got %d", ErrScoreOutOfRange, rec.ConfidenceScore)
	}

	history := append(ValidationHistory(*meta), rec)
	if len(history) > MaxValidationHistory {
		history = history[len(history)-MaxValidationHistory:]
	}

	meta.ValidationHistory = history
	meta.ConfidenceScore = rec.ConfidenceScore
	meta.Assessment = rec.Assessment
	meta.IsValidated = rec.IsValidated
	meta.HasValidation = true
	return nil
}
