package conversation

// ValidationRecord is one prior validator outcome carried across turns.
type ValidationRecord struct {
	ConfidenceScore int    `json:"confidence_score"`
	Assessment      string `json:"assessment"`
	IsValidated     bool   `json:"is_validated"`
}

// Metadata carries turn-level scalars and the validation-history window.
// A closed struct rather than an open map: the set of keys is known and
// schema drift is not a feature.
type Metadata struct {
	// ValidationHistory holds at most MaxValidationHistory prior validator
	// outcomes, most-recent-last.
	ValidationHistory []ValidationRecord `json:"validation_history,omitempty"`

	// Last-turn scalars, mirroring what the most recent validator run saw.
	Agent           string `json:"agent,omitempty"`
	Query           string `json:"query,omitempty"`
	ConfidenceScore int    `json:"confidence_score,omitempty"`
	Assessment      string `json:"assessment,omitempty"`
	IsValidated     bool   `json:"is_validated,omitempty"`

	// HasValidation distinguishes "score of zero" from "never validated"
	// when reconstructing history from the scalar fields.
	HasValidation bool `json:"has_validation,omitempty"`
}

// State is the unit of persistence for one conversation thread. Loaded at
// the start of a turn (zero value on cold start), mutated in memory through
// the pipeline stages, persisted in full once the turn completes.
type State struct {
	Messages         []Message `json:"messages"`
	UserQuery        string    `json:"user_query,omitempty"`
	ResearchResult   string    `json:"research_result,omitempty"`
	ValidationResult string    `json:"validation_result,omitempty"`
	IsValidated      bool      `json:"is_validated,omitempty"`
	Metadata         Metadata  `json:"metadata"`
}

// Clone returns a deep copy of the state. The pipeline mutates a clone so a
// failed turn leaves the loaded state untouched.
func (s *State) Clone() *State {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	cp.Metadata.ValidationHistory = append([]ValidationRecord(nil), s.Metadata.ValidationHistory...)
	return &cp
}
