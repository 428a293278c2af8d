package pipeline

// EventKind identifies a pipeline stage event.
type EventKind string

const (
	EventUserMessage EventKind = "user_message"
	EventResearch    EventKind = "research"
	EventValidation  EventKind = "validation"
	EventTurnDone    EventKind = "turn_done"
)

// Event is one stage notification emitted during a turn. Shells subscribe
// via Pipeline.OnEvent to stream progress to the user before the full turn
// result is available.
type Event struct {
	Kind     EventKind `json:"kind"`
	ThreadID string    `json:"thread_id"`
	Agent    string    `json:"agent,omitempty"`

	Text         string `json:"text,omitempty"`
	AudioSummary string `json:"audio_summary,omitempty"`
	Audio        []byte `json:"audio,omitempty"`

	Score     int  `json:"score,omitempty"`
	Validated bool `json:"validated,omitempty"`
}
