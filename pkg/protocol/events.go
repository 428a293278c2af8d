package protocol

// WebSocket event names pushed from server to client.
const (
	EventTurn     = "turn"
	EventShutdown = "shutdown"
)

// Turn event subtypes (in payload.kind).
const (
	TurnEventUserMessage = "user_message"
	TurnEventResearch    = "research"
	TurnEventValidation  = "validation"
	TurnEventDone        = "turn_done"
	TurnEventFailed      = "turn_failed"
)

// TurnPayload is the payload for "turn" events. Audio clips never travel
// inline; AudioURL points at the HTTP audio endpoint.
type TurnPayload struct {
	Kind     string `json:"kind"`
	ThreadID string `json:"thread_id"`
	Agent    string `json:"agent,omitempty"`

	Text         string `json:"text,omitempty"`
	AudioSummary string `json:"audio_summary,omitempty"`
	AudioURL     string `json:"audio_url,omitempty"`

	Score     int    `json:"score,omitempty"`
	Validated bool   `json:"validated,omitempty"`
	Error     string `json:"error,omitempty"`
}
