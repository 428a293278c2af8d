package protocol

// Error codes returned in ResponseFrame.Error.Code.
const (
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrUnavailable       = "UNAVAILABLE"
	ErrNotFound          = "NOT_FOUND"
	ErrAgentTimeout      = "AGENT_TIMEOUT"
	ErrResourceExhausted = "RESOURCE_EXHAUSTED"
	ErrInternal          = "INTERNAL"
)
