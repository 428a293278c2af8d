// Package conversation holds the conversation transcript model and the
// context manager that keeps it inside the model window: token estimation,
// exchange counting, history partitioning, rolling summarization, and the
// validation-history window threaded through turn metadata.
package conversation

// Message roles. The transcript only ever carries these three.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Message is one entry in a conversation transcript. Immutable once created;
// order in the transcript is chronological and semantically significant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AgentMessage builds an agent-role message.
func AgentMessage(content string) Message {
	return Message{Role: RoleAgent, Content: content}
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
