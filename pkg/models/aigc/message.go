package aigc

// Role of a conversation turn
type Role string

// roles
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid ...
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one conversation turn, treat it as immutable once created.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// NewMessage ...
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

type Messages []Message

// Recent returns the last n messages (or fewer)
func (z Messages) Recent(n int) Messages {
	if n <= 0 {
		return Messages{}
	}
	if len(z) > n {
		z = z[len(z)-n:]
	}
	out := make(Messages, len(z))
	copy(out, z)
	return out
}

// LastOf returns the content of the latest message with role
func (z Messages) LastOf(role Role) (string, bool) {
	for i := len(z) - 1; i >= 0; i-- {
		if z[i].Role == role {
			return z[i].Content, true
		}
	}
	return "", false
}
