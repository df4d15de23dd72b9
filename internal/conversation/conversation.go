// Package conversation holds the ordered, role-tagged message log of a
// single chat session.
package conversation

// Role tags a message with its author. The values are the wire tags sent
// to the completion endpoint.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation. It is a plain value: the
// conversation only ever hands out copies.
type Message struct {
	Role    Role
	Content string
}

// System returns a system message carrying a persona prompt.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User returns a message typed by the user.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Assistant returns a finished assistant reply.
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Conversation is an append-only log of messages in chronological order.
// It has a single owner and is not safe for concurrent mutation.
type Conversation struct {
	messages []Message
}

// New starts a conversation whose first message is the system prompt.
func New(systemPrompt string) *Conversation {
	c := &Conversation{messages: make([]Message, 0, 16)}
	c.messages = append(c.messages, System(systemPrompt))
	return c
}

// Append adds a message to the end of the log.
func (c *Conversation) Append(m Message) {
	c.messages = append(c.messages, m)
}

// Snapshot returns a copy of the log suitable for building a request.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Count returns how many messages carry the given role.
func (c *Conversation) Count(role Role) int {
	n := 0
	for _, m := range c.messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
