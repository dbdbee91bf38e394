package entity

import (
	"fmt"
	"time"
)

// Role is the author of a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return fmt.Errorf("unknown role: %s", r)
	}
}

// ChatTurn is a single message of a conversation.
// Turns are immutable once appended, except the trailing assistant turn
// which is rewritten in place while its answer streams.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const (
	DefaultConversationName = "New Conversation"
	DefaultSystemPrompt     = "You are a helpful AI assistant. Answer the user's questions using the provided context."
	DefaultTemperature      = 0.7

	// conversationNameLimit is the number of characters kept when a
	// conversation is named after its first user message.
	conversationNameLimit = 30
)

// Conversation is a chat thread owned by the conversation store
type Conversation struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Messages    []ChatTurn `json:"messages"`
	Prompt      string     `json:"prompt"`
	Temperature float64    `json:"temperature"`
	FolderID    *string    `json:"folderId,omitempty"`
}

// Clone returns a copy whose message slice can be mutated independently
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]ChatTurn, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	if c.FolderID != nil {
		folderID := *c.FolderID
		out.FolderID = &folderID
	}
	return out
}

// NameFromMessage derives a conversation name from the first user message
func NameFromMessage(content string) string {
	runes := []rune(content)
	if len(runes) > conversationNameLimit {
		return string(runes[:conversationNameLimit]) + "..."
	}
	return content
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Chatbot is a tenant: a named assistant bound to one document namespace
type Chatbot struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Namespace   string    `json:"namespace"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoredConversation is a conversation row as persisted server-side
type StoredConversation struct {
	Conversation
	Namespace string    `json:"namespace"`
	UserID    *string   `json:"user_id,omitempty"`
	ChatbotID *string   `json:"chatbot_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
