package core

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles stored alongside messages. The "function" role marks a
// tool result turn; only these three appear in persisted history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Session is a conversational container. Messages belonging to it are stored
// separately and ordered by insertion.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one persisted conversation turn. Immutable once appended.
type Message struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MemoryFact is a durable user fact (field → value) injected into the system
// prompt. Same field overwrites the prior value.
type MemoryFact struct {
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document records an uploaded PDF and the directory holding its vector index.
type Document struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	VectorPath string    `json:"vector_path"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewID generates a unique identifier for sessions and function calls.
func NewID() string { return uuid.NewString() }
