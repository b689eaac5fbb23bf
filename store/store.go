// Package store persists sessions, chat transcripts, long-lived user memory
// facts and uploaded document metadata. The production implementation is
// SQLite backed; an in-memory variant exists for tests.
package store

import (
	"context"
	"errors"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
)

// DefaultSessionName is assigned to freshly created sessions until the first
// user message names them.
const DefaultSessionName = "New Chat"

// namePreviewLen bounds the auto-generated session name.
const namePreviewLen = 50

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence contract shared by the HTTP surface and the agent.
type Store interface {
	// CreateSession creates a session with a generated id and the default name.
	CreateSession(ctx context.Context) (*core.Session, error)

	// EnsureSession returns the session with the given id, creating it with
	// the provided name when absent. Used by webhook channels whose session
	// ids come from the messaging platform.
	EnsureSession(ctx context.Context, id, name string) (*core.Session, error)

	// GetSession fetches a session by id, ErrNotFound if absent.
	GetSession(ctx context.Context, id string) (*core.Session, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]core.Session, error)

	// RenameSession updates a session's display name.
	RenameSession(ctx context.Context, id, name string) error

	// AppendMessage persists a chat message, filling ID and CreatedAt.
	AppendMessage(ctx context.Context, msg *core.Message) error

	// Messages returns a session's full transcript in chronological order.
	Messages(ctx context.Context, sessionID string) ([]core.Message, error)

	// RecentMessages returns the last limit messages of a session in
	// chronological order.
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error)

	// UpsertMemory inserts or updates a user memory fact keyed by field.
	UpsertMemory(ctx context.Context, field, value string) error

	// AllMemory returns every memory fact.
	AllMemory(ctx context.Context) ([]core.MemoryFact, error)

	// LatestMemory returns the k most recently updated memory facts.
	LatestMemory(ctx context.Context, k int) ([]core.MemoryFact, error)

	// AddDocument records an uploaded document and its vector index location.
	AddDocument(ctx context.Context, filename, vectorPath string) (*core.Document, error)

	// ListDocuments returns all uploaded documents, newest first.
	ListDocuments(ctx context.Context) ([]core.Document, error)

	// DeleteDocument removes a document record and returns it so callers can
	// clean up the vector index file. ErrNotFound if absent.
	DeleteDocument(ctx context.Context, id int64) (*core.Document, error)

	// VectorPaths returns the vector index paths of all documents.
	VectorPaths(ctx context.Context) ([]string, error)

	Close() error
}

// NamePreview derives a session name from its first user message: the leading
// characters, suffixed when truncated.
func NamePreview(message string) string {
	runes := []rune(message)
	if len(runes) <= namePreviewLen {
		return message
	}
	return string(runes[:namePreviewLen]) + "..."
}
