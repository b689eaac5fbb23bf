package store

import (
	"context"
	"sync"
	"time"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
)

// InMemoryStore is a Store backed by maps, for tests and local experiments.
type InMemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]*core.Session
	messages  []core.Message
	memory    map[string]*core.MemoryFact
	documents []core.Document
	nextMsgID int64
	nextDocID int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		memory:   make(map[string]*core.MemoryFact),
	}
}

func (s *InMemoryStore) CreateSession(_ context.Context) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &core.Session{
		ID:        core.NewID(),
		Name:      DefaultSessionName,
		CreatedAt: time.Now().UTC(),
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *InMemoryStore) EnsureSession(_ context.Context, id, name string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		copied := *session
		return &copied, nil
	}
	session := &core.Session{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	s.sessions[id] = session
	copied := *session
	return &copied, nil
}

func (s *InMemoryStore) GetSession(_ context.Context, id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *InMemoryStore) ListSessions(_ context.Context) ([]core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *InMemoryStore) RenameSession(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	session.Name = name
	return nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, msg *core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMsgID++
	msg.ID = s.nextMsgID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *InMemoryStore) Messages(_ context.Context, sessionID string) ([]core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Message{}
	for _, msg := range s.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *InMemoryStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	all, err := s.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *InMemoryStore) UpsertMemory(_ context.Context, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[field] = &core.MemoryFact{Field: field, Value: value, UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *InMemoryStore) AllMemory(_ context.Context) ([]core.MemoryFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MemoryFact, 0, len(s.memory))
	for _, fact := range s.memory {
		out = append(out, *fact)
	}
	sortFactsNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) LatestMemory(ctx context.Context, k int) ([]core.MemoryFact, error) {
	all, err := s.AllMemory(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > k {
		all = all[:k]
	}
	return all, nil
}

func sortFactsNewestFirst(facts []core.MemoryFact) {
	for i := 0; i < len(facts); i++ {
		for j := i + 1; j < len(facts); j++ {
			if facts[j].UpdatedAt.After(facts[i].UpdatedAt) {
				facts[i], facts[j] = facts[j], facts[i]
			}
		}
	}
}

func (s *InMemoryStore) AddDocument(_ context.Context, filename, vectorPath string) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDocID++
	doc := core.Document{
		ID:         s.nextDocID,
		Filename:   filename,
		VectorPath: vectorPath,
		CreatedAt:  time.Now().UTC(),
	}
	s.documents = append(s.documents, doc)
	return &doc, nil
}

func (s *InMemoryStore) ListDocuments(_ context.Context) ([]core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Document, len(s.documents))
	copy(out, s.documents)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *InMemoryStore) DeleteDocument(_ context.Context, id int64) (*core.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range s.documents {
		if doc.ID == id {
			s.documents = append(s.documents[:i], s.documents[i+1:]...)
			return &doc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) VectorPaths(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := []string{}
	for _, doc := range s.documents {
		paths = append(paths, doc.VectorPath)
	}
	return paths, nil
}

func (s *InMemoryStore) Close() error { return nil }
