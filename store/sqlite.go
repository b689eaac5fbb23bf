package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT 'New Chat',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	message TEXT NOT NULL,
	tool_call_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_memory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	field TEXT NOT NULL UNIQUE,
	value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS uploaded_pdfs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	vector_path TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, id);
`

// SQLiteStore implements Store over a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// modernc's driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context) (*core.Session, error) {
	session := &core.Session{
		ID:        core.NewID(),
		Name:      DefaultSessionName,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)",
		session.ID, session.Name, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) EnsureSession(ctx context.Context, id, name string) (*core.Session, error) {
	session, err := s.GetSession(ctx, id)
	if err == nil {
		return session, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	session = &core.Session{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)",
		session.ID, session.Name, session.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}
	return session, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*core.Session, error) {
	var session core.Session
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM sessions WHERE id = ?", id,
	).Scan(&session.ID, &session.Name, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]core.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM sessions ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []core.Session{}
	for rows.Next() {
		var session core.Session
		if err := rows.Scan(&session.ID, &session.Name, &session.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) RenameSession(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *core.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (session_id, role, message, tool_call_id, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.SessionID, msg.Role, msg.Content, msg.ToolCallID, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	msg.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) Messages(ctx context.Context, sessionID string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, session_id, role, message, tool_call_id, created_at FROM chat_messages WHERE session_id = ? ORDER BY id ASC",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, message, tool_call_id, created_at FROM (
			SELECT * FROM chat_messages WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]core.Message, error) {
	messages := []core.Message{}
	for rows.Next() {
		var msg core.Message
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Content, &msg.ToolCallID, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) UpsertMemory(ctx context.Context, field, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_memory (field, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		field, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert memory: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AllMemory(ctx context.Context) ([]core.MemoryFact, error) {
	return s.queryMemory(ctx,
		"SELECT field, value, updated_at FROM user_memory ORDER BY updated_at DESC, id DESC")
}

func (s *SQLiteStore) LatestMemory(ctx context.Context, k int) ([]core.MemoryFact, error) {
	return s.queryMemory(ctx,
		"SELECT field, value, updated_at FROM user_memory ORDER BY updated_at DESC, id DESC LIMIT ?", k)
}

func (s *SQLiteStore) queryMemory(ctx context.Context, query string, args ...any) ([]core.MemoryFact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memory: %w", err)
	}
	defer rows.Close()

	facts := []core.MemoryFact{}
	for rows.Next() {
		var fact core.MemoryFact
		if err := rows.Scan(&fact.Field, &fact.Value, &fact.UpdatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, fact)
	}
	return facts, rows.Err()
}

func (s *SQLiteStore) AddDocument(ctx context.Context, filename, vectorPath string) (*core.Document, error) {
	doc := &core.Document{
		Filename:   filename,
		VectorPath: vectorPath,
		CreatedAt:  time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO uploaded_pdfs (filename, vector_path, created_at) VALUES (?, ?, ?)",
		doc.Filename, doc.VectorPath, doc.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("add document: %w", err)
	}
	doc.ID, _ = res.LastInsertId()
	return doc, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]core.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, vector_path, created_at FROM uploaded_pdfs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []core.Document{}
	for rows.Next() {
		var doc core.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.VectorPath, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) (*core.Document, error) {
	var doc core.Document
	err := s.db.QueryRowContext(ctx,
		"SELECT id, filename, vector_path, created_at FROM uploaded_pdfs WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Filename, &doc.VectorPath, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM uploaded_pdfs WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) VectorPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT vector_path FROM uploaded_pdfs ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("vector paths: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
