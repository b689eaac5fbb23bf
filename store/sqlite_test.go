package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "chatbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session, err := s.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, DefaultSessionName, session.Name)

	got, err := s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	require.NoError(t, s.RenameSession(ctx, session.ID, "Order questions"))
	got, err = s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Order questions", got.Name)

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	_, err = s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.RenameSession(ctx, "missing", "x"), ErrNotFound)
}

func TestMessagesOrderAndWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session, err := s.CreateSession(ctx)
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		msg := &core.Message{
			SessionID: session.ID,
			Role:      role,
			Content:   strings.Repeat("m", i+1),
		}
		require.NoError(t, s.AppendMessage(ctx, msg))
		assert.NotZero(t, msg.ID)
	}

	all, err := s.Messages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, all, 12)
	assert.Equal(t, "m", all[0].Content)

	recent, err := s.RecentMessages(ctx, session.ID, 8)
	require.NoError(t, err)
	require.Len(t, recent, 8)
	// chronological within the window
	assert.Equal(t, strings.Repeat("m", 5), recent[0].Content)
	assert.Equal(t, strings.Repeat("m", 12), recent[7].Content)
}

func TestMemoryUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertMemory(ctx, "name", "Ravi"))
	require.NoError(t, s.UpsertMemory(ctx, "city", "Pune"))
	require.NoError(t, s.UpsertMemory(ctx, "name", "Ravi Kumar"))

	all, err := s.AllMemory(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byField := map[string]string{}
	for _, fact := range all {
		byField[fact.Field] = fact.Value
	}
	assert.Equal(t, "Ravi Kumar", byField["name"])
	assert.Equal(t, "Pune", byField["city"])

	latest, err := s.LatestMemory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "name", latest[0].Field)
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.AddDocument(ctx, "manual.pdf", "/vectors/manual.json")
	require.NoError(t, err)
	assert.NotZero(t, doc.ID)

	_, err = s.AddDocument(ctx, "faq.pdf", "/vectors/faq.json")
	require.NoError(t, err)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	paths, err := s.VectorPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/vectors/manual.json", "/vectors/faq.json"}, paths)

	deleted, err := s.DeleteDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "/vectors/manual.json", deleted.VectorPath)

	_, err = s.DeleteDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	docs, err = s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestNamePreview(t *testing.T) {
	assert.Equal(t, "short question", NamePreview("short question"))

	long := strings.Repeat("a", 60)
	preview := NamePreview(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", preview)
}
