package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VRUSHIL1/shop-chatbot-v2/core"
	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
	"github.com/VRUSHIL1/shop-chatbot-v2/vectorstore"
)

type scriptedRunner struct {
	lastSession string
	lastTask    string
	reply       string
}

func (s *scriptedRunner) StartTask(_ context.Context, sessionID, task string) string {
	s.lastSession = sessionID
	s.lastTask = task
	return s.reply
}

type flatEmbedder struct{}

func (flatEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

type stubCatalogs struct {
	catalogs []mcp.ProviderCatalog
}

func (s stubCatalogs) AllTools(_ context.Context) []mcp.ProviderCatalog { return s.catalogs }

func newTestServer(t *testing.T, runner *scriptedRunner, optFns ...func(o *Options)) (*Server, store.Store) {
	t.Helper()
	st := store.NewInMemoryStore()
	vectors := vectorstore.New(flatEmbedder{})
	opts := append([]func(o *Options){func(o *Options) {
		o.VectorDir = t.TempDir()
		o.ExtractText = func(string) (string, error) { return "extracted document text", nil }
	}}, optFns...)
	return New(st, runner, vectors, opts...), st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &scriptedRunner{})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &scriptedRunner{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var session core.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "New Chat", session.Name)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []core.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/sessions/"+session.ID+"/messages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/sessions/missing/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskEndpoint(t *testing.T) {
	runner := &scriptedRunner{reply: "It is sunny in Pune."}
	s, st := newTestServer(t, runner)

	session, err := st.CreateSession(context.Background())
	require.NoError(t, err)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/ask/"+session.ID,
		map[string]string{"question": "weather in Pune?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "It is sunny in Pune.", resp.Answer)
	assert.Equal(t, session.ID, runner.lastSession)
	assert.Equal(t, "weather in Pune?", runner.lastTask)
}

func TestAskValidation(t *testing.T) {
	s, st := newTestServer(t, &scriptedRunner{})
	session, err := st.CreateSession(context.Background())
	require.NoError(t, err)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/ask/"+session.ID, map[string]string{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/ask/missing", map[string]string{"question": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemoryEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &scriptedRunner{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/usermemory",
		map[string]string{"field": "name", "value": "Ravi"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/usermemory", map[string]string{"field": "", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/usermemory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var facts []core.MemoryFact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &facts))
	require.Len(t, facts, 1)
	assert.Equal(t, "Ravi", facts[0].Value)
}

func uploadPDF(t *testing.T, handler http.Handler, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", filename)
	require.NoError(t, err)
	fmt.Fprint(part, "%PDF-1.4 fake content")
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestDocumentLifecycleOverHTTP(t *testing.T) {
	s, _ := newTestServer(t, &scriptedRunner{})

	rec := uploadPDF(t, s.Handler(), "manual.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []uploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, "manual.pdf", results[0].Filename)
	assert.Equal(t, 1, results[0].Chunks)

	rec = doJSON(t, s.Handler(), http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []core.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)

	rec = doJSON(t, s.Handler(), http.MethodDelete, fmt.Sprintf("/documents/%d", docs[0].ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodDelete, fmt.Sprintf("/documents/%d", docs[0].ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadChunkCountUsesConfiguredSplit(t *testing.T) {
	st := store.NewInMemoryStore()
	vectors := vectorstore.New(flatEmbedder{}, func(o *vectorstore.Options) {
		o.ChunkSize = 10
		o.ChunkOverlap = 0
	})
	text := "extracted document text for chunk counting"
	s := New(st, &scriptedRunner{}, vectors, func(o *Options) {
		o.VectorDir = t.TempDir()
		o.ExtractText = func(string) (string, error) { return text, nil }
	})

	rec := uploadPDF(t, s.Handler(), "manual.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []uploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, len(vectorstore.SplitText(text, 10, 0)), results[0].Chunks)
	assert.Greater(t, results[0].Chunks, 1)
}

func TestUploadExtractionFailureReportedPerFile(t *testing.T) {
	s, _ := newTestServer(t, &scriptedRunner{}, func(o *Options) {
		o.ExtractText = func(string) (string, error) { return "", fmt.Errorf("scanned image pdf") }
	})

	rec := uploadPDF(t, s.Handler(), "scan.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []uploadResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "No extractable text found in the PDF.", results[0].Error)
}

func TestListRemoteTools(t *testing.T) {
	catalogs := []mcp.ProviderCatalog{{
		Provider: "docs",
		Tools:    []mcp.ToolDescriptor{{Name: "search_docs", Provider: "docs"}},
	}}
	s, _ := newTestServer(t, &scriptedRunner{}, func(o *Options) {
		o.Catalogs = stubCatalogs{catalogs: catalogs}
	})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/mcp/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []mcp.ProviderCatalog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "docs", got[0].Provider)
}

func TestTelegramWebhook(t *testing.T) {
	runner := &scriptedRunner{reply: "Hello from the bot"}
	s, st := newTestServer(t, runner)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/webhook/telegram", map[string]string{
		"chat_id":      "42",
		"message_id":   "1001",
		"message":      "what about this?",
		"mention_text": "Shipping takes 3 days",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello from the bot", resp.Reply)
	assert.Equal(t, "42", resp.ChatID)
	assert.Equal(t, "1001", resp.MessageID)

	// reply context folded into the task
	assert.True(t, strings.Contains(runner.lastTask, "Shipping takes 3 days"))
	assert.True(t, strings.Contains(runner.lastTask, "what about this?"))

	session, err := st.GetSession(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Telegram 42", session.Name)
}

func TestTelegramWebhookValidation(t *testing.T) {
	s, _ := newTestServer(t, &scriptedRunner{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/webhook/telegram", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s.Handler(), http.MethodPost, "/webhook/telegram", map[string]string{"chat_id": "42"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWhatsAppWebhook(t *testing.T) {
	runner := &scriptedRunner{reply: "Sure thing"}
	s, st := newTestServer(t, runner)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/webhook/whatsapp", map[string]string{
		"chat_id":     "91900000",
		"message_id":  "7",
		"message":     "track my order",
		"sender_name": "Ravi",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp webhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Sure thing", resp.Reply)

	session, err := st.GetSession(context.Background(), "91900000")
	require.NoError(t, err)
	assert.Equal(t, "WhatsApp Ravi", session.Name)
}
