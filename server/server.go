// Package server exposes the chatbot over HTTP: session and message CRUD, the
// ask endpoint driving the agent, user memory management, document upload for
// retrieval, remote tool inspection and messaging-platform webhooks.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/VRUSHIL1/shop-chatbot-v2/logging"
	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
	"github.com/VRUSHIL1/shop-chatbot-v2/vectorstore"
)

// TaskRunner runs one agent task to completion. Implemented by *agent.Agent.
type TaskRunner interface {
	StartTask(ctx context.Context, sessionID, task string) string
}

// CatalogSource lists remote provider catalogs. Implemented by *mcp.Gateway.
type CatalogSource interface {
	AllTools(ctx context.Context) []mcp.ProviderCatalog
}

// Options configure optional server collaborators.
type Options struct {
	// Catalogs backs GET /mcp/tools. Nil yields empty catalogs.
	Catalogs CatalogSource
	// ExtractText converts an uploaded PDF to plain text. Defaults to
	// vectorstore.ExtractPDFText; tests substitute a fake.
	ExtractText func(path string) (string, error)
	// VectorDir is where document indexes are written.
	VectorDir string
	Logger    logging.Logger
}

// Server wires the HTTP routes to the store, the agent and the vector layer.
type Server struct {
	store   store.Store
	agent   TaskRunner
	vectors *vectorstore.Store
	opts    Options
	router  chi.Router
}

// New builds the Server and its route tree.
func New(st store.Store, runner TaskRunner, vectors *vectorstore.Store, optFns ...func(o *Options)) *Server {
	opts := Options{
		ExtractText: vectorstore.ExtractPDFText,
		VectorDir:   "vector_db",
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		store:   st,
		agent:   runner,
		vectors: vectors,
		opts:    opts,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Get("/{sessionID}/messages", s.handleListMessages)
	})

	r.Post("/ask/{sessionID}", s.handleAsk)

	r.Route("/usermemory", func(r chi.Router) {
		r.Get("/", s.handleListMemory)
		r.Post("/", s.handleSaveMemory)
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/upload", s.handleUploadDocuments)
		r.Get("/", s.handleListDocuments)
		r.Delete("/{documentID}", s.handleDeleteDocument)
	})

	r.Get("/mcp/tools", s.handleListRemoteTools)

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/telegram", s.handleTelegramWebhook)
		r.Post("/whatsapp", s.handleWhatsAppWebhook)
	})

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
