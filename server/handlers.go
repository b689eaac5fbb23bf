package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/VRUSHIL1/shop-chatbot-v2/mcp"
	"github.com/VRUSHIL1/shop-chatbot-v2/store"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.CreateSession(r.Context())
	if err != nil {
		s.opts.Logger.Error("session create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.opts.Logger.Error("session list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.store.GetSession(r.Context(), sessionID); err != nil {
		if err == store.ErrNotFound {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "could not load session")
		return
	}

	messages, err := s.store.Messages(r.Context(), sessionID)
	if err != nil {
		s.opts.Logger.Error("message list failed", "session", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, "could not list messages")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	if _, err := s.store.GetSession(r.Context(), sessionID); err != nil {
		if err == store.ErrNotFound {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "could not load session")
		return
	}

	answer := s.agent.StartTask(r.Context(), sessionID, req.Question)
	respondJSON(w, http.StatusOK, askResponse{Answer: answer})
}

type memoryRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleListMemory(w http.ResponseWriter, r *http.Request) {
	facts, err := s.store.AllMemory(r.Context())
	if err != nil {
		s.opts.Logger.Error("memory list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list memory")
		return
	}
	respondJSON(w, http.StatusOK, facts)
}

func (s *Server) handleSaveMemory(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		strings.TrimSpace(req.Field) == "" || strings.TrimSpace(req.Value) == "" {
		respondError(w, http.StatusBadRequest, "field and value are required")
		return
	}

	if err := s.store.UpsertMemory(r.Context(), req.Field, req.Value); err != nil {
		s.opts.Logger.Error("memory save failed", "field", req.Field, "error", err)
		respondError(w, http.StatusInternalServerError, "could not save memory")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved", "field": req.Field})
}

func (s *Server) handleListRemoteTools(w http.ResponseWriter, r *http.Request) {
	catalogs := []mcp.ProviderCatalog{}
	if s.opts.Catalogs != nil {
		catalogs = s.opts.Catalogs.AllTools(r.Context())
	}
	respondJSON(w, http.StatusOK, catalogs)
}
