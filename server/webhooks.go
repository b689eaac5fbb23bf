package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type webhookRequest struct {
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id"`
	Message     string `json:"message"`
	MentionText string `json:"mention_text"`
	SenderName  string `json:"sender_name"`
}

type webhookResponse struct {
	Reply     string `json:"reply"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

// handleTelegramWebhook answers messages relayed by the Telegram bridge. A
// reply to an earlier message arrives with mention_text, which is folded into
// the task so the model sees what was replied to.
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeWebhook(w, r)
	if !ok {
		return
	}
	if req.Message == "" && req.MentionText == "" {
		respondError(w, http.StatusBadRequest, "Missing message or mention_text")
		return
	}

	task := req.Message
	if req.MentionText != "" {
		task = fmt.Sprintf("User replied to this message:\n%s\n\nUser's reply: %s",
			req.MentionText, req.Message)
	}

	s.runWebhookTask(w, r, req, fmt.Sprintf("Telegram %s", req.ChatID), task)
}

// handleWhatsAppWebhook answers messages relayed by the WhatsApp bridge.
func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeWebhook(w, r)
	if !ok {
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Missing message text")
		return
	}

	name := req.SenderName
	if name == "" {
		name = req.ChatID
	}
	s.runWebhookTask(w, r, req, fmt.Sprintf("WhatsApp %s", name), req.Message)
}

func (s *Server) decodeWebhook(w http.ResponseWriter, r *http.Request) (webhookRequest, bool) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return req, false
	}
	req.ChatID = strings.TrimSpace(req.ChatID)
	req.MessageID = strings.TrimSpace(req.MessageID)
	req.Message = strings.TrimSpace(req.Message)
	req.MentionText = strings.TrimSpace(req.MentionText)
	req.SenderName = strings.TrimSpace(req.SenderName)

	if req.ChatID == "" {
		respondError(w, http.StatusBadRequest, "Missing chat_id")
		return req, false
	}
	return req, true
}

// runWebhookTask guarantees the chat's session exists, runs the agent and
// returns the bridge response envelope.
func (s *Server) runWebhookTask(w http.ResponseWriter, r *http.Request, req webhookRequest, sessionName, task string) {
	if _, err := s.store.EnsureSession(r.Context(), req.ChatID, sessionName); err != nil {
		s.opts.Logger.Error("webhook session failed", "chat_id", req.ChatID, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	reply := s.agent.StartTask(r.Context(), req.ChatID, task)

	respondJSON(w, http.StatusOK, webhookResponse{
		Reply:     reply,
		ChatID:    req.ChatID,
		MessageID: req.MessageID,
	})
}
