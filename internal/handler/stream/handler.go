package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chikara-ai/backend/internal/model/chat"
	chatService "github.com/chikara-ai/backend/internal/service/chat"
	"github.com/chikara-ai/backend/internal/service/conversation"
	moodservice "github.com/chikara-ai/backend/internal/service/mood"
	speechservice "github.com/chikara-ai/backend/internal/service/speech"
	"github.com/chikara-ai/backend/pkg/utils"
)

// Handler manages streaming AI responses via Server-Sent Events
type Handler struct {
	conversations *conversation.Service
}

// New creates a new stream handler
func New(conversations *conversation.Service) *Handler {
	return &Handler{conversations: conversations}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string                   `json:"event"`
	Content   string                   `json:"content,omitempty"`
	SessionID string                   `json:"sessionId,omitempty"`
	Mood      *moodservice.Guidance    `json:"mood,omitempty"`
	Speech    *speechservice.Utterance `json:"speech,omitempty"`
	Finished  bool                     `json:"finished,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// RegisterRoutes 注册 SSE 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	userMessage := r.URL.Query().Get("message")
	speak, _ := strconv.ParseBool(r.URL.Query().Get("speak"))

	if !h.conversations.Available() {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai streaming unavailable")
		return
	}
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	// 会话不存在时在建立 SSE 之前直接返回 404
	if _, _, err := h.conversations.Resolve(r.Context(), sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, conversation.ErrPersonaNotFound) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, userMessage, speak); err != nil {
		log.Printf("[stream] error handling request: %v", err)
	}
}

// HandleStreamRequest processes streaming AI responses for a chat session
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string, speak bool) error {
	_, p, err := h.conversations.Resolve(ctx, sessionID)
	if err != nil {
		return err
	}

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		return err
	}

	h.send(sse, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Content:   fmt.Sprintf("%s is typing...", p.Name),
	})

	turn, err := h.conversations.Reply(ctx, sessionID, userMessage, speak, conversation.Callbacks{
		OnUser: func(_ chat.Message, guidance moodservice.Guidance) {
			h.send(sse, StreamResponse{Event: "mood", SessionID: sessionID, Mood: &guidance})
		},
		OnDelta: func(text string) {
			h.send(sse, StreamResponse{Event: "delta", SessionID: sessionID, Content: text})
		},
	})
	if err != nil {
		h.send(sse, StreamResponse{Event: "error", SessionID: sessionID, Error: fmt.Sprintf("AI generation failed: %v", err)})
		return err
	}

	h.send(sse, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   turn.Assistant.Content,
	})

	if turn.Speech != nil {
		h.send(sse, StreamResponse{Event: "speech", SessionID: sessionID, Speech: turn.Speech})
	}

	h.send(sse, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s, persona=%s, mood=%s", sessionID, p.ID, turn.Guidance.Mood)
	return nil
}

func (h *Handler) send(sse *utils.SSEWriter, response StreamResponse) {
	if err := sse.Send(response); err != nil {
		log.Printf("[stream] %v", err)
	}
}
