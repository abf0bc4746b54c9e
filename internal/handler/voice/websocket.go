package voice

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/chikara-ai/backend/internal/model/chat"
	chatservice "github.com/chikara-ai/backend/internal/service/chat"
	"github.com/chikara-ai/backend/internal/service/conversation"
	moodservice "github.com/chikara-ai/backend/internal/service/mood"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler 接收浏览器识别好的语音文本并推送回复
type WebSocketHandler struct {
	conversations *conversation.Service
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(conversations *conversation.Service) *WebSocketHandler {
	return &WebSocketHandler{
		conversations: conversations,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/voice/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// TranscriptMessage 浏览器端语音识别结果
type TranscriptMessage struct {
	Text string `json:"text"`
}

// ConfigMessage 连接级配置
type ConfigMessage struct {
	Speak *bool `json:"speak,omitempty"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type connectionState struct {
	sessionID string
	speak     bool
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if !h.conversations.Available() {
		http.Error(w, "voice chat unavailable", http.StatusServiceUnavailable)
		return
	}

	if _, _, err := h.conversations.Resolve(r.Context(), sessionID); err != nil {
		if errors.Is(err, chatservice.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[voice] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[voice] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	state := &connectionState{sessionID: sessionID, speak: true}
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[voice] read error: %v", err)
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, sessionID, "session mismatch")
			continue
		}

		h.handleMessage(ctx, conn, state, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "transcript":
		h.handleTranscript(ctx, conn, state, msg.Data)
	case "config":
		h.handleConfig(conn, state, msg.Data)
	default:
		h.sendError(conn, state.sessionID, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleTranscript(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var transcript TranscriptMessage
	if err := json.Unmarshal(raw, &transcript); err != nil {
		h.sendError(conn, state.sessionID, "invalid transcript payload")
		return
	}
	if transcript.Text == "" {
		return
	}

	turn, err := h.conversations.Reply(ctx, state.sessionID, transcript.Text, state.speak, conversation.Callbacks{
		OnUser: func(user chat.Message, guidance moodservice.Guidance) {
			h.send(conn, state.sessionID, "user", map[string]any{"text": user.Content})
			h.send(conn, state.sessionID, "mood", guidance)
		},
		OnDelta: func(text string) {
			h.send(conn, state.sessionID, "ai_delta", map[string]any{"text": text})
		},
	})
	if err != nil {
		log.Printf("[voice] reply failed session=%s: %v", state.sessionID, err)
		h.sendError(conn, state.sessionID, err.Error())
		return
	}

	h.send(conn, state.sessionID, "ai", map[string]any{
		"text":    turn.Assistant.Content,
		"isFinal": true,
	})
	if turn.Speech != nil {
		h.send(conn, state.sessionID, "speech", turn.Speech)
	}
}

func (h *WebSocketHandler) handleConfig(conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendError(conn, state.sessionID, "invalid config payload")
		return
	}

	applyConfig(state, cfg)
	log.Printf("[voice] config applied session=%s speak=%t", state.sessionID, state.speak)

	h.send(conn, state.sessionID, "config", map[string]any{"speak": state.speak})
}

func applyConfig(state *connectionState, cfg ConfigMessage) {
	if cfg.Speak != nil {
		state.speak = *cfg.Speak
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, sessionID, kind string, data any) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[voice] write %s failed: %v", kind, err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.send(conn, sessionID, "error", map[string]string{"message": message})
}

// pingLoop 定期发送ping，WriteControl 可与其它写操作并发调用
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
