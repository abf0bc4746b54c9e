package voice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/model/persona"
	"github.com/chikara-ai/backend/internal/models/modeltest"
	aiservice "github.com/chikara-ai/backend/internal/service/ai"
	chatservice "github.com/chikara-ai/backend/internal/service/chat"
	"github.com/chikara-ai/backend/internal/service/conversation"
	moodservice "github.com/chikara-ai/backend/internal/service/mood"
	speechservice "github.com/chikara-ai/backend/internal/service/speech"
)

func boolPtr(v bool) *bool { return &v }

func TestApplyConfigUpdatesState(t *testing.T) {
	state := &connectionState{sessionID: "session", speak: true}

	applyConfig(state, ConfigMessage{})
	if !state.speak {
		t.Fatal("empty config must keep speak enabled")
	}

	applyConfig(state, ConfigMessage{Speak: boolPtr(false)})
	if state.speak {
		t.Fatal("expected speak disabled")
	}
}

func newServer(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	ctx := context.Background()
	store := persona.NewMemoryStore(persona.Seed())
	chatSvc := chatservice.NewService()

	fake := &modeltest.ChatModel{Chunks: []string{"Chin up, ", "you've got this! 💪"}}
	aiSvc, err := aiservice.NewServiceWithModels(ctx, fake, nil, config.AIConfig{StreamResponse: true})
	if err != nil {
		t.Fatalf("NewServiceWithModels err: %v", err)
	}
	moodSvc, _ := moodservice.NewService(ctx, nil, moodservice.Config{})
	speechSvc := speechservice.NewService(config.SpeechConfig{Pitch: 0.9, Rate: 0.85})

	r := chi.NewRouter()
	NewWebSocketHandler(conversation.NewService(chatSvc, store, aiSvc, moodSvc, speechSvc)).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, chatSvc
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/voice/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, final string) []outgoingMessage {
	t.Helper()
	var got []outgoingMessage
	for {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg outgoingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read err after %v: %v", got, err)
		}
		got = append(got, msg)
		if msg.Type == final || msg.Type == "error" {
			return got
		}
	}
}

func types(msgs []outgoingMessage) string {
	kinds := make([]string, 0, len(msgs))
	for _, m := range msgs {
		kinds = append(kinds, m.Type)
	}
	return strings.Join(kinds, ",")
}

func TestTranscriptRoundTrip(t *testing.T) {
	server, chatSvc := newServer(t)
	session, _ := chatSvc.CreateSession(context.Background(), persona.DefaultID)
	conn := dial(t, server, session.ID)

	if err := conn.WriteJSON(map[string]any{"type": "transcript", "data": map[string]string{"text": "I am stressed about exams"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	msgs := readUntil(t, conn, "speech")
	if got := types(msgs); got != "user,mood,ai_delta,ai_delta,ai,speech" {
		t.Fatalf("unexpected message sequence %s", got)
	}

	mood, _ := msgs[1].Data.(map[string]any)
	if mood["mood"] != "sad" || mood["humor"] != "encouragement" {
		t.Fatalf("unexpected mood payload: %v", msgs[1].Data)
	}
	speech, _ := msgs[5].Data.(map[string]any)
	if text, _ := speech["text"].(string); strings.Contains(text, "💪") || speech["language"] != "en-US" {
		t.Fatalf("unexpected speech payload: %v", speech)
	}

	transcript, _ := chatSvc.LoadTranscript(context.Background(), session.ID)
	if len(transcript) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(transcript))
	}
}

func TestConfigDisablesSpeech(t *testing.T) {
	server, chatSvc := newServer(t)
	session, _ := chatSvc.CreateSession(context.Background(), persona.DefaultID)
	conn := dial(t, server, session.ID)

	_ = conn.WriteJSON(map[string]any{"type": "config", "data": map[string]any{"speak": false}})
	if msgs := readUntil(t, conn, "config"); types(msgs) != "config" {
		t.Fatalf("unexpected ack %s", types(msgs))
	}

	_ = conn.WriteJSON(map[string]any{"type": "transcript", "data": map[string]string{"text": "hello"}})
	if got := types(readUntil(t, conn, "ai")); got != "user,mood,ai_delta,ai_delta,ai" {
		t.Fatalf("unexpected message sequence %s", got)
	}
}

func TestRejectsUnknownTypeAndMismatch(t *testing.T) {
	server, chatSvc := newServer(t)
	session, _ := chatSvc.CreateSession(context.Background(), persona.DefaultID)
	conn := dial(t, server, session.ID)

	_ = conn.WriteJSON(map[string]any{"type": "audio"})
	if msgs := readUntil(t, conn, "error"); msgs[0].Type != "error" {
		t.Fatalf("expected error, got %s", types(msgs))
	}

	_ = conn.WriteJSON(map[string]any{"type": "transcript", "sessionId": "other", "data": map[string]string{"text": "hi"}})
	if msgs := readUntil(t, conn, "error"); msgs[0].Type != "error" {
		t.Fatalf("expected error, got %s", types(msgs))
	}
}

func TestUnknownSessionRejectedBeforeUpgrade(t *testing.T) {
	server, _ := newServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/voice/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}
