package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chikara-ai/backend/internal/config"
	personaModel "github.com/chikara-ai/backend/internal/model/persona"
	chatService "github.com/chikara-ai/backend/internal/service/chat"
	moodService "github.com/chikara-ai/backend/internal/service/mood"
	speechService "github.com/chikara-ai/backend/internal/service/speech"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	moodSvc, err := moodService.NewService(t.Context(), nil, moodService.Config{})
	if err != nil {
		t.Fatalf("mood service err: %v", err)
	}
	cfg := &config.Config{
		Server: config.ServerConfig{MaxUploadBytes: 1 << 20, AllowedOrigins: []string{"*"}},
		Speech: config.SpeechConfig{Pitch: 0.9, Rate: 0.85},
	}
	return NewRouter(Deps{
		Config:   cfg,
		Personas: personaModel.NewMemoryStore(personaModel.Seed()),
		Chat:     chatService.NewService(),
		Mood:     moodSvc,
		Speech:   speechService.NewService(cfg.Speech),
	})
}

func TestRouterServesWithoutAI(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/personas", "", http.StatusOK},
		{http.MethodPost, "/api/session", `{}`, http.StatusCreated},
		{http.MethodPost, "/api/mood", `{"text":"I am so happy"}`, http.StatusOK},
		{http.MethodGet, "/api/speech/health", "", http.StatusOK},
		{http.MethodGet, "/api/stream/abc?message=hi", "", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/advice/symptom", `{"subject":"fever"}`, http.StatusServiceUnavailable},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d (%s)", tc.method, tc.path, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterAppliesCORS(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/personas", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatal("expected CORS header to be set")
	}

	var personas []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &personas); err != nil {
		t.Fatalf("invalid persona payload: %v", err)
	}
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
}
