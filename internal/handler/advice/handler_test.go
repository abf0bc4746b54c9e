package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/model/persona"
	"github.com/chikara-ai/backend/internal/models/modeltest"
	aiservice "github.com/chikara-ai/backend/internal/service/ai"
	chatservice "github.com/chikara-ai/backend/internal/service/chat"
)

func setup(t *testing.T, fake *modeltest.ChatModel) (*chi.Mux, *chatservice.Service) {
	t.Helper()
	chatSvc := chatservice.NewService()
	aiSvc, err := aiservice.NewServiceWithModels(context.Background(), fake, nil, config.AIConfig{})
	if err != nil {
		t.Fatalf("NewServiceWithModels err: %v", err)
	}

	r := chi.NewRouter()
	New(aiSvc, chatSvc).RegisterRoutes(r)
	return r, chatSvc
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSymptomAdvice(t *testing.T) {
	fake := &modeltest.ChatModel{Reply: "Rest, fluids, and fewer late nights."}
	r, _ := setup(t, fake)

	resp := post(r, "/advice/symptom", `{"subject":"headache from exam stress"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var got aiservice.Advice
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if got.Kind != aiservice.AdviceSymptom || got.Mood != "sad" || got.Reply != fake.Reply {
		t.Fatalf("unexpected advice: %+v", got)
	}

	prompt := fake.LastInput()[0].Content
	if prompt != "Give general advice for: headache from exam stress (no diagnosis). Add humour based on mood: sad." {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestHealthTipAllowsEmptyBody(t *testing.T) {
	r, _ := setup(t, &modeltest.ChatModel{Reply: "Sleep counts as studying."})

	req := httptest.NewRequest(http.MethodPost, "/advice/health-tip", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdviceRecordsIntoSession(t *testing.T) {
	r, chatSvc := setup(t, &modeltest.ChatModel{Reply: "Ibuprofen: take with food."})
	session, _ := chatSvc.CreateSession(context.Background(), persona.DefaultID)

	resp := post(r, "/advice/medicine", `{"sessionId":"`+session.ID+`","subject":"Ibuprofen"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	transcript, _ := chatSvc.LoadTranscript(context.Background(), session.ID)
	if len(transcript) != 2 || transcript[0].Content != "medicine: Ibuprofen" || transcript[1].Content != "Ibuprofen: take with food." {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
}

func TestAdviceErrors(t *testing.T) {
	r, _ := setup(t, &modeltest.ChatModel{Reply: "ok"})

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown kind", "/advice/horoscope", `{}`, http.StatusNotFound},
		{"missing subject", "/advice/medicine", `{"subject":"  "}`, http.StatusBadRequest},
		{"bad json", "/advice/symptom", `{`, http.StatusBadRequest},
		{"unknown session", "/advice/motivation", `{"sessionId":"missing"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		if resp := post(r, tc.path, tc.body); resp.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, resp.Code)
		}
	}
}

func TestAdviceModelFailure(t *testing.T) {
	r, _ := setup(t, &modeltest.ChatModel{Err: errors.New("rate limited")})

	if resp := post(r, "/advice/motivation", `{}`); resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
