package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/handler/advice"
	"github.com/chikara-ai/backend/internal/handler/chat"
	moodHandler "github.com/chikara-ai/backend/internal/handler/mood"
	"github.com/chikara-ai/backend/internal/handler/persona"
	"github.com/chikara-ai/backend/internal/handler/speech"
	"github.com/chikara-ai/backend/internal/handler/stream"
	"github.com/chikara-ai/backend/internal/handler/vision"
	"github.com/chikara-ai/backend/internal/handler/voice"
	middlewarePkg "github.com/chikara-ai/backend/internal/middleware"
	personaModel "github.com/chikara-ai/backend/internal/model/persona"
	aiService "github.com/chikara-ai/backend/internal/service/ai"
	chatService "github.com/chikara-ai/backend/internal/service/chat"
	"github.com/chikara-ai/backend/internal/service/conversation"
	moodService "github.com/chikara-ai/backend/internal/service/mood"
	speechService "github.com/chikara-ai/backend/internal/service/speech"
)

// Deps collects the services the HTTP layer depends on. AI may be nil.
type Deps struct {
	Config   *config.Config
	Personas personaModel.Store
	Chat     *chatService.Service
	AI       *aiService.Service
	Mood     *moodService.Service
	Speech   *speechService.Service
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.Config.Server.AllowedOrigins))

	conversations := conversation.NewService(deps.Chat, deps.Personas, deps.AI, deps.Mood, deps.Speech)

	r.Route("/api", func(api chi.Router) {
		persona.New(deps.Personas).RegisterRoutes(api)
		chat.New(deps.Chat, deps.Personas).RegisterRoutes(api)
		moodHandler.New(deps.Mood).RegisterRoutes(api)
		speech.New(deps.Speech, deps.Config.Speech).RegisterRoutes(api)

		// 未配置模型时这些处理器自行返回 503
		stream.New(conversations).RegisterRoutes(api)
		voice.NewWebSocketHandler(conversations).RegisterRoutes(api)
		advice.New(deps.AI, deps.Chat).RegisterRoutes(api)
		vision.New(deps.AI, deps.Chat, deps.Config.Server.MaxUploadBytes).RegisterRoutes(api)
	})

	return r
}
