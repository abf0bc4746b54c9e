package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/chikara-ai/backend/internal/config"
	"github.com/chikara-ai/backend/internal/handler"
	"github.com/chikara-ai/backend/internal/model/persona"
	"github.com/chikara-ai/backend/internal/service/ai"
	"github.com/chikara-ai/backend/internal/service/chat"
	moodservice "github.com/chikara-ai/backend/internal/service/mood"
	"github.com/chikara-ai/backend/internal/service/speech"
	"github.com/chikara-ai/backend/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	chatService := chat.NewService()
	if path := cfg.Storage.DatabasePath; path != "" {
		repo, err := sqlite.Open(path)
		if err != nil {
			log.Fatalf("failed to open chat database: %v", err)
		}
		defer repo.Close()
		chatService = chat.NewServiceWithRepository(repo)
		log.Printf("chat history persisted to %s", path)
	} else {
		log.Println("CHAT_DB_PATH not set, chat history kept in memory")
	}

	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality")
		} else {
			log.Printf("AI service initialized (provider=%s, model=%s)", cfg.AI.Provider, cfg.AI.ChatModel)
		}
	} else {
		log.Println("model credentials not configured, skipping AI initialization")
	}

	moodCfg := moodservice.Config{
		Enabled:      cfg.AI.MoodLLMEnabled,
		HistoryLimit: cfg.AI.MoodHistory,
	}
	var moodModel model.BaseChatModel
	if aiService != nil {
		moodModel = aiService.ChatModel()
	}
	moodService, err := moodservice.NewService(ctx, moodModel, moodCfg)
	if err != nil {
		log.Printf("warning: failed to initialize mood classifier, using keywords: %v", err)
		moodService, _ = moodservice.NewService(ctx, nil, moodservice.Config{})
	} else if moodService.Enabled() {
		log.Println("mood classifier model enabled")
	} else {
		log.Println("mood classifier using keyword rules")
	}

	router := handler.NewRouter(handler.Deps{
		Config:   cfg,
		Personas: personaStore,
		Chat:     chatService,
		AI:       aiService,
		Mood:     moodService,
		Speech:   speech.NewService(cfg.Speech),
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Dr. Chikara backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
