package speech

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chikara-ai/backend/internal/config"
	speechsvc "github.com/chikara-ai/backend/internal/service/speech"
	"github.com/chikara-ai/backend/pkg/utils"
)

// Handler 语音服务的HTTP处理器
type Handler struct {
	speechSvc *speechsvc.Service
	cfg       config.SpeechConfig
}

// New 创建语音处理器
func New(speechSvc *speechsvc.Service, cfg config.SpeechConfig) *Handler {
	return &Handler{speechSvc: speechSvc, cfg: cfg}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/utterance", h.handleUtterance)
		speechRouter.Get("/health", h.handleHealth)
	})
}

// handleUtterance 把一段回复转换为浏览器可直接朗读的脚本
func (h *Handler) handleUtterance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	utterance, err := h.speechSvc.Prepare(payload.Text)
	if err != nil {
		if errors.Is(err, speechsvc.ErrNothingToSay) {
			utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, utterance)
}

// handleHealth 健康检查
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"engine":    "browser-speech-synthesis",
		"pitch":     h.cfg.Pitch,
		"rate":      h.cfg.Rate,
		"languages": []string{"en-US", "hi-IN"},
	})
}
