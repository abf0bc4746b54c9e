package advice

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chikara-ai/backend/internal/model/chat"
	aiService "github.com/chikara-ai/backend/internal/service/ai"
	chatService "github.com/chikara-ai/backend/internal/service/chat"
	"github.com/chikara-ai/backend/pkg/utils"
)

// Handler 处理症状、药物、健康小贴士与励志语录等一次性请求
type Handler struct {
	aiSvc   *aiService.Service
	chatSvc *chatService.Service
}

// New 创建 advice 处理器
func New(aiSvc *aiService.Service, chatSvc *chatService.Service) *Handler {
	return &Handler{aiSvc: aiSvc, chatSvc: chatSvc}
}

// RegisterRoutes 注册 advice 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/advice/{kind}", h.handleAdvice)
}

func (h *Handler) handleAdvice(w http.ResponseWriter, r *http.Request) {
	kind, err := aiService.ParseAdviceKind(chi.URLParam(r, "kind"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	if h.aiSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "ai service unavailable")
		return
	}

	var payload struct {
		SessionID string `json:"sessionId"`
		Subject   string `json:"subject"`
	}
	// 健康小贴士与励志语录允许空请求体
	if err := utils.DecodeJSON(r, &payload, true); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.SessionID != "" {
		if _, err := h.chatSvc.GetSession(r.Context(), payload.SessionID); err != nil {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
	}

	result, err := h.aiSvc.Advise(r.Context(), kind, payload.Subject)
	if err != nil {
		switch {
		case errors.Is(err, aiService.ErrSubjectRequired):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("[advice] %s failed: %v", kind, err)
			utils.RespondError(w, http.StatusBadGateway, "advice generation failed")
		}
		return
	}

	if payload.SessionID != "" {
		h.record(r, payload.SessionID, result)
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) record(r *http.Request, sessionID string, result *aiService.Advice) {
	request := string(result.Kind)
	if result.Subject != "" {
		request = fmt.Sprintf("%s: %s", result.Kind, result.Subject)
	}

	messages := []chat.Message{
		{SessionID: sessionID, Sender: chat.SenderUser, Content: strings.TrimSpace(request), Mood: string(result.Mood)},
		{SessionID: sessionID, Sender: chat.SenderAssistant, Content: result.Reply, Mood: string(result.Mood)},
	}
	for _, msg := range messages {
		if _, err := h.chatSvc.SaveMessage(r.Context(), msg); err != nil {
			log.Printf("[advice] failed to record message session=%s: %v", sessionID, err)
		}
	}
}
