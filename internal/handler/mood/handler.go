package mood

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	moodService "github.com/chikara-ai/backend/internal/service/mood"
	"github.com/chikara-ai/backend/pkg/utils"
)

// Handler 暴露情绪判断接口，便于前端在发送前预览语气
type Handler struct {
	moodSvc *moodService.Service
}

// New 创建情绪处理器，moodSvc 为 nil 时只使用关键词规则
func New(moodSvc *moodService.Service) *Handler {
	return &Handler{moodSvc: moodSvc}
}

// RegisterRoutes 注册情绪相关路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mood", h.handleClassify)
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload, false); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.moodSvc == nil {
		utils.RespondJSON(w, http.StatusOK, moodService.Fallback(payload.Text))
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.moodSvc.Guide(r.Context(), nil, nil, payload.Text))
}
