package vision

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chikara-ai/backend/internal/media"
	"github.com/chikara-ai/backend/internal/model/chat"
	aiService "github.com/chikara-ai/backend/internal/service/ai"
	chatService "github.com/chikara-ai/backend/internal/service/chat"
	"github.com/chikara-ai/backend/pkg/utils"
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// Response 图片分析结果
type Response struct {
	SessionID string `json:"sessionId"`
	Filename  string `json:"filename"`
	MIMEType  string `json:"mimeType"`
	Mood      string `json:"mood"`
	Summary   string `json:"summary"`
}

// Handler 处理处方/笔记图片上传
type Handler struct {
	aiSvc    *aiService.Service
	chatSvc  *chatService.Service
	maxBytes int64
}

// New 创建图片处理器，maxBytes 为单张图片的大小上限
func New(aiSvc *aiService.Service, chatSvc *chatService.Service, maxBytes int64) *Handler {
	return &Handler{aiSvc: aiSvc, chatSvc: chatSvc, maxBytes: maxBytes}
}

// RegisterRoutes 注册图片分析路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/vision/{sessionID}", h.handleAnalyze)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.aiSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "vision model unavailable")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 预留 1MB 给其它表单字段
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "image too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		utils.RespondError(w, http.StatusUnsupportedMediaType, "only jpg, jpeg and png images are supported")
		return
	}

	img, err := media.ReadImage(file, filename, h.maxBytes)
	if err != nil {
		if errors.Is(err, media.ErrImageTooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	caption := strings.TrimSpace(r.FormValue("caption"))
	if _, err := h.chatSvc.SaveMessage(r.Context(), chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderUser,
		Content:   uploadNote(filename, caption),
	}); err != nil {
		log.Printf("[vision] failed to save upload note session=%s: %v", sessionID, err)
	}

	analysis, err := h.aiSvc.AnalyzeImage(r.Context(), img, caption)
	if err != nil {
		log.Printf("[vision] analysis failed session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusBadGateway, "image analysis failed")
		return
	}

	if _, err := h.chatSvc.SaveMessage(r.Context(), chat.Message{
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   analysis.Summary,
		Mood:      string(analysis.Mood),
	}); err != nil {
		log.Printf("[vision] failed to save analysis session=%s: %v", sessionID, err)
	}

	utils.RespondJSON(w, http.StatusOK, Response{
		SessionID: sessionID,
		Filename:  filename,
		MIMEType:  img.MIMEType,
		Mood:      string(analysis.Mood),
		Summary:   analysis.Summary,
	})
}

func uploadNote(filename, caption string) string {
	if caption == "" {
		return "Uploaded: " + filename
	}
	return fmt.Sprintf("Uploaded: %s (%s)", filename, caption)
}
