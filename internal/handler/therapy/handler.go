package therapy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	model "github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/pipeline"
	"github.com/zhouzirui/fluency-coach/backend/pkg/utils"
)

// 上传表单中的音频字段名
const audioField = "audio"

// ProcessService 抽象治疗流水线，便于测试与替换实现
type ProcessService interface {
	Process(ctx context.Context, upload pipeline.Upload) (*model.Response, error)
}

// Handler 处理录音上传并返回练习建议
type Handler struct {
	svc            ProcessService
	maxUploadBytes int64
	logger         *zap.Logger
}

// New 创建处理器
func New(svc ProcessService, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes 注册 /process 路由，rateLimit > 0 时按客户端 IP 限流。
func (h *Handler) RegisterRoutes(r chi.Router, rateLimit int) {
	r.Group(func(g chi.Router) {
		if rateLimit > 0 {
			g.Use(httprate.Limit(
				rateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					utils.RespondError(w, http.StatusTooManyRequests, "Too many requests")
				}),
			))
		}
		g.Post("/process", h.handleProcess)
	})
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "Missing audio file")
		return
	}

	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile(audioField)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Missing audio file")
		return
	}
	defer file.Close()

	resp, err := h.svc.Process(r.Context(), pipeline.Upload{
		RequestID: middleware.GetReqID(r.Context()),
		Filename:  header.Filename,
		Data:      file,
	})
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	var pErr *pipeline.Error
	if !errors.As(err, &pErr) {
		h.logger.Error("[therapy] unclassified pipeline error", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusInternalServerError
	if pErr.ClientError() {
		status = http.StatusBadRequest
	}
	utils.RespondError(w, status, pErr.Message)
}
