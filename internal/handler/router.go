package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
	"github.com/zhouzirui/fluency-coach/backend/internal/handler/therapy"
	middlewarePkg "github.com/zhouzirui/fluency-coach/backend/internal/middleware"
	"github.com/zhouzirui/fluency-coach/backend/pkg/utils"
)

// NewRouter wires HTTP routes to the therapy pipeline.
func NewRouter(therapySvc therapy.ProcessService, limits config.LimitsConfig, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(middlewarePkg.DevOrigins))

	r.Get("/health", handleHealth)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	therapyHandler := therapy.New(therapySvc, limits.MaxUploadBytes, logger)
	r.Route("/api", func(api chi.Router) {
		therapyHandler.RegisterRoutes(api, limits.RateLimitPerMinute)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
