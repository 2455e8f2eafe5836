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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
	"github.com/zhouzirui/fluency-coach/backend/internal/handler"
	"github.com/zhouzirui/fluency-coach/backend/internal/logging"
	"github.com/zhouzirui/fluency-coach/backend/internal/metrics"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/ai"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/detection"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/normalize"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// 凭证缺失不阻止启动，请求到达生成阶段时再报错
	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		logger.Fatal("failed to initialize generation service", zap.Error(err))
	}
	if cfg.AI.Enabled() {
		logger.Info("generation service initialized", zap.String("provider", cfg.AI.Provider))
	} else {
		logger.Warn("generation credentials missing, /api/process will fail at the generate stage",
			zap.String("provider", cfg.AI.Provider),
			zap.String("missing", cfg.AI.MissingCredential()),
		)
	}

	detector := detection.New(cfg.Detection)
	if detector.Degraded() {
		logger.Warn("DETECTOR_URL not set, detection runs in degraded mode")
	} else {
		logger.Info("detection backend configured", zap.String("url", cfg.Detection.URL))
	}

	transcoder := normalize.NewFFmpeg(cfg.Audio.FFmpegPath)
	svc := pipeline.New(cfg.Audio, transcoder, detector, generator, m, logger)

	router := handler.NewRouter(svc, cfg.Limits, reg, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("fluency coach backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
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
