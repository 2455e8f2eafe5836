package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
	"github.com/zhouzirui/fluency-coach/backend/internal/metrics"
	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/ai"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/detection"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/normalize"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/prompt"
)

// Stage names used in logs, metrics and Error.Stage.
const (
	StageNormalize = "normalize"
	StageDetect    = "detect"
	StagePrompt    = "prompt"
	StageGenerate  = "generate"
)

const outcomeSuccess = "success"

// Upload is one audio submission as received by the HTTP layer.
type Upload struct {
	RequestID string
	Filename  string
	Data      io.Reader
}

// Pipeline runs normalize -> detect -> prompt -> generate for one upload at a time.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	audio      config.AudioConfig
	normalizer *normalize.Normalizer
	detector   detection.Detector
	generator  ai.Generator
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// New wires the pipeline stages.
func New(audio config.AudioConfig, transcoder normalize.Transcoder, detector detection.Detector, generator ai.Generator, m *metrics.Metrics, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		audio:      audio,
		normalizer: normalize.New(audio, transcoder),
		detector:   detector,
		generator:  generator,
		metrics:    m,
		logger:     logger,
	}
}

// Process handles one upload. On failure the returned error is a *Error and no
// later stage has run.
func (p *Pipeline) Process(ctx context.Context, upload Upload) (*therapy.Response, error) {
	requestID := upload.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := p.logger.With(zap.String("request_id", requestID), zap.String("filename", upload.Filename))

	start := time.Now()
	resp, pErr := p.run(ctx, upload, log)
	elapsed := time.Since(start)

	if pErr != nil {
		p.metrics.ObserveRequest(string(pErr.Kind), elapsed)
		fields := []zap.Field{
			zap.String("kind", string(pErr.Kind)),
			zap.String("stage", pErr.Stage),
			zap.Duration("elapsed", elapsed),
			zap.Error(pErr.Err),
		}
		if pErr.ClientError() {
			log.Info("[pipeline] rejected upload", fields...)
		} else {
			log.Error("[pipeline] request failed", fields...)
		}
		return nil, pErr
	}

	p.metrics.ObserveRequest(outcomeSuccess, elapsed)
	log.Info("[pipeline] request completed",
		zap.Int("events", len(resp.DetectedEvents)),
		zap.Int("output_length", len(resp.TherapyOutput)),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func (p *Pipeline) run(ctx context.Context, upload Upload, log *zap.Logger) (*therapy.Response, *Error) {
	if _, err := normalize.SanitizeFilename(upload.Filename); err != nil {
		return nil, classifyNormalize(err)
	}

	scratch, err := normalize.NewScratch(p.audio.ScratchDir)
	if err != nil {
		return nil, classifyNormalize(err)
	}
	defer func() {
		if err := scratch.Close(); err != nil {
			log.Warn("[pipeline] failed to remove scratch dir", zap.String("dir", scratch.Dir()), zap.Error(err))
		}
	}()

	stageStart := time.Now()
	wave, err := p.normalizer.Normalize(ctx, scratch, upload.Filename, upload.Data)
	p.finishStage(log, StageNormalize, stageStart)
	if err != nil {
		return nil, classifyNormalize(err)
	}
	p.metrics.WaveformDuration.Observe(wave.Duration().Seconds())
	if wave.Truncated {
		p.metrics.TruncatedUploads.Inc()
		log.Debug("[pipeline] upload truncated", zap.Duration("kept", wave.Duration()))
	}

	stageStart = time.Now()
	events, err := p.detector.Detect(ctx, wave.Path)
	p.finishStage(log, StageDetect, stageStart)
	if err != nil {
		return nil, classifyDetection(err)
	}
	if events == nil {
		events = []therapy.DysfluencyEvent{}
	}
	if p.detector.Degraded() {
		p.metrics.DegradedResults.Inc()
		log.Warn("[pipeline] detection model not configured, returning setup event")
	}
	for _, e := range events {
		p.metrics.EventsDetected.WithLabelValues(e.VocabularyLabel()).Inc()
	}

	stageStart = time.Now()
	promptText := prompt.Build(events)
	p.finishStage(log, StagePrompt, stageStart)

	stageStart = time.Now()
	output, err := p.generator.Generate(ctx, promptText)
	p.finishStage(log, StageGenerate, stageStart)
	if err != nil {
		return nil, classifyGeneration(err)
	}

	return &therapy.Response{
		TherapyOutput:  output,
		DetectedEvents: events,
		PromptUsed:     promptText,
	}, nil
}

func (p *Pipeline) finishStage(log *zap.Logger, stage string, start time.Time) {
	elapsed := time.Since(start)
	p.metrics.ObserveStage(stage, elapsed)
	log.Debug("[pipeline] stage finished", zap.String("stage", stage), zap.Duration("elapsed", elapsed))
}
