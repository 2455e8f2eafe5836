package detection

import (
	"context"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
)

// Detector runs dysfluency detection over a normalized waveform file.
// Events are returned in detection order.
type Detector interface {
	Detect(ctx context.Context, wavPath string) ([]therapy.DysfluencyEvent, error)
	// Degraded reports whether results are synthetic rather than model output.
	Degraded() bool
}

// New picks the detector variant for cfg.
func New(cfg config.DetectionConfig) Detector {
	if !cfg.Configured() {
		return Unconfigured{}
	}
	return NewRemote(cfg.URL, cfg.Timeout)
}

// Unconfigured stands in for a missing detection model. It never fails and
// always reports a single setup-incomplete event.
type Unconfigured struct{}

const setupNote = "Dysfluency detection model is not configured. Set DETECTOR_URL to an inference service exposing POST /detect."

func (Unconfigured) Detect(context.Context, string) ([]therapy.DysfluencyEvent, error) {
	return []therapy.DysfluencyEvent{{
		Label:      therapy.DegradedLabel,
		Start:      0,
		End:        0,
		Confidence: therapy.Confidence(0),
		Note:       setupNote,
	}}, nil
}

func (Unconfigured) Degraded() bool { return true }
