package pipeline

import (
	"errors"
	"fmt"

	"github.com/zhouzirui/fluency-coach/backend/internal/service/ai"
	"github.com/zhouzirui/fluency-coach/backend/internal/service/normalize"
)

// Kind classifies where and why a request failed.
type Kind string

const (
	KindNone            Kind = ""
	KindClientInput     Kind = "client_input"
	KindTranscoding     Kind = "transcoding"
	KindAudioProcessing Kind = "audio_processing"
	KindDetection       Kind = "detection"
	KindConfiguration   Kind = "configuration"
	KindGeneration      Kind = "generation"
)

// Error is the single classified failure returned by Pipeline.Process.
// Message is safe to show to the caller and embeds the upstream diagnostic.
type Error struct {
	Kind    Kind
	Stage   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClientError reports whether the failure is the caller's fault.
func (e *Error) ClientError() bool {
	return e.Kind == KindClientInput
}

// KindOf returns the classification of err, or KindNone when err is not a pipeline error.
func KindOf(err error) Kind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	return KindNone
}

func classifyNormalize(err error) *Error {
	if errors.Is(err, normalize.ErrMissingFilename) {
		return &Error{Kind: KindClientInput, Stage: StageNormalize, Message: "Missing audio file", Err: err}
	}
	if errors.Is(err, normalize.ErrInvalidFilename) {
		return &Error{Kind: KindClientInput, Stage: StageNormalize, Message: "Invalid audio filename", Err: err}
	}

	var tErr *normalize.TranscodeError
	if errors.As(err, &tErr) {
		return &Error{Kind: KindTranscoding, Stage: StageNormalize, Message: tErr.Error(), Err: err}
	}
	return &Error{Kind: KindAudioProcessing, Stage: StageNormalize, Message: fmt.Sprintf("Audio load failed: %v", err), Err: err}
}

func classifyDetection(err error) *Error {
	return &Error{Kind: KindDetection, Stage: StageDetect, Message: fmt.Sprintf("Dysfluency detection failed: %v", err), Err: err}
}

func classifyGeneration(err error) *Error {
	if errors.Is(err, ai.ErrMissingCredential) {
		return &Error{Kind: KindConfiguration, Stage: StageGenerate, Message: fmt.Sprintf("Generation not configured: %v", err), Err: err}
	}
	return &Error{Kind: KindGeneration, Stage: StageGenerate, Message: fmt.Sprintf("Generation call failed: %v", err), Err: err}
}
