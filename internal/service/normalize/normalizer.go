package normalize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
)

const normalizedName = "input.wav"

// Normalizer turns an uploaded blob into a capped, mono, fixed-rate waveform inside scratch storage.
type Normalizer struct {
	cfg        config.AudioConfig
	transcoder Transcoder
}

// New creates a Normalizer using transcoder for format conversion.
func New(cfg config.AudioConfig, transcoder Transcoder) *Normalizer {
	return &Normalizer{cfg: cfg, transcoder: transcoder}
}

// SanitizeFilename validates the uploaded filename and reduces it to a base name safe to
// place inside scratch storage.
func SanitizeFilename(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrMissingFilename
	}
	base := filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	switch base {
	case ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	if base == normalizedName {
		// 避免原始文件与转码输出同名
		base = "upload-" + base
	}
	return base, nil
}

// Normalize persists data under scratch, transcodes it, and enforces the duration cap.
// Transcoder failures come back as *TranscodeError; anything after that is an
// audio-processing failure.
func (n *Normalizer) Normalize(ctx context.Context, scratch *Scratch, filename string, data io.Reader) (therapy.Waveform, error) {
	base, err := SanitizeFilename(filename)
	if err != nil {
		return therapy.Waveform{}, err
	}

	rawPath := scratch.Path(base)
	if err := writeFile(rawPath, data); err != nil {
		return therapy.Waveform{}, fmt.Errorf("persist upload: %w", err)
	}

	wavPath := scratch.Path(normalizedName)
	if err := n.transcoder.Transcode(ctx, rawPath, wavPath, n.cfg.SampleRate, n.cfg.Channels); err != nil {
		return therapy.Waveform{}, err
	}

	return n.capDuration(wavPath)
}

func (n *Normalizer) capDuration(path string) (therapy.Waveform, error) {
	pcm, err := ReadWAV(path)
	if err != nil {
		return therapy.Waveform{}, err
	}
	if pcm.SampleRate != n.cfg.SampleRate {
		return therapy.Waveform{}, fmt.Errorf("unexpected sample rate %d, want %d", pcm.SampleRate, n.cfg.SampleRate)
	}
	if pcm.Channels != n.cfg.Channels {
		return therapy.Waveform{}, fmt.Errorf("unexpected channel count %d, want %d", pcm.Channels, n.cfg.Channels)
	}

	truncated := pcm.Truncate(n.cfg.MaxSamples())
	if truncated {
		if err := WriteWAV(path, pcm); err != nil {
			return therapy.Waveform{}, fmt.Errorf("rewrite truncated wav: %w", err)
		}
	}

	return therapy.Waveform{
		Path:       path,
		SampleRate: pcm.SampleRate,
		Channels:   pcm.Channels,
		Samples:    pcm.Frames(),
		Truncated:  truncated,
	}, nil
}

func writeFile(path string, data io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
