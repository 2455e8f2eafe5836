package normalize

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
)

// Transcoder converts an arbitrary audio/video container into a mono WAV at a fixed sample rate.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, sampleRate, channels int) error
}

// FFmpeg shells out to the ffmpeg binary.
type FFmpeg struct {
	Path string
}

// NewFFmpeg returns a transcoder invoking the binary at path ("ffmpeg" when empty).
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// Args builds the fixed ffmpeg argument list.
func (f *FFmpeg) Args(src, dst string, sampleRate, channels int) []string {
	return []string{
		"-y",
		"-i", src,
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-vn",
		dst,
	}
}

// Transcode runs ffmpeg; a non-zero exit returns a *TranscodeError with the captured stderr.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string, sampleRate, channels int) error {
	cmd := exec.CommandContext(ctx, f.Path, f.Args(src, dst, sampleRate, channels)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &TranscodeError{Stderr: stderr.String(), Err: err}
	}
	return nil
}
