package normalize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/fluency-coach/backend/internal/config"
)

func audioConfig() config.AudioConfig {
	return config.AudioConfig{
		MaxSeconds: config.MaxSeconds,
		SampleRate: config.TargetSampleRate,
		Channels:   config.TargetChannels,
	}
}

// fakeTranscoder writes a synthetic WAV of the configured length instead of running ffmpeg.
type fakeTranscoder struct {
	seconds    float64
	sampleRate int
	channels   int
	err        error

	calls  int
	gotSrc string
}

func (f *fakeTranscoder) Transcode(_ context.Context, src, dst string, sampleRate, channels int) error {
	f.calls++
	f.gotSrc = src
	if f.err != nil {
		return f.err
	}
	rate := f.sampleRate
	if rate == 0 {
		rate = sampleRate
	}
	chans := f.channels
	if chans == 0 {
		chans = channels
	}
	return WriteWAV(dst, tone(f.seconds, rate, chans))
}

func tone(seconds float64, sampleRate, channels int) *PCM {
	frames := int(seconds * float64(sampleRate))
	samples := make([]int, frames*channels)
	for i := range samples {
		samples[i] = (i % 200) - 100
	}
	return &PCM{Samples: samples, SampleRate: sampleRate, Channels: channels, BitDepth: 16}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "recording.webm", want: "recording.webm"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\Users\me\clip.m4a`, want: "clip.m4a"},
		{in: "input.wav", want: "upload-input.wav"},
		{in: "", wantErr: ErrMissingFilename},
		{in: "   ", wantErr: ErrMissingFilename},
		{in: "..", wantErr: ErrInvalidFilename},
		{in: "/", wantErr: ErrInvalidFilename},
		{in: `\`, wantErr: ErrInvalidFilename},
		{in: `..\..`, wantErr: ErrInvalidFilename},
		{in: "uploads/clip.ogg/", want: "clip.ogg"},
	}

	for _, tc := range cases {
		got, err := SanitizeFilename(tc.in)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestNormalizeTruncatesLongAudio(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)
	defer scratch.Close()

	tr := &fakeTranscoder{seconds: 12.5}
	n := New(audioConfig(), tr)

	wave, err := n.Normalize(context.Background(), scratch, "clip.webm", strings.NewReader("raw-bytes"))
	require.NoError(t, err)

	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, scratch.Path("clip.webm"), tr.gotSrc)
	assert.True(t, wave.Truncated)
	assert.Equal(t, 160000, wave.Samples)
	assert.Equal(t, 16000, wave.SampleRate)
	assert.Equal(t, 1, wave.Channels)

	reread, err := ReadWAV(wave.Path)
	require.NoError(t, err)
	assert.Equal(t, 160000, reread.Frames())

	raw, err := os.ReadFile(scratch.Path("clip.webm"))
	require.NoError(t, err)
	assert.Equal(t, "raw-bytes", string(raw))
}

func TestNormalizeLeavesShortAudioUntouched(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)
	defer scratch.Close()

	n := New(audioConfig(), &fakeTranscoder{seconds: 4})

	wave, err := n.Normalize(context.Background(), scratch, "clip.webm", strings.NewReader("x"))
	require.NoError(t, err)

	assert.False(t, wave.Truncated)
	assert.Equal(t, 64000, wave.Samples)
}

func TestNormalizeExactlyAtCap(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)
	defer scratch.Close()

	n := New(audioConfig(), &fakeTranscoder{seconds: 10})

	wave, err := n.Normalize(context.Background(), scratch, "clip.webm", strings.NewReader("x"))
	require.NoError(t, err)

	assert.False(t, wave.Truncated)
	assert.Equal(t, 160000, wave.Samples)
}

func TestNormalizeTranscodeFailure(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)
	defer scratch.Close()

	tErr := &TranscodeError{Stderr: "Invalid data found when processing input", Err: errors.New("exit status 1")}
	n := New(audioConfig(), &fakeTranscoder{err: tErr})

	_, err = n.Normalize(context.Background(), scratch, "clip.webm", strings.NewReader("x"))

	var got *TranscodeError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "ffmpeg failed: Invalid data found when processing input", err.Error())
}

func TestNormalizeRejectsWrongFormat(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)
	defer scratch.Close()

	n := New(audioConfig(), &fakeTranscoder{seconds: 1, sampleRate: 8000})
	_, err = n.Normalize(context.Background(), scratch, "clip.webm", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample rate 8000")

	var tErr *TranscodeError
	assert.False(t, errors.As(err, &tErr))

	n = New(audioConfig(), &fakeTranscoder{seconds: 1, channels: 2})
	_, err = n.Normalize(context.Background(), scratch, "clip2.webm", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel count 2")
}

func TestNormalizeRejectsMissingFilenameBeforeTranscoding(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	require.NoError(t, err)
	defer scratch.Close()

	tr := &fakeTranscoder{seconds: 1}
	_, err = New(audioConfig(), tr).Normalize(context.Background(), scratch, "", strings.NewReader("x"))

	assert.ErrorIs(t, err, ErrMissingFilename)
	assert.Zero(t, tr.calls)
}

func TestScratchCloseRemovesDirectory(t *testing.T) {
	root := t.TempDir()
	a, err := NewScratch(root)
	require.NoError(t, err)
	b, err := NewScratch(root)
	require.NoError(t, err)
	assert.NotEqual(t, a.Dir(), b.Dir())

	require.NoError(t, os.WriteFile(a.Path("x.bin"), []byte("x"), 0o600))
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFFmpegArgs(t *testing.T) {
	got := NewFFmpeg("").Args("in.webm", "out.wav", 16000, 1)
	assert.Equal(t, []string{"-y", "-i", "in.webm", "-ac", "1", "-ar", "16000", "-vn", "out.wav"}, got)
}

func TestFFmpegCapturesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script transcoder requires a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "fake-ffmpeg")
	body := "#!/bin/sh\necho 'clip.webm: Invalid data found when processing input' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	err := NewFFmpeg(script).Transcode(context.Background(), "clip.webm", "out.wav", 16000, 1)

	var tErr *TranscodeError
	require.ErrorAs(t, err, &tErr)
	assert.Contains(t, tErr.Stderr, "Invalid data found")
	assert.Contains(t, err.Error(), "ffmpeg failed: clip.webm: Invalid data found")
}

func TestFFmpegMissingBinary(t *testing.T) {
	err := NewFFmpeg(filepath.Join(t.TempDir(), "no-such-ffmpeg")).Transcode(context.Background(), "a", "b", 16000, 1)

	var tErr *TranscodeError
	require.ErrorAs(t, err, &tErr)
	assert.True(t, strings.HasPrefix(err.Error(), "ffmpeg failed: "))
}
