package normalize

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const pcmFormat = 1

// PCM is a decoded WAV file.
type PCM struct {
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frames is the per-channel sample count.
func (p *PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// ReadWAV decodes a PCM WAV file.
func ReadWAV(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid wav file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode pcm: %w", err)
	}

	return &PCM{
		Samples:    buf.Data,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// WriteWAV encodes p as a PCM WAV file at path, replacing any existing file.
func WriteWAV(path string, p *PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	bitDepth := p.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}

	enc := wav.NewEncoder(f, p.SampleRate, bitDepth, p.Channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate},
		Data:           p.Samples,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

// Truncate keeps the first maxFrames frames. It reports whether anything was dropped.
func (p *PCM) Truncate(maxFrames int) bool {
	if maxFrames < 0 || p.Frames() <= maxFrames {
		return false
	}
	p.Samples = p.Samples[:maxFrames*p.Channels]
	return true
}
