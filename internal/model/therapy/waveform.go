package therapy

import "time"

// Waveform 指向请求临时目录中已规范化的音频（单声道、固定采样率、时长受限）。
type Waveform struct {
	Path       string
	SampleRate int
	Channels   int
	Samples    int
	Truncated  bool
}

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(w.Samples) / float64(w.SampleRate) * float64(time.Second))
}
