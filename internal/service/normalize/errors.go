package normalize

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingFilename = errors.New("missing audio file")
	ErrInvalidFilename = errors.New("invalid audio filename")
)

// TranscodeError carries the diagnostic output of a failed transcoder run.
type TranscodeError struct {
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	diag := strings.TrimSpace(e.Stderr)
	if diag == "" && e.Err != nil {
		diag = e.Err.Error()
	}
	return fmt.Sprintf("ffmpeg failed: %s", diag)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
