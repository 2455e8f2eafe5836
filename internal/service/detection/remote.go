package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
)

// Remote calls an HTTP inference sidecar hosting the detection model.
type Remote struct {
	baseURL string
	client  *http.Client
}

type detectResponse struct {
	Events []therapy.DysfluencyEvent `json:"events"`
}

// NewRemote creates a detector posting to baseURL + "/detect".
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	return &Remote{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

func (r *Remote) Degraded() bool { return false }

// Detect uploads the waveform as multipart field "file" and decodes {"events": [...]}.
func (r *Remote) Detect(ctx context.Context, wavPath string) ([]therapy.DysfluencyEvent, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/detect", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("detector %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detector decode: %w", err)
	}
	if out.Events == nil {
		out.Events = []therapy.DysfluencyEvent{}
	}
	return out.Events, nil
}
