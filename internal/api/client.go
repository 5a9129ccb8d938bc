package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/glint-data/flash.report/internal/vision"
)

// HTTPDoer abstracts the HTTP transport so tests can stub it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FrameClient submits frames to a running daemon over HTTP. Used by the
// frame generator tool and by integration tests.
type FrameClient struct {
	base string
	hc   HTTPDoer
}

// NewFrameClient creates a client for the daemon at baseURL (e.g.
// "http://localhost:8081"). A nil doer uses http.DefaultClient.
func NewFrameClient(baseURL string, hc HTTPDoer) *FrameClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &FrameClient{base: baseURL, hc: hc}
}

// PostFrame submits one raw RGBA frame. Returns the detection when the
// daemon found a flash, or nil on a clean no-detection response.
func (c *FrameClient) PostFrame(ctx context.Context, frame []byte) (*vision.Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/frame", bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to post frame: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		var det vision.Detection
		if err := json.NewDecoder(resp.Body).Decode(&det); err != nil {
			return nil, fmt.Errorf("failed to decode detection: %w", err)
		}
		return &det, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("frame rejected: %s: %s", resp.Status, body)
	}
}
