package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bthaas/intelifit/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Request carries exactly one of the three inputs.
type Request struct {
	Transcription string
	Base64Image   string
	Barcode       string
}

type Result struct {
	Items    []Item
	Fallback bool
	Reason   string
	Raw      []byte
}

type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Recognize sends the request to the recognition endpoint. Transport and
// HTTP status failures are returned as errors; an unusable body yields the
// placeholder item with Fallback set.
func (c *Client) Recognize(ctx context.Context, req Request) (Result, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		return Result{}, fmt.Errorf("inference endpoint is not configured")
	}
	body, err := requestBody(req)
	if err != nil {
		return Result{}, err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("marshal inference payload: %w", err)
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/transcribe", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create inference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if key := strings.TrimSpace(c.APIKey); key != "" {
		httpReq.Header.Set("x-api-key", key)
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("execute inference request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read inference response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("inference request failed with status %d", resp.StatusCode)
	}

	items, reason := ParseItems(raw)
	res := Result{Items: items, Fallback: reason != "", Reason: reason, Raw: raw}
	if res.Fallback {
		logging.OrNop(c.Logger).Warn("inference response unusable, substituting placeholder",
			zap.String("reason", reason), zap.Int("bytes", len(raw)))
	}
	return res, nil
}

func requestBody(req Request) (map[string]string, error) {
	set := 0
	body := map[string]string{}
	if v := strings.TrimSpace(req.Transcription); v != "" {
		body["transcription"] = v
		set++
	}
	if v := strings.TrimSpace(req.Base64Image); v != "" {
		body["base64Image"] = v
		set++
	}
	if v := strings.TrimSpace(req.Barcode); v != "" {
		body["content"] = v
		set++
	}
	switch set {
	case 0:
		return nil, fmt.Errorf("one of transcription, image or barcode is required")
	case 1:
		return body, nil
	default:
		return nil, fmt.Errorf("only one of transcription, image or barcode may be set")
	}
}

// EncodeImageFile reads an image from disk and returns it base64 encoded.
func EncodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image %s is empty", path)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
