package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sahelilabs/saheli/internal/reliability"
)

const (
	transcribeTimeout  = 15 * time.Second
	transcribeAttempts = 2
	retryBackoffBase   = 200 * time.Millisecond
	retryBackoffCap    = 2 * time.Second
)

// HTTPTranscriber posts a WAV file to a speech-to-text HTTP endpoint.
type HTTPTranscriber struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPTranscriber(url, apiKey, model string) *HTTPTranscriber {
	if strings.TrimSpace(model) == "" {
		model = "whisper-1"
	}
	return &HTTPTranscriber{
		url:    strings.TrimSpace(url),
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: transcribeTimeout},
	}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	payload := body.Bytes()
	contentType := mw.FormDataContentType()

	var lastErr error
	for attempt := 0; attempt < transcribeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, retryBackoffBase, retryBackoffCap)):
			}
		}

		text, retryable, err := t.doRequest(ctx, payload, contentType)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (t *HTTPTranscriber) doRequest(ctx context.Context, payload []byte, contentType string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	res, err := t.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", reliability.IsRetryableHTTPStatus(res.StatusCode),
			fmt.Errorf("transcription http status %d: %s", res.StatusCode, string(snippet))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", false, ErrEmptyTranscript
	}
	return text, false, nil
}
