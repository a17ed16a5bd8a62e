package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sahelilabs/saheli/internal/persona"
	"github.com/sahelilabs/saheli/internal/reliability"
)

const (
	synthesizeTimeout  = 20 * time.Second
	synthesizeAttempts = 2
)

// HTTPSynthesizer renders text to audio through an ElevenLabs-style REST
// endpoint: POST {base}/v1/text-to-speech/{voiceID} returning raw audio bytes.
type HTTPSynthesizer struct {
	baseURL      string
	apiKey       string
	outputFormat string
	client       *http.Client
}

func NewHTTPSynthesizer(baseURL, apiKey, outputFormat string) *HTTPSynthesizer {
	if strings.TrimSpace(outputFormat) == "" {
		outputFormat = "mp3_44100_128"
	}
	return &HTTPSynthesizer{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       apiKey,
		outputFormat: outputFormat,
		client:       &http.Client{Timeout: synthesizeTimeout},
	}
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string, voice persona.VoiceSettings) ([]byte, error) {
	if strings.TrimSpace(voice.VoiceID) == "" {
		return nil, fmt.Errorf("voice_id is required")
	}
	modelID := voice.VoiceModelID
	if strings.TrimSpace(modelID) == "" {
		modelID = "eleven_multilingual_v2"
	}

	payload, err := json.Marshal(map[string]any{
		"text":     text,
		"model_id": modelID,
		"voice_settings": map[string]any{
			"stability":        voice.Stability,
			"similarity_boost": voice.Similarity,
			"style":            voice.Style,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := s.baseURL + "/v1/text-to-speech/" + url.PathEscape(voice.VoiceID) +
		"?output_format=" + url.QueryEscape(s.outputFormat)

	var lastErr error
	for attempt := 0; attempt < synthesizeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, retryBackoffBase, retryBackoffCap)):
			}
		}

		audio, retryable, err := s.doRequest(ctx, endpoint, payload)
		if err == nil {
			return audio, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (s *HTTPSynthesizer) doRequest(ctx context.Context, endpoint string, payload []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("xi-api-key", s.apiKey)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, reliability.IsRetryableHTTPStatus(res.StatusCode),
			fmt.Errorf("synthesis http status %d: %s", res.StatusCode, string(snippet))
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read audio: %w", err)
	}
	return audio, false, nil
}
