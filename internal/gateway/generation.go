package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sahelilabs/saheli/internal/reliability"
)

const (
	generateTimeout  = 30 * time.Second
	generateAttempts = 2
)

// HTTPGenerator calls a chat-completions style HTTP endpoint for reply text.
type HTTPGenerator struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPGenerator(url, apiKey, model string) *HTTPGenerator {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &HTTPGenerator{
		url:    strings.TrimSpace(url),
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: generateTimeout},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model":      g.model,
		"messages":   messages,
		"max_tokens": 120,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt, retryBackoffBase, retryBackoffCap)):
			}
		}

		text, retryable, err := g.doRequest(ctx, payload)
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

func (g *HTTPGenerator) doRequest(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	res, err := g.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", reliability.IsRetryableHTTPStatus(res.StatusCode),
			fmt.Errorf("generation http status %d: %s", res.StatusCode, string(snippet))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) > 0 {
		return strings.TrimSpace(out.Choices[0].Message.Content), false, nil
	}
	return strings.TrimSpace(out.Text), false, nil
}
