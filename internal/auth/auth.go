// Package auth verifies caller identity before a websocket upgrade.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized is returned when a token does not map to a user.
var ErrUnauthorized = errors.New("auth: unauthorized")

// Verifier resolves a bearer token to a user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// HTTPVerifier asks an external session service to validate the token.
type HTTPVerifier struct {
	url    string
	client *http.Client
}

func NewHTTPVerifier(url string) *HTTPVerifier {
	return &HTTPVerifier{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return "", ErrUnauthorized
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return "", fmt.Errorf("auth service status %d: %s", res.StatusCode, string(snippet))
	}

	var out struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if strings.TrimSpace(out.UserID) == "" {
		return "", ErrUnauthorized
	}
	return out.UserID, nil
}

// StaticVerifier accepts a fixed token set, for local/dev use.
type StaticVerifier struct {
	tokens map[string]string
}

func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	cp := make(map[string]string, len(tokens))
	for tok, uid := range tokens {
		cp[tok] = uid
	}
	return &StaticVerifier{tokens: cp}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	uid, ok := v.tokens[token]
	if !ok || uid == "" {
		return "", ErrUnauthorized
	}
	return uid, nil
}
