package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
)

func buildHeaders(spec domain.BackendSpec) (http.Header, error) {
	headers := http.Header{}
	apply := func(values map[string]string) error {
		for key, value := range values {
			name := http.CanonicalHeaderKey(strings.TrimSpace(key))
			if name == "" {
				return errors.New("http headers contain empty key")
			}
			headers.Set(name, value)
		}
		return nil
	}
	if err := apply(spec.Headers); err != nil {
		return nil, err
	}
	if spec.Credential != nil {
		if err := apply(spec.Credential.Headers); err != nil {
			return nil, err
		}
	}
	return headers, nil
}

// headerRoundTripper stamps static headers and a bearer token on every
// request. A 401 triggers one token refresh and a single replay.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers http.Header
	tokens  domain.TokenSource
	logger  *zap.Logger

	mu    sync.Mutex
	token string
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	out := h.prepare(req, h.currentToken())
	resp, err := h.base.RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || h.tokens == nil {
		return resp, err
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}

	token, refreshErr := h.refresh(req.Context())
	if refreshErr != nil {
		h.logger.Warn("token refresh after 401 failed", zap.Error(refreshErr))
		return resp, nil
	}
	_ = resp.Body.Close()

	replay := h.prepare(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		replay.Body = body
	}
	return h.base.RoundTrip(replay)
}

func (h *headerRoundTripper) prepare(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	for key, values := range h.headers {
		out.Header.Del(key)
		for _, value := range values {
			out.Header.Add(key, value)
		}
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out
}

func (h *headerRoundTripper) currentToken() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token
}

func (h *headerRoundTripper) refresh(ctx context.Context) (string, error) {
	token, err := h.tokens.Refresh(ctx)
	if err != nil {
		return "", err
	}
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
	return token, nil
}
