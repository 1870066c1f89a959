package credentials

import (
	"context"
	"fmt"
	"strings"

	"guardiangw/internal/domain"
)

// StaticToken is a bearer token that cannot be refreshed.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", domain.ErrNotAuthenticated
	}
	return string(t), nil
}

func (t StaticToken) Refresh(context.Context) (string, error) {
	return "", fmt.Errorf("static token cannot be refreshed: %w", domain.ErrNotAuthenticated)
}

// StaticHeader builds a credential that sends value under header. An
// Authorization header gets a Bearer scheme when value carries none.
func StaticHeader(header, value string) *domain.CredentialContext {
	header = strings.TrimSpace(header)
	if header == "" {
		header = "Authorization"
	}
	if strings.EqualFold(header, "Authorization") && !strings.Contains(strings.TrimSpace(value), " ") {
		value = "Bearer " + strings.TrimSpace(value)
	}
	return &domain.CredentialContext{Headers: map[string]string{header: value}}
}
