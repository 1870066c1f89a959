package credentials

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"guardiangw/internal/domain"
)

// TokenPersister saves refreshed tokens.
type TokenPersister interface {
	Put(label string, token *oauth2.Token) error
}

// OAuthSource hands out an OAuth access token and refreshes it through the
// configured token endpoint. Refreshed tokens are persisted under the
// backend label.
type OAuthSource struct {
	label  string
	config *oauth2.Config
	store  TokenPersister
	logger *zap.Logger

	mu      sync.Mutex
	current *oauth2.Token
}

// OAuthSourceOptions configures an OAuthSource.
type OAuthSourceOptions struct {
	Label  string
	Config *oauth2.Config
	Token  *oauth2.Token
	Store  TokenPersister
	Logger *zap.Logger
}

func NewOAuthSource(opts OAuthSourceOptions) *OAuthSource {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OAuthSource{
		label:   opts.Label,
		config:  opts.Config,
		store:   opts.Store,
		logger:  logger.Named("oauth").With(zap.String("backend", opts.Label)),
		current: opts.Token,
	}
}

// Token returns the current access token, refreshing first when it has
// expired and a refresh token is available.
func (s *OAuthSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil || current.AccessToken == "" {
		return "", domain.ErrNotAuthenticated
	}
	if current.Valid() || current.RefreshToken == "" || s.config == nil {
		return current.AccessToken, nil
	}
	return s.Refresh(ctx)
}

// Refresh exchanges the refresh token for a new access token.
func (s *OAuthSource) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token for %s: %w", s.label, domain.ErrNotAuthenticated)
	}
	if s.config == nil || s.config.Endpoint.TokenURL == "" {
		return "", fmt.Errorf("no token endpoint configured for %s", s.label)
	}

	stale := &oauth2.Token{RefreshToken: s.current.RefreshToken}
	fresh, err := s.config.TokenSource(ctx, stale).Token()
	if err != nil {
		return "", fmt.Errorf("refresh token for %s: %w", s.label, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.current.RefreshToken
	}
	s.current = fresh

	if s.store != nil {
		if err := s.store.Put(s.label, fresh); err != nil {
			s.logger.Warn("persist refreshed token failed", zap.Error(err))
		}
	}
	s.logger.Info("access token refreshed")
	return fresh.AccessToken, nil
}

// Current returns a copy of the token in use.
func (s *OAuthSource) Current() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

var _ domain.TokenSource = (*OAuthSource)(nil)
