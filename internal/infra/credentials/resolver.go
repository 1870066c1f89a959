package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"guardiangw/internal/domain"
)

// TokenReader looks up stored tokens.
type TokenReader interface {
	Get(label string) (*oauth2.Token, bool, error)
}

// Store is the persistence the resolver needs.
type Store interface {
	TokenReader
	TokenPersister
}

// RequestCredentials are the credential carriers of one inbound request.
type RequestCredentials struct {
	Header      http.Header
	Cookies     []*http.Cookie
	AccessToken string
}

func (r RequestCredentials) cookie(name string) string {
	for _, c := range r.Cookies {
		if c != nil && c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Resolver turns a backend's auth settings and request carriers into a
// credential context.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Store  Store
	Logger *zap.Logger
}

func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: opts.Store, logger: logger.Named("credentials")}
}

// Resolve returns the credential for backend, or nil when none is
// available. Only lookup failures are errors.
func (r *Resolver) Resolve(_ context.Context, backend domain.BackendConfig, req RequestCredentials) (*domain.CredentialContext, error) {
	auth := backend.Auth
	switch auth.Mode {
	case domain.AuthModeStatic:
		value := strings.TrimSpace(req.AccessToken)
		if value == "" && auth.TokenEnvVar != "" {
			value = strings.TrimSpace(os.Getenv(auth.TokenEnvVar))
		}
		if value == "" {
			return nil, nil
		}
		return StaticHeader(auth.Header, value), nil
	case domain.AuthModeOAuth:
		token, origin, err := r.lookupToken(backend, req)
		if err != nil {
			return nil, err
		}
		if token == nil {
			return nil, nil
		}
		r.logger.Debug("oauth token resolved",
			zap.String("backend", backend.Label),
			zap.String("origin", origin),
		)
		return &domain.CredentialContext{
			Tokens: NewOAuthSource(OAuthSourceOptions{
				Label:  backend.Label,
				Config: oauthConfig(auth.OAuth),
				Token:  token,
				Store:  r.store,
				Logger: r.logger,
			}),
		}, nil
	default:
		if token := strings.TrimSpace(req.AccessToken); token != "" {
			return &domain.CredentialContext{Tokens: StaticToken(token)}, nil
		}
		return nil, nil
	}
}

// lookupToken walks the token carriers in priority order: the request
// body, the token header, the token cookie, the store, the env var.
func (r *Resolver) lookupToken(backend domain.BackendConfig, req RequestCredentials) (*oauth2.Token, string, error) {
	auth := backend.Auth
	if token := strings.TrimSpace(req.AccessToken); token != "" {
		return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, "request", nil
	}
	if auth.TokenHeader != "" && req.Header != nil {
		if token, ok := decodeToken(req.Header.Get(auth.TokenHeader)); ok {
			return token, "header", nil
		}
	}
	if auth.TokenCookie != "" {
		if token, ok := decodeToken(req.cookie(auth.TokenCookie)); ok {
			return token, "cookie", nil
		}
	}
	if r.store != nil {
		token, ok, err := r.store.Get(backend.Label)
		if err != nil {
			return nil, "", fmt.Errorf("read stored token for %s: %w", backend.Label, err)
		}
		if ok && token.AccessToken != "" {
			return token, "store", nil
		}
	}
	if auth.TokenEnvVar != "" {
		if value := strings.TrimSpace(os.Getenv(auth.TokenEnvVar)); value != "" {
			return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, "env", nil
		}
	}
	return nil, "", nil
}

// decodeToken parses a token JSON document, URL-decoding it first when it
// arrived escaped.
func decodeToken(raw string) (*oauth2.Token, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	if !strings.HasPrefix(raw, "{") {
		unescaped, err := url.QueryUnescape(raw)
		if err != nil {
			return nil, false
		}
		raw = unescaped
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil || token.AccessToken == "" {
		return nil, false
	}
	return &token, true
}

func oauthConfig(cfg domain.OAuthConfig) *oauth2.Config {
	if cfg.TokenURL == "" {
		return nil
	}
	secret := cfg.ClientSecret
	if secret == "" && cfg.ClientSecretEnvVar != "" {
		secret = os.Getenv(cfg.ClientSecretEnvVar)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: secret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       cfg.Scopes,
	}
}
