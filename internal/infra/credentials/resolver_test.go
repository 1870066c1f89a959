package credentials

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"guardiangw/internal/domain"
)

func oauthBackend() domain.BackendConfig {
	return domain.BackendConfig{
		Label: "design",
		Auth: domain.AuthConfig{
			Mode:        domain.AuthModeOAuth,
			TokenHeader: "X-Design-MCP-Tokens",
			TokenCookie: "design_mcp_tokens",
			TokenEnvVar: "GUARDIANGW_TEST_DESIGN_TOKEN",
		},
	}
}

func resolvedToken(t *testing.T, cred *domain.CredentialContext) string {
	t.Helper()
	require.NotNil(t, cred)
	require.NotNil(t, cred.Tokens)
	token, err := cred.Tokens.Token(context.Background())
	require.NoError(t, err)
	return token
}

func TestResolver_OAuthPriority(t *testing.T) {
	store := &memoryPersister{}
	require.NoError(t, store.Put("design", &oauth2.Token{AccessToken: "from-store"}))
	t.Setenv("GUARDIANGW_TEST_DESIGN_TOKEN", "from-env")

	header := http.Header{}
	header.Set("X-Design-MCP-Tokens", `{"access_token":"from-header","refresh_token":"r"}`)
	cookie := &http.Cookie{Name: "design_mcp_tokens", Value: url.QueryEscape(`{"access_token":"from-cookie"}`)}

	tests := []struct {
		name string
		req  RequestCredentials
		want string
	}{
		{name: "request body wins", req: RequestCredentials{AccessToken: "from-body", Header: header, Cookies: []*http.Cookie{cookie}}, want: "from-body"},
		{name: "header before cookie", req: RequestCredentials{Header: header, Cookies: []*http.Cookie{cookie}}, want: "from-header"},
		{name: "escaped cookie", req: RequestCredentials{Cookies: []*http.Cookie{cookie}}, want: "from-cookie"},
		{name: "store", req: RequestCredentials{}, want: "from-store"},
	}

	resolver := NewResolver(ResolverOptions{Store: store})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := resolver.Resolve(context.Background(), oauthBackend(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resolvedToken(t, cred))
		})
	}

	t.Run("env without store", func(t *testing.T) {
		cred, err := NewResolver(ResolverOptions{}).Resolve(context.Background(), oauthBackend(), RequestCredentials{})
		require.NoError(t, err)
		assert.Equal(t, "from-env", resolvedToken(t, cred))
	})
}

func TestResolver_OAuthMissing(t *testing.T) {
	header := http.Header{}
	header.Set("X-Design-MCP-Tokens", `not json`)

	cred, err := NewResolver(ResolverOptions{}).Resolve(context.Background(), oauthBackend(), RequestCredentials{Header: header})
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestResolver_StaticAndNone(t *testing.T) {
	t.Setenv("GUARDIANGW_TEST_REPO_TOKEN", "ghp_env")
	resolver := NewResolver(ResolverOptions{})

	static := domain.BackendConfig{
		Label: "repo",
		Auth:  domain.AuthConfig{Mode: domain.AuthModeStatic, TokenEnvVar: "GUARDIANGW_TEST_REPO_TOKEN"},
	}
	cred, err := resolver.Resolve(context.Background(), static, RequestCredentials{})
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, map[string]string{"Authorization": "Bearer ghp_env"}, cred.Headers)

	static.Auth.TokenEnvVar = ""
	cred, err = resolver.Resolve(context.Background(), static, RequestCredentials{})
	require.NoError(t, err)
	assert.Nil(t, cred)

	none := domain.BackendConfig{Label: "code", Auth: domain.AuthConfig{Mode: domain.AuthModeNone}}
	cred, err = resolver.Resolve(context.Background(), none, RequestCredentials{})
	require.NoError(t, err)
	assert.Nil(t, cred)

	cred, err = resolver.Resolve(context.Background(), none, RequestCredentials{AccessToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resolvedToken(t, cred))
}
