package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardiangw/internal/domain"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "guardiangw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader(nil).Parse(context.Background(), nil, "")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultListenAddress, cfg.ListenAddress)
	assert.Equal(t, domain.DefaultMaxSteps, cfg.MaxSteps)
	assert.Equal(t, domain.DefaultToolTimeoutSeconds, cfg.Timeouts.ToolSeconds)
	assert.Equal(t, domain.DefaultMaxAgeSeconds, cfg.Timeouts.MaxAgeSeconds)
	assert.Equal(t, domain.DefaultModel, cfg.Model.Default)
	assert.Equal(t, domain.DefaultModelProvider, cfg.Model.Provider)
	assert.True(t, cfg.Observability.Metrics)
	assert.Empty(t, cfg.Backends)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompt.md"), []byte("  You audit design systems.\n"), 0o600))
	t.Setenv("GUARDIANGW_TEST_STEPS", "8")
	t.Setenv("GUARDIANGW_TEST_DESIGN_URL", "https://mcp.example.com/sse/")

	path := writeConfig(t, dir, `
listenAddress: 127.0.0.1:8081
maxSteps: ${GUARDIANGW_TEST_STEPS}
systemPromptFile: prompt.md
timeouts:
  toolSeconds: 30
model:
  default: grok-4-1-fast-reasoning
  allowed: [grok-4-1-fast-reasoning, " grok-4-1-fast-non-reasoning "]
backends:
  - label: Design
    address: ${GUARDIANGW_TEST_DESIGN_URL}
    headers:
      X-Extra: v
    auth:
      mode: oauth
      tokenHeader: X-Design-MCP-Tokens
      oauth:
        tokenURL: https://auth.example.com/token
  - label: code
    enabled: false
    transport: streamable_http
    tunnelSecretHeader: X-Auth-Token
    forwardHeaders: ["x-mcp-code-url", " "]
    argumentDefaults:
      directory_tree:
        excludePatterns: [vendor]
`)

	cfg, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.ListenAddress)
	assert.Equal(t, 8, cfg.MaxSteps)
	assert.Equal(t, "You audit design systems.", cfg.SystemPrompt)
	assert.Equal(t, 30, cfg.Timeouts.ToolSeconds)
	assert.Equal(t, domain.DefaultConnectTimeoutSeconds, cfg.Timeouts.ConnectSeconds)
	assert.Equal(t, []string{"grok-4-1-fast-reasoning", "grok-4-1-fast-non-reasoning"}, cfg.Model.Allowed)

	require.Len(t, cfg.Backends, 2)
	design := cfg.Backends[0]
	assert.Equal(t, "design", design.Label)
	assert.Equal(t, "https://mcp.example.com/sse", design.Address)
	assert.True(t, design.Enabled)
	assert.Equal(t, map[string]string{"X-Extra": "v"}, design.Headers)
	assert.Equal(t, domain.AuthModeOAuth, design.Auth.Mode)
	assert.Equal(t, "X-Design-MCP-Tokens", design.Auth.TokenHeader)
	assert.Equal(t, "https://auth.example.com/token", design.Auth.OAuth.TokenURL)

	code := cfg.Backends[1]
	assert.False(t, code.Enabled)
	assert.Equal(t, domain.TransportStreamableHTTP, code.Transport)
	assert.Equal(t, domain.AuthModeNone, code.Auth.Mode)
	assert.Equal(t, "X-Auth-Token", code.TunnelSecretHeader)
	assert.Equal(t, []string{"X-Mcp-Code-Url"}, code.ForwardHeaders)
	require.Contains(t, code.ArgumentDefaults, "directory_tree")
	assert.Equal(t, []any{"vendor"}, code.ArgumentDefaults["directory_tree"]["excludePatterns"])
}

func TestLoader_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad max steps",
			content: "maxSteps: 0\n",
			wantErr: "maxSteps must be >= 1",
		},
		{
			name:    "health check not shorter than tool timeout",
			content: "timeouts:\n  toolSeconds: 5\n  healthCheckSeconds: 5\n",
			wantErr: "healthCheckSeconds must be shorter",
		},
		{
			name:    "global shorter than connect",
			content: "timeouts:\n  connectSeconds: 60\n  globalConnectSeconds: 30\n",
			wantErr: "globalConnectSeconds must be >= timeouts.connectSeconds",
		},
		{
			name:    "unsupported provider",
			content: "model:\n  provider: local\n",
			wantErr: `model.provider "local" is not supported`,
		},
		{
			name:    "duplicate label",
			content: "backends:\n  - label: repo\n  - label: REPO\n",
			wantErr: `backends[1]: duplicate label "repo"`,
		},
		{
			name:    "bad address",
			content: "backends:\n  - label: repo\n    address: ftp://example.com\n",
			wantErr: "backends[0]: address: scheme must be http or https",
		},
		{
			name:    "bad auth mode",
			content: "backends:\n  - label: repo\n    auth:\n      mode: magic\n",
			wantErr: "auth.mode must be none, static or oauth",
		},
		{
			name:    "bad transport",
			content: "backends:\n  - label: repo\n    transport: stdio\n",
			wantErr: "transport must be sse or http",
		},
		{
			name:    "missing label",
			content: "backends:\n  - address: https://example.com/mcp\n",
			wantErr: "backends[0]: label must match",
		},
		{
			name:    "unparseable yaml",
			content: "backends: [\n",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(nil).Parse(context.Background(), []byte(tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	_, err = NewLoader(nil).Load(context.Background(), "")
	require.Error(t, err)
}

func TestEnvExpander(t *testing.T) {
	env := map[string]string{"FLAG": "TRUE", "STEPS": " 8 ", "EMPTY": ""}
	exp := newEnvExpander(func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	})

	expanded, err := exp.expand([]byte(`
enabled: ${FLAG}
maxSteps: ${STEPS}
name: "${UNSET_NAME}x"
region: ${EMPTY:-eu}
backends:
  - label: code
    headers:
      X-Auth-Token: ${CODE_SECRET}
`))
	require.NoError(t, err)
	out := string(expanded)
	assert.Contains(t, out, "enabled: true")
	assert.Contains(t, out, "maxSteps: 8")
	assert.Contains(t, out, `name: "x"`)
	assert.Contains(t, out, "region: eu")
	assert.Equal(t, []string{
		"CODE_SECRET (backends[0].headers.X-Auth-Token)",
		"UNSET_NAME (name)",
	}, exp.missingVars())
}

func TestPlainTag(t *testing.T) {
	tests := map[string]string{
		"12":    "!!int",
		"-3":    "!!int",
		"1.5":   "!!float",
		"false": "!!bool",
		"t":     "!!str",
		"inf":   "!!str",
		"":      "!!str",
		"abc":   "!!str",
	}
	for value, want := range tests {
		assert.Equal(t, want, plainTag(value), value)
	}
}

func TestLoader_ExpandsBackendSecretsFromEnv(t *testing.T) {
	loader := NewLoader(nil)
	loader.lookupEnv = func(key string) (string, bool) {
		if key == "CODE_SECRET" {
			return "s3cret", true
		}
		return "", false
	}

	cfg, err := loader.Parse(context.Background(), []byte(`
backends:
  - label: code
    address: https://code.example.com/mcp
    headers:
      X-Auth-Token: ${CODE_SECRET}
`), "")
	require.NoError(t, err)
	require.Len(t, cfg.Backends, 1)
	assert.Equal(t, "s3cret", cfg.Backends[0].Headers["X-Auth-Token"])
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".guardiangw/tokens.db"), expandHome("~/.guardiangw/tokens.db"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
