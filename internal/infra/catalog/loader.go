package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"guardiangw/internal/domain"
)

// Loader reads the gateway configuration file.
type Loader struct {
	logger    *zap.Logger
	lookupEnv func(string) (string, bool)
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	} else {
		logger = logger.Named("catalog")
	}
	return &Loader{logger: logger, lookupEnv: os.LookupEnv}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listenAddress", domain.DefaultListenAddress)
	v.SetDefault("maxSteps", domain.DefaultMaxSteps)
	v.SetDefault("timeouts.toolSeconds", domain.DefaultToolTimeoutSeconds)
	v.SetDefault("timeouts.connectSeconds", domain.DefaultConnectTimeoutSeconds)
	v.SetDefault("timeouts.healthCheckSeconds", domain.DefaultHealthCheckTimeoutSeconds)
	v.SetDefault("timeouts.maxAgeSeconds", domain.DefaultMaxAgeSeconds)
	v.SetDefault("timeouts.globalConnectSeconds", domain.DefaultGlobalConnectSeconds)
	v.SetDefault("timeouts.heartbeatSeconds", domain.DefaultHeartbeatSeconds)
	v.SetDefault("model.provider", domain.DefaultModelProvider)
	v.SetDefault("model.baseURL", domain.DefaultModelBaseURL)
	v.SetDefault("model.apiKeyEnvVar", domain.DefaultModelAPIKeyEnvVar)
	v.SetDefault("model.default", domain.DefaultModel)
	v.SetDefault("tokenStore.path", domain.DefaultTokenStorePath)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.metrics", true)
	v.SetDefault("observability.healthz", true)
}

// Load reads, expands and validates the config file at path.
func (l *Loader) Load(ctx context.Context, path string) (domain.GatewayConfig, error) {
	if path == "" {
		return domain.GatewayConfig{}, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GatewayConfig{}, fmt.Errorf("read config: %w", err)
	}
	return l.Parse(ctx, data, filepath.Dir(path))
}

// Parse decodes a config document. Relative file references resolve
// against baseDir.
func (l *Loader) Parse(ctx context.Context, data []byte, baseDir string) (domain.GatewayConfig, error) {
	env := newEnvExpander(l.lookupEnv)
	expanded, err := env.expand(data)
	if err != nil {
		return domain.GatewayConfig{}, err
	}
	if missing := env.missingVars(); len(missing) > 0 {
		l.logger.Warn("missing environment variables in config", zap.Strings("missing", missing))
	}

	raw, err := decodeConfig(expanded)
	if err != nil {
		return domain.GatewayConfig{}, err
	}
	var sensitive caseSensitiveConfig
	if err := yaml.Unmarshal(expanded, &sensitive); err != nil {
		return domain.GatewayConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return domain.GatewayConfig{}, err
	}

	cfg, errs := normalizeConfig(raw, sensitive, baseDir)
	errs = append(errs, validateConfig(cfg)...)
	if len(errs) > 0 {
		return domain.GatewayConfig{}, errors.New(strings.Join(errs, "; "))
	}
	return cfg, nil
}

func decodeConfig(expanded []byte) (rawConfig, error) {
	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return rawConfig{}, fmt.Errorf("parse config: %w", err)
	}
	var cfg rawConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return rawConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func normalizeConfig(raw rawConfig, sensitive caseSensitiveConfig, baseDir string) (domain.GatewayConfig, []string) {
	var errs []string

	prompt := strings.TrimSpace(raw.SystemPrompt)
	if file := strings.TrimSpace(raw.SystemPromptFile); file != "" {
		data, err := os.ReadFile(resolvePath(file, baseDir))
		if err != nil {
			errs = append(errs, fmt.Sprintf("systemPromptFile: %v", err))
		} else {
			prompt = strings.TrimSpace(string(data))
		}
	}

	cfg := domain.GatewayConfig{
		ListenAddress: strings.TrimSpace(raw.ListenAddress),
		MaxSteps:      raw.MaxSteps,
		Timeouts: domain.TimeoutConfig{
			ToolSeconds:          raw.Timeouts.ToolSeconds,
			ConnectSeconds:       raw.Timeouts.ConnectSeconds,
			HealthCheckSeconds:   raw.Timeouts.HealthCheckSeconds,
			MaxAgeSeconds:        raw.Timeouts.MaxAgeSeconds,
			GlobalConnectSeconds: raw.Timeouts.GlobalConnectSeconds,
			HeartbeatSeconds:     raw.Timeouts.HeartbeatSeconds,
		},
		Model: domain.ModelConfig{
			Provider:     strings.ToLower(strings.TrimSpace(raw.Model.Provider)),
			BaseURL:      strings.TrimSpace(raw.Model.BaseURL),
			APIKey:       strings.TrimSpace(raw.Model.APIKey),
			APIKeyEnvVar: strings.TrimSpace(raw.Model.APIKeyEnvVar),
			Default:      strings.TrimSpace(raw.Model.Default),
			Allowed:      trimList(raw.Model.Allowed),
		},
		SystemPrompt:   prompt,
		TokenStorePath: expandHome(strings.TrimSpace(raw.TokenStore.Path)),
		Observability: domain.ObservabilityConfig{
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
			Metrics:       raw.Observability.Metrics,
			Healthz:       raw.Observability.Healthz,
		},
	}

	for i, backend := range raw.Backends {
		normalized := normalizeBackend(backend)
		if i < len(sensitive.Backends) {
			normalized.Headers = sensitive.Backends[i].Headers
			normalized.ArgumentDefaults = sensitive.Backends[i].ArgumentDefaults
		}
		cfg.Backends = append(cfg.Backends, normalized)
	}
	return cfg, errs
}

func normalizeBackend(raw rawBackend) domain.BackendConfig {
	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}
	mode := domain.AuthMode(strings.ToLower(strings.TrimSpace(raw.Auth.Mode)))
	if mode == "" {
		mode = domain.AuthModeNone
	}
	return domain.BackendConfig{
		Label:              strings.ToLower(strings.TrimSpace(raw.Label)),
		Address:            domain.NormalizeAddress(raw.Address),
		Enabled:            enabled,
		Transport:          domain.NormalizeTransport(domain.TransportKind(raw.Transport)),
		TunnelSecretHeader: strings.TrimSpace(raw.TunnelSecretHeader),
		ForwardHeaders:     canonicalHeaders(raw.ForwardHeaders),
		Auth: domain.AuthConfig{
			Mode:        mode,
			Header:      strings.TrimSpace(raw.Auth.Header),
			TokenEnvVar: strings.TrimSpace(raw.Auth.TokenEnvVar),
			TokenHeader: strings.TrimSpace(raw.Auth.TokenHeader),
			TokenCookie: strings.TrimSpace(raw.Auth.TokenCookie),
			OAuth: domain.OAuthConfig{
				ClientID:           strings.TrimSpace(raw.Auth.OAuth.ClientID),
				ClientSecret:       raw.Auth.OAuth.ClientSecret,
				ClientSecretEnvVar: strings.TrimSpace(raw.Auth.OAuth.ClientSecretEnvVar),
				TokenURL:           strings.TrimSpace(raw.Auth.OAuth.TokenURL),
				Scopes:             trimList(raw.Auth.OAuth.Scopes),
			},
		},
	}
}

func canonicalHeaders(names []string) []string {
	out := trimList(names)
	for i, name := range out {
		out[i] = http.CanonicalHeaderKey(name)
	}
	return out
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func resolvePath(path, baseDir string) string {
	path = expandHome(path)
	if filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
