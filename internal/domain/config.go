package domain

import (
	"slices"
	"strings"
)

// GatewayConfig is the normalized process configuration.
type GatewayConfig struct {
	ListenAddress  string
	MaxSteps       int
	Timeouts       TimeoutConfig
	Model          ModelConfig
	SystemPrompt   string
	TokenStorePath string
	Observability  ObservabilityConfig
	Backends       []BackendConfig
}

// TimeoutConfig holds every suspension-point bound, in seconds.
type TimeoutConfig struct {
	ToolSeconds          int `json:"toolSeconds"`
	ConnectSeconds       int `json:"connectSeconds"`
	HealthCheckSeconds   int `json:"healthCheckSeconds"`
	MaxAgeSeconds        int `json:"maxAgeSeconds"`
	GlobalConnectSeconds int `json:"globalConnectSeconds"`
	HeartbeatSeconds     int `json:"heartbeatSeconds"`
}

// ModelConfig selects the chat model used for generation.
type ModelConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	APIKeyEnvVar string
	Default      string
	Allowed      []string
}

// Resolve returns the requested model when allowed, else the default.
func (m ModelConfig) Resolve(requested string) string {
	requested = strings.TrimSpace(requested)
	if requested != "" && slices.Contains(m.Allowed, requested) {
		return requested
	}
	return m.Default
}

// ObservabilityConfig configures the metrics and health listener.
type ObservabilityConfig struct {
	ListenAddress string
	Metrics       bool
	Healthz       bool
}

// AuthMode selects how a backend credential is obtained.
type AuthMode string

const (
	AuthModeNone   AuthMode = "none"
	AuthModeStatic AuthMode = "static"
	AuthModeOAuth  AuthMode = "oauth"
)

// BackendConfig is a configured backend before request overlays.
type BackendConfig struct {
	Label              string
	Address            string
	Enabled            bool
	Transport          TransportKind
	Headers            map[string]string
	TunnelSecretHeader string
	// ForwardHeaders names inbound request headers copied to the backend.
	ForwardHeaders     []string
	Auth               AuthConfig
	ArgumentDefaults   map[string]map[string]any
}

// AuthConfig describes where a backend's credential comes from.
type AuthConfig struct {
	Mode        AuthMode
	Header      string
	TokenEnvVar string
	TokenHeader string
	TokenCookie string
	OAuth       OAuthConfig
}

// OAuthConfig is the refresh half of an OAuth client registration.
type OAuthConfig struct {
	ClientID           string
	ClientSecret       string
	ClientSecretEnvVar string
	TokenURL           string
	Scopes             []string
}

// Backend returns the configured backend with the given label.
func (c GatewayConfig) Backend(label string) (BackendConfig, bool) {
	for _, backend := range c.Backends {
		if strings.EqualFold(backend.Label, label) {
			return backend, true
		}
	}
	return BackendConfig{}, false
}
