package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"guardiangw/internal/domain"
)

var labelPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

func validateConfig(cfg domain.GatewayConfig) []string {
	var errs []string

	if cfg.ListenAddress == "" {
		errs = append(errs, "listenAddress is required")
	}
	if cfg.MaxSteps < 1 {
		errs = append(errs, "maxSteps must be >= 1")
	}
	errs = append(errs, validateTimeouts(cfg.Timeouts)...)

	if cfg.Model.Provider != domain.DefaultModelProvider {
		errs = append(errs, fmt.Sprintf("model.provider %q is not supported", cfg.Model.Provider))
	}
	if cfg.Model.Default == "" {
		errs = append(errs, "model.default is required")
	}
	if cfg.Model.BaseURL != "" {
		if err := validateURL(cfg.Model.BaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("model.baseURL: %v", err))
		}
	}
	if (cfg.Observability.Metrics || cfg.Observability.Healthz) && cfg.Observability.ListenAddress == "" {
		errs = append(errs, "observability.listenAddress is required when metrics or healthz is enabled")
	}

	seen := make(map[string]struct{}, len(cfg.Backends))
	for i, backend := range cfg.Backends {
		if _, exists := seen[backend.Label]; exists {
			errs = append(errs, fmt.Sprintf("backends[%d]: duplicate label %q", i, backend.Label))
		} else if backend.Label != "" {
			seen[backend.Label] = struct{}{}
		}
		errs = append(errs, validateBackend(backend, i)...)
	}
	return errs
}

func validateTimeouts(t domain.TimeoutConfig) []string {
	var errs []string
	fields := []struct {
		name  string
		value int
	}{
		{"timeouts.toolSeconds", t.ToolSeconds},
		{"timeouts.connectSeconds", t.ConnectSeconds},
		{"timeouts.healthCheckSeconds", t.HealthCheckSeconds},
		{"timeouts.maxAgeSeconds", t.MaxAgeSeconds},
		{"timeouts.globalConnectSeconds", t.GlobalConnectSeconds},
		{"timeouts.heartbeatSeconds", t.HeartbeatSeconds},
	}
	for _, field := range fields {
		if field.value < 1 {
			errs = append(errs, fmt.Sprintf("%s must be >= 1", field.name))
		}
	}
	if len(errs) > 0 {
		return errs
	}
	if t.HealthCheckSeconds >= t.ToolSeconds {
		errs = append(errs, "timeouts.healthCheckSeconds must be shorter than timeouts.toolSeconds")
	}
	if t.GlobalConnectSeconds < t.ConnectSeconds {
		errs = append(errs, "timeouts.globalConnectSeconds must be >= timeouts.connectSeconds")
	}
	return errs
}

func validateBackend(backend domain.BackendConfig, index int) []string {
	var errs []string
	prefix := fmt.Sprintf("backends[%d]", index)

	if !labelPattern.MatchString(backend.Label) {
		errs = append(errs, fmt.Sprintf("%s: label must match %s", prefix, labelPattern.String()))
	}
	if backend.Address != "" {
		if err := validateURL(backend.Address); err != nil {
			errs = append(errs, fmt.Sprintf("%s: address: %v", prefix, err))
		}
	}
	switch backend.Transport {
	case "", domain.TransportSSE, domain.TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Sprintf("%s: transport must be sse or http", prefix))
	}
	for key := range backend.Headers {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("%s: headers contain empty key", prefix))
			break
		}
	}

	auth := backend.Auth
	switch auth.Mode {
	case domain.AuthModeNone, domain.AuthModeStatic:
	case domain.AuthModeOAuth:
		if auth.OAuth.TokenURL != "" {
			if err := validateURL(auth.OAuth.TokenURL); err != nil {
				errs = append(errs, fmt.Sprintf("%s: auth.oauth.tokenURL: %v", prefix, err))
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("%s: auth.mode must be none, static or oauth", prefix))
	}
	return errs
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
