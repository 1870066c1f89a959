package chat

import (
	"context"
	"maps"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/credentials"
	"guardiangw/internal/infra/telemetry"
)

// CredentialResolver supplies a backend's credential for one request.
type CredentialResolver interface {
	Resolve(ctx context.Context, backend domain.BackendConfig, req credentials.RequestCredentials) (*domain.CredentialContext, error)
}

type requestBackend struct {
	config      domain.BackendConfig
	accessToken string
}

// overlayBackends applies request overlays to the configured backends.
// Configured backends keep their order; request-only labels follow in
// sorted order with no auth.
func overlayBackends(configured []domain.BackendConfig, overlays map[string]BackendOverlay) []requestBackend {
	normalized := make(map[string]BackendOverlay, len(overlays))
	for label, overlay := range overlays {
		normalized[strings.ToLower(strings.TrimSpace(label))] = overlay
	}

	out := make([]requestBackend, 0, len(configured)+len(normalized))
	seen := make(map[string]struct{}, len(configured))
	for _, backend := range configured {
		seen[backend.Label] = struct{}{}
		entry := requestBackend{config: backend}
		if overlay, ok := normalized[backend.Label]; ok {
			entry = applyOverlay(entry, overlay)
		}
		out = append(out, entry)
	}

	extra := make([]string, 0)
	for label := range normalized {
		if _, ok := seen[label]; !ok && label != "" {
			extra = append(extra, label)
		}
	}
	sort.Strings(extra)
	for _, label := range extra {
		entry := requestBackend{config: domain.BackendConfig{
			Label:   label,
			Enabled: true,
			Auth:    domain.AuthConfig{Mode: domain.AuthModeNone},
		}}
		out = append(out, applyOverlay(entry, normalized[label]))
	}
	return out
}

func applyOverlay(entry requestBackend, overlay BackendOverlay) requestBackend {
	if address := strings.TrimSpace(overlay.Address); address != "" {
		entry.config.Address = domain.NormalizeAddress(address)
	}
	if overlay.Enabled != nil {
		entry.config.Enabled = *overlay.Enabled
	}
	if overlay.Transport != "" {
		entry.config.Transport = domain.NormalizeTransport(domain.TransportKind(overlay.Transport))
	}
	entry.accessToken = strings.TrimSpace(overlay.AccessToken)
	return entry
}

// buildSpecs turns the enabled, addressed backends into connect specs.
func (h *Handler) buildSpecs(ctx context.Context, r *http.Request, req Request, cfg domain.GatewayConfig) []domain.BackendSpec {
	logger := telemetry.LoggerWithRequest(ctx, h.logger)
	backends := overlayBackends(cfg.Backends, req.Backends)
	specs := make([]domain.BackendSpec, 0, len(backends))
	for _, entry := range backends {
		backend := entry.config
		if !backend.Enabled || backend.Address == "" {
			continue
		}

		headers := make(map[string]string, len(backend.Headers)+len(backend.ForwardHeaders)+1)
		maps.Copy(headers, backend.Headers)
		if backend.TunnelSecretHeader != "" && req.TunnelSecret != "" {
			headers[backend.TunnelSecretHeader] = req.TunnelSecret
		}
		for _, name := range backend.ForwardHeaders {
			if value := r.Header.Get(name); value != "" {
				headers[name] = value
			}
		}

		var credential *domain.CredentialContext
		if h.credentials != nil {
			resolved, err := h.credentials.Resolve(ctx, backend, credentials.RequestCredentials{
				Header:      r.Header,
				Cookies:     r.Cookies(),
				AccessToken: entry.accessToken,
			})
			if err != nil {
				logger.Warn("credential lookup failed", telemetry.BackendField(backend.Label), zap.Error(err))
			}
			credential = resolved
		}

		specs = append(specs, domain.BackendSpec{
			Identity:         domain.NewBackendIdentity(backend.Address, backend.Label),
			Transport:        backend.Transport,
			Headers:          headers,
			Credential:       credential,
			RequiresAuth:     backend.Auth.Mode == domain.AuthModeOAuth,
			ArgumentDefaults: backend.ArgumentDefaults,
		})
	}
	return specs
}
