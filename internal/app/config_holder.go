package app

import (
	"sync/atomic"

	"guardiangw/internal/domain"
)

// ConfigHolder publishes the current configuration. Reloads replace the
// whole value; readers never see a partial update.
type ConfigHolder struct {
	current atomic.Pointer[domain.GatewayConfig]
}

func NewConfigHolder(cfg domain.GatewayConfig) *ConfigHolder {
	holder := &ConfigHolder{}
	holder.Store(cfg)
	return holder
}

// Load returns the current configuration.
func (h *ConfigHolder) Load() domain.GatewayConfig {
	cfg := h.current.Load()
	if cfg == nil {
		return domain.GatewayConfig{}
	}
	return *cfg
}

// Store swaps in a new configuration.
func (h *ConfigHolder) Store(cfg domain.GatewayConfig) {
	h.current.Store(&cfg)
}
