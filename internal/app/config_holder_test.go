package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"guardiangw/internal/domain"
)

func TestConfigHolder_StoreReplaces(t *testing.T) {
	holder := NewConfigHolder(domain.GatewayConfig{ListenAddress: "127.0.0.1:1", MaxSteps: 3})
	assert.Equal(t, 3, holder.Load().MaxSteps)

	holder.Store(domain.GatewayConfig{ListenAddress: "127.0.0.1:2", MaxSteps: 7})
	cfg := holder.Load()
	assert.Equal(t, "127.0.0.1:2", cfg.ListenAddress)
	assert.Equal(t, 7, cfg.MaxSteps)
}

func TestConfigHolder_ZeroValue(t *testing.T) {
	var holder ConfigHolder
	assert.Equal(t, domain.GatewayConfig{}, holder.Load())
}

func TestConfigHolder_ConcurrentAccess(t *testing.T) {
	holder := NewConfigHolder(domain.GatewayConfig{MaxSteps: 1})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(steps int) {
			defer wg.Done()
			holder.Store(domain.GatewayConfig{MaxSteps: steps})
		}(i + 1)
		go func() {
			defer wg.Done()
			assert.GreaterOrEqual(t, holder.Load().MaxSteps, 1)
		}()
	}
	wg.Wait()
}
