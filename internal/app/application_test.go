package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardiangw/internal/app/chat"
	"guardiangw/internal/infra/catalog"
	"guardiangw/internal/infra/telemetry"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestApplication_RunServesAndStops(t *testing.T) {
	cfg, err := catalog.NewLoader(nil).Parse(context.Background(), nil, "")
	require.NoError(t, err)
	cfg.ListenAddress = freeAddr(t)
	cfg.Observability.ListenAddress = freeAddr(t)
	cfg.TokenStorePath = filepath.Join(t.TempDir(), "tokens.db")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, cleanup, err := InitializeApplication(ctx, ServeConfig{}, cfg, LoggingConfig{Logger: zap.NewNop()})
	require.NoError(t, err)
	defer cleanup()

	errChan := make(chan error, 1)
	go func() { errChan <- application.Run() }()

	chatURL := fmt.Sprintf("http://%s%s", cfg.ListenAddress, chat.ChatPath)
	require.Eventually(t, func() bool {
		resp, err := http.Get(chatURL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusMethodNotAllowed
	}, 2*time.Second, 25*time.Millisecond)

	var report telemetry.HealthReport
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", cfg.Observability.ListenAddress))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		return json.NewDecoder(resp.Body).Decode(&report) == nil
	}, 2*time.Second, 25*time.Millisecond)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, 0, report.Gauges["cached_connections"])

	cancel()

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("application did not stop in time")
	}
}

func TestApplication_RunFailsOnBusyListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg, err := catalog.NewLoader(nil).Parse(context.Background(), nil, "")
	require.NoError(t, err)
	cfg.ListenAddress = ln.Addr().String()
	cfg.Observability.Metrics = false
	cfg.Observability.Healthz = false
	cfg.TokenStorePath = ""

	application, cleanup, err := InitializeApplication(context.Background(), ServeConfig{}, cfg, LoggingConfig{})
	require.NoError(t, err)
	defer cleanup()

	err = application.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat server failed")
}
