package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"guardiangw/internal/domain"
)

const (
	defaultShutdownTimeout   = 5 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
)

// ErrListen marks a listener that could not be bound.
var ErrListen = errors.New("listen failed")

// HTTPServerOptions configures the observability listener.
type HTTPServerOptions struct {
	Addr          string
	EnableMetrics bool
	EnableHealthz bool
	Health        *HealthTracker
	Registry      prometheus.Gatherer
	// ShutdownTimeout bounds the drain of in-flight scrapes on shutdown.
	ShutdownTimeout time.Duration
}

// StartHTTPServer serves /metrics and /healthz until ctx is done. It returns
// nil right away when both endpoints are disabled.
func StartHTTPServer(ctx context.Context, opts HTTPServerOptions, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !opts.EnableMetrics && !opts.EnableHealthz {
		return nil
	}

	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	if opts.EnableMetrics {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	if opts.EnableHealthz {
		mux.Handle("/healthz", healthHandler(opts.Health))
	}

	logger = logger.Named("observability").With(
		zap.Bool("metrics", opts.EnableMetrics),
		zap.Bool("healthz", opts.EnableHealthz),
	)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: defaultReadHeaderTimeout}
	if err := Serve(ctx, server, opts.ShutdownTimeout, logger); err != nil {
		return fmt.Errorf("observability server failed to start: %w", err)
	}
	return nil
}

// Serve binds server.Addr, serves until ctx is done and then drains
// in-flight requests for at most shutdownTimeout. Bind failures wrap
// ErrListen and are returned before any request is accepted.
func Serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrListen, server.Addr, err)
	}
	logger.Info("http server listening", zap.String("addr", listener.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("http server stopped")
	return nil
}

func healthHandler(tracker *HealthTracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		report := tracker.Report()
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(status)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}
