package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/invoker"
	"guardiangw/internal/infra/telemetry"
)

// Pool acquires backend connections and replaces them on demand.
type Pool interface {
	invoker.Reconnector
	Acquire(ctx context.Context, spec domain.BackendSpec) (*domain.ConnectionRecord, error)
}

// Orchestrator connects one request's backends and merges their tools.
type Orchestrator struct {
	pool        Pool
	toolTimeout time.Duration
	logger      *zap.Logger
	metrics     domain.Metrics
}

// Options configures the orchestrator.
type Options struct {
	Pool        Pool
	ToolTimeout time.Duration
	Logger      *zap.Logger
	Metrics     domain.Metrics
}

func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Orchestrator{
		pool:        opts.Pool,
		toolTimeout: opts.ToolTimeout,
		logger:      logger.Named("orchestrator"),
		metrics:     metrics,
	}
}

type backendResult struct {
	active bool
	label  string
	tools  domain.ToolSet
	err    error
}

// Connect acquires every backend concurrently. A failing backend adds one
// entry to the error list and no tools; it never affects its siblings.
// Errors are reported in the order the backends were given.
func (o *Orchestrator) Connect(ctx context.Context, specs []domain.BackendSpec) domain.ConnectResult {
	results := make([]backendResult, len(specs))
	var wg sync.WaitGroup
	for i, spec := range specs {
		if spec.Identity.Address == "" {
			continue
		}
		results[i].active = true
		results[i].label = spec.Identity.Label
		if spec.RequiresAuth && spec.Credential == nil {
			results[i].err = domain.ErrNotAuthenticated
			continue
		}
		wg.Add(1)
		go func(i int, spec domain.BackendSpec) {
			defer wg.Done()
			results[i].tools, results[i].err = o.connectOne(ctx, spec)
		}(i, spec)
	}
	wg.Wait()

	merged := domain.ConnectResult{Tools: domain.ToolSet{}}
	for _, result := range results {
		if !result.active {
			continue
		}
		if result.err != nil {
			merged.Errors = append(merged.Errors, describe(result.label, result.err))
			continue
		}
		for name, tool := range result.tools {
			if _, exists := merged.Tools[name]; exists {
				o.logger.Warn("duplicate namespaced tool, keeping last",
					telemetry.BackendField(result.label),
					telemetry.ToolField(name),
				)
			}
			merged.Tools[name] = tool
		}
	}
	return merged
}

func (o *Orchestrator) connectOne(ctx context.Context, spec domain.BackendSpec) (domain.ToolSet, error) {
	rec, err := o.pool.Acquire(ctx, spec)
	if err != nil {
		return nil, err
	}
	return invoker.Wrap(rec, invoker.Options{
		Backend:     spec,
		Reconnector: o.pool,
		Timeout:     o.toolTimeout,
		Logger:      o.logger,
		Metrics:     o.metrics,
	}), nil
}

func describe(label string, err error) string {
	if errors.Is(err, domain.ErrNotAuthenticated) {
		return fmt.Sprintf("%s backend: not authenticated, sign in to connect", label)
	}
	return fmt.Sprintf("%s backend connection failed: %s", label, strings.TrimSpace(err.Error()))
}
