package invoker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/deadline"
	"guardiangw/internal/infra/telemetry"
)

// Reconnector reads and replaces a backend's cached connection.
type Reconnector interface {
	Current(id domain.BackendIdentity) (*domain.ConnectionRecord, bool)
	Reconnect(ctx context.Context, spec domain.BackendSpec) (*domain.ConnectionRecord, error)
}

// Options configures resilient tool wrappers for one backend.
type Options struct {
	Backend     domain.BackendSpec
	Reconnector Reconnector
	Timeout     time.Duration
	Logger      *zap.Logger
	Metrics     domain.Metrics
}

// ResilientTool exposes a backend tool under its namespaced name. Each call
// runs against the backend's currently cached record and is bounded by the
// tool timeout. On failure the backend is reconnected, unless another call
// already replaced the record, and the call retried once. If the retry
// cannot happen or also fails, the first failure is returned.
type ResilientTool struct {
	exposed   string
	name      string
	backend   domain.BackendSpec
	reconnect Reconnector
	timeout   time.Duration
	defaults  map[string]any
	validator *argValidator
	logger    *zap.Logger
	metrics   domain.Metrics

	mu      sync.Mutex
	record  *domain.ConnectionRecord
	current domain.Tool
}

// Wrap decorates every tool of a connection record. Keys of the returned set
// are namespaced with the backend label.
func Wrap(rec *domain.ConnectionRecord, opts Options) domain.ToolSet {
	set := make(domain.ToolSet, len(rec.Tools))
	for _, tool := range rec.Tools {
		wrapped := NewResilientTool(tool, opts)
		wrapped.record = rec
		set[wrapped.exposed] = wrapped
	}
	return set
}

func NewResilientTool(tool domain.Tool, opts Options) *ResilientTool {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Duration(domain.DefaultToolTimeoutSeconds) * time.Second
	}
	spec := tool.Spec()
	logger = logger.Named("tool").With(
		telemetry.BackendField(opts.Backend.Identity.Label),
		telemetry.ToolField(spec.Name),
	)
	return &ResilientTool{
		exposed:   opts.Backend.Identity.NamespacePrefix() + spec.Name,
		name:      spec.Name,
		backend:   opts.Backend,
		reconnect: opts.Reconnector,
		timeout:   timeout,
		defaults:  argumentDefaults(opts.Backend, spec.Name),
		validator: newArgValidator(spec.InputSchema, logger),
		logger:    logger,
		metrics:   metrics,
		current:   tool,
	}
}

// Spec returns the backend's declaration under the namespaced name.
func (t *ResilientTool) Spec() domain.ToolSpec {
	spec := t.bound().Spec()
	spec.Name = t.exposed
	return spec
}

// Invoke runs the call detached from caller cancellation so an in-flight
// call completes even if the client goes away; only the tool timeout
// bounds it.
func (t *ResilientTool) Invoke(ctx context.Context, args map[string]any) (*domain.ToolResult, error) {
	started := time.Now()
	label := t.backend.Identity.Label
	logger := telemetry.LoggerWithRequest(ctx, t.logger)
	ctx = context.WithoutCancel(ctx)

	args = applyDefaults(args, t.defaults)
	if err := t.validator.Validate(args); err != nil {
		t.metrics.ObserveToolCall(label, domain.ToolOutcomeInvalid, time.Since(started))
		return nil, domain.E(domain.CodeInvalidArgument, "invoke "+t.exposed, "", err)
	}

	used, tool := t.resolve()
	result, firstErr := t.attempt(ctx, tool, args)
	if firstErr == nil {
		t.metrics.ObserveToolCall(label, domain.ToolOutcomeSuccess, time.Since(started))
		return result, nil
	}

	logger.Warn("tool call failed, reconnecting",
		telemetry.EventField(telemetry.EventToolRetry),
		zap.Error(firstErr),
	)
	fresh, ok := t.refresh(ctx, used, logger)
	if !ok {
		t.fail(logger, firstErr, started)
		return nil, firstErr
	}

	result, err := t.attempt(ctx, fresh, args)
	if err != nil {
		logger.Debug("retry after reconnect failed", telemetry.AttemptField(2), zap.Error(err))
		t.fail(logger, firstErr, started)
		return nil, firstErr
	}
	t.metrics.ObserveToolCall(label, domain.ToolOutcomeRetried, time.Since(started))
	return result, nil
}

func (t *ResilientTool) attempt(ctx context.Context, tool domain.Tool, args map[string]any) (*domain.ToolResult, error) {
	result, err := deadline.Run(ctx, t.timeout, func(ctx context.Context) (*domain.ToolResult, error) {
		return tool.Invoke(ctx, args)
	})
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, &domain.ToolTimeoutError{Tool: t.name, Timeout: t.timeout}
	}
	return result, err
}

// resolve binds the tool to the backend's cached record when that record
// has replaced the one the tool was last bound to.
func (t *ResilientTool) resolve() (*domain.ConnectionRecord, domain.Tool) {
	if t.reconnect != nil {
		if rec, ok := t.reconnect.Current(t.backend.Identity); ok {
			if rec, tool, ok := t.rebind(rec); ok {
				return rec, tool
			}
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.record, t.current
}

// refresh finds a replacement for the record the failed attempt used. A
// record already replaced by another call is reused; otherwise the backend
// is reconnected.
func (t *ResilientTool) refresh(ctx context.Context, used *domain.ConnectionRecord, logger *zap.Logger) (domain.Tool, bool) {
	if t.reconnect == nil {
		return nil, false
	}
	if rec, ok := t.reconnect.Current(t.backend.Identity); ok && rec != used {
		if _, tool, ok := t.rebind(rec); ok {
			logger.Debug("record already replaced, retrying without reconnect")
			return tool, true
		}
	}
	rec, err := t.reconnect.Reconnect(ctx, t.backend)
	if err != nil {
		logger.Warn("reconnect failed", zap.Error(err))
		return nil, false
	}
	_, fresh, ok := t.rebind(rec)
	if !ok {
		logger.Warn("tool missing after reconnect")
		return nil, false
	}
	return fresh, true
}

func (t *ResilientTool) rebind(rec *domain.ConnectionRecord) (*domain.ConnectionRecord, domain.Tool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec == t.record && t.current != nil {
		return t.record, t.current, true
	}
	tool, ok := rec.Tool(t.name)
	if !ok {
		return nil, nil, false
	}
	t.record = rec
	t.current = tool
	return rec, tool, true
}

func (t *ResilientTool) bound() domain.Tool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *ResilientTool) fail(logger *zap.Logger, err error, started time.Time) {
	duration := time.Since(started)
	t.metrics.ObserveToolCall(t.backend.Identity.Label, domain.ToolOutcomeFailed, duration)
	logger.Warn("tool call failed",
		telemetry.EventField(telemetry.EventToolFailure),
		telemetry.DurationField(duration),
		zap.Error(err),
	)
}

var _ domain.Tool = (*ResilientTool)(nil)
