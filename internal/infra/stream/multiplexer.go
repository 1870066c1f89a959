package stream

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/telemetry"
)

// Multiplexer drives the outbound stream of a chat session. Writes are
// serialized per session; ordering follows the order events are produced.
type Multiplexer struct {
	heartbeat     time.Duration
	globalTimeout time.Duration
	maxSteps      int
	now           func() time.Time
	newID         func() string
	logger        *zap.Logger
	metrics       domain.Metrics
}

// MultiplexerOptions configures a Multiplexer.
type MultiplexerOptions struct {
	Heartbeat     time.Duration
	GlobalTimeout time.Duration
	MaxSteps      int
	Now           func() time.Time
	NewID         func() string
	Logger        *zap.Logger
	Metrics       domain.Metrics
}

func NewMultiplexer(opts MultiplexerOptions) *Multiplexer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	heartbeat := opts.Heartbeat
	if heartbeat <= 0 {
		heartbeat = time.Duration(domain.DefaultHeartbeatSeconds) * time.Second
	}
	globalTimeout := opts.GlobalTimeout
	if globalTimeout <= 0 {
		globalTimeout = time.Duration(domain.DefaultGlobalConnectSeconds) * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Multiplexer{
		heartbeat:     heartbeat,
		globalTimeout: globalTimeout,
		maxSteps:      opts.MaxSteps,
		now:           now,
		newID:         newID,
		logger:        logger.Named("stream"),
		metrics:       metrics,
	}
}

// session tracks one outbound stream. After the first write error nothing
// more is written, but the session still runs to completion.
type session struct {
	w      domain.EventWriter
	logger *zap.Logger

	mu     sync.Mutex
	broken bool
}

func (s *session) write(event domain.StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return
	}
	if err := s.w.WriteEvent(event); err != nil {
		s.broken = true
		s.logger.Debug("client stream closed, discarding further events",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

func (s *session) text(id, delta string) {
	s.write(domain.StreamEvent{Type: domain.EventTextStart, ID: id})
	s.write(domain.StreamEvent{Type: domain.EventTextDelta, ID: id, Delta: delta})
	s.write(domain.StreamEvent{Type: domain.EventTextEnd, ID: id})
}

// Run drives one session from Connecting to a terminal state and returns
// that state. The connect phase is detached from ctx so a client disconnect
// never aborts backend connects already under way.
func (m *Multiplexer) Run(
	ctx context.Context,
	w domain.EventWriter,
	connect domain.ConnectFunc,
	generator domain.Generator,
	req domain.GenerationRequest,
) domain.SessionState {
	started := m.now()
	logger := telemetry.LoggerWithRequest(ctx, m.logger)
	s := &session{w: w, logger: logger}

	state := m.run(ctx, s, connect, generator, req)

	duration := m.now().Sub(started)
	m.metrics.ObserveSession(state, duration)
	logger.Info("chat session ended",
		telemetry.EventField(telemetry.EventSessionEnd),
		telemetry.StateField(string(state)),
		telemetry.DurationField(duration),
	)
	return state
}

func (m *Multiplexer) run(
	ctx context.Context,
	s *session,
	connect domain.ConnectFunc,
	generator domain.Generator,
	req domain.GenerationRequest,
) domain.SessionState {
	s.write(domain.StreamEvent{Type: domain.EventStart})
	statusID := "status-" + m.newID()
	s.write(domain.StreamEvent{Type: domain.EventTextStart, ID: statusID})
	s.write(domain.StreamEvent{Type: domain.EventTextDelta, ID: statusID, Delta: domain.MarkerStatusConnecting})

	results := make(chan domain.ConnectResult, 1)
	connectCtx := context.WithoutCancel(ctx)
	go func() {
		results <- connect(connectCtx)
	}()

	ticker := time.NewTicker(m.heartbeat)
	timer := time.NewTimer(m.globalTimeout)
	defer timer.Stop()

	var result domain.ConnectResult
connecting:
	for {
		select {
		case <-ticker.C:
			s.write(domain.StreamEvent{Type: domain.EventPing, Timestamp: m.now().UnixMilli()})
			m.metrics.IncHeartbeats()
		case result = <-results:
			ticker.Stop()
			break connecting
		case <-timer.C:
			ticker.Stop()
			err := domain.GlobalConnectTimeout(m.globalTimeout)
			s.logger.Error("backend connect phase timed out",
				telemetry.EventField(telemetry.EventGlobalConnectTimeout),
				zap.Error(err),
			)
			s.write(domain.StreamEvent{Type: domain.EventTextEnd, ID: statusID})
			m.fail(s, "backend connection error: "+err.Error())
			return domain.SessionFailed
		}
	}

	// Ready: the connected marker is written exactly once.
	s.write(domain.StreamEvent{Type: domain.EventTextDelta, ID: statusID, Delta: domain.MarkerStatusConnected})
	s.write(domain.StreamEvent{Type: domain.EventTextEnd, ID: statusID})
	if len(result.Errors) > 0 {
		block := "\n\n" + domain.MarkerErrorBlockOpen + strings.Join(result.Errors, "\n") + domain.MarkerErrorBlockClose + "\n\n"
		s.text("error-"+m.newID(), block)
	}

	req.Tools = result.Tools
	if req.MaxSteps <= 0 {
		req.MaxSteps = m.maxSteps
	}
	info, err := generator.Generate(ctx, req, s.write)
	if err != nil {
		s.logger.Warn("generation failed", zap.Error(err))
		m.fail(s, err.Error())
		return domain.SessionFailed
	}

	state := domain.SessionDone
	if info.HitStepLimit(req.MaxSteps) {
		s.text("continuation-"+m.newID(), domain.MarkerContinuationAvailable)
		state = domain.SessionContinuation
	}
	reason := info.Reason
	if reason == "" {
		reason = domain.FinishStop
	}
	s.write(domain.StreamEvent{Type: domain.EventFinish, FinishReason: reason})
	s.write(domain.StreamEvent{Type: domain.EventDone})
	return state
}

func (m *Multiplexer) fail(s *session, message string) {
	s.write(domain.StreamEvent{Type: domain.EventError, ErrorText: message})
	s.write(domain.StreamEvent{Type: domain.EventFinish, FinishReason: domain.FinishError})
	s.write(domain.StreamEvent{Type: domain.EventDone})
}
