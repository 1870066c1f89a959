package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"guardiangw/internal/domain"
	"guardiangw/internal/infra/stream"
	"guardiangw/internal/infra/telemetry"
)

const (
	// ChatPath is the route served by the handler.
	ChatPath        = "/api/chat"
	maxRequestBytes = 20 << 20
)

// Connector runs the connect phase for a request's backends.
type Connector interface {
	Connect(ctx context.Context, specs []domain.BackendSpec) domain.ConnectResult
}

// Streamer drives one outbound session.
type Streamer interface {
	Run(ctx context.Context, w domain.EventWriter, connect domain.ConnectFunc, generator domain.Generator, req domain.GenerationRequest) domain.SessionState
}

// Handler serves the chat endpoint.
type Handler struct {
	config      func() domain.GatewayConfig
	connector   Connector
	streamer    Streamer
	generator   domain.Generator
	credentials CredentialResolver
	logger      *zap.Logger
}

// HandlerOptions configures a Handler. Config is read once per request so
// reloads apply to the next request.
type HandlerOptions struct {
	Config      func() domain.GatewayConfig
	Connector   Connector
	Streamer    Streamer
	Generator   domain.Generator
	Credentials CredentialResolver
	Logger      *zap.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	config := opts.Config
	if config == nil {
		config = func() domain.GatewayConfig { return domain.GatewayConfig{} }
	}
	return &Handler{
		config:      config,
		connector:   opts.Connector,
		streamer:    opts.Streamer,
		generator:   opts.Generator,
		credentials: opts.Credentials,
		logger:      logger.Named("chat"),
	}
}

// Routes mounts the chat endpoint behind the request metadata middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(ChatPath, h)
	return telemetry.RequestMiddleware(mux)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req Request
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	messages := history(req.Messages)
	if len(messages) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("messages are required"))
		return
	}

	ctx := r.Context()
	logger := telemetry.LoggerWithRequest(ctx, h.logger)
	cfg := h.config()
	specs := h.buildSpecs(ctx, r, req, cfg)
	genReq := domain.GenerationRequest{
		Model:    cfg.Model.Resolve(req.Model),
		System:   BuildSystemPrompt(cfg.SystemPrompt, req.SelectedNode, req.PluginContext),
		Messages: messages,
		MaxSteps: cfg.MaxSteps,
	}

	writer, err := stream.NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logger.Info("chat session started",
		zap.String("model", genReq.Model),
		zap.Int("backends", len(specs)),
		zap.Int("messages", len(messages)),
	)
	connect := func(ctx context.Context) domain.ConnectResult {
		return h.connector.Connect(ctx, specs)
	}
	h.streamer.Run(ctx, writer, connect, h.generator, genReq)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, map[string]any{"error": msg})
}
