package telemetry

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-Id"

type requestContextKey struct{}

// RequestMeta correlates log lines for one inbound chat request.
type RequestMeta struct {
	RequestID string
	TraceID   string
	SpanID    string
}

func (m RequestMeta) IsZero() bool {
	return m.RequestID == "" && m.TraceID == "" && m.SpanID == ""
}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, requestContextKey{}, meta)
}

func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	if ctx == nil {
		return RequestMeta{}, false
	}
	meta, ok := ctx.Value(requestContextKey{}).(RequestMeta)
	return meta, ok && !meta.IsZero()
}

func TraceSpanFromContext(ctx context.Context) (string, string) {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

// EnsureRequestMeta attaches request metadata, generating a request ID when
// none is supplied.
func EnsureRequestMeta(ctx context.Context, requestID string) (context.Context, RequestMeta) {
	requestID = strings.TrimSpace(requestID)
	if existing, ok := RequestMetaFromContext(ctx); ok && requestID == "" {
		requestID = existing.RequestID
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	traceID, spanID := TraceSpanFromContext(ctx)
	meta := RequestMeta{RequestID: requestID, TraceID: traceID, SpanID: spanID}
	return WithRequestMeta(ctx, meta), meta
}

// RequestMiddleware tags every request with metadata and echoes the request
// ID back to the caller.
func RequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, meta := EnsureRequestMeta(r.Context(), r.Header.Get(RequestIDHeader))
		w.Header().Set(RequestIDHeader, meta.RequestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequestFields(meta RequestMeta) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if meta.RequestID != "" {
		fields = append(fields, RequestIDField(meta.RequestID))
	}
	if meta.TraceID != "" {
		fields = append(fields, TraceIDField(meta.TraceID))
	}
	if meta.SpanID != "" {
		fields = append(fields, SpanIDField(meta.SpanID))
	}
	return fields
}

func LoggerWithRequest(ctx context.Context, base *zap.Logger) *zap.Logger {
	logger := base
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, ok := RequestMetaFromContext(ctx)
	if !ok {
		return logger
	}
	return logger.With(RequestFields(meta)...)
}
