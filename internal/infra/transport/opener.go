package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"guardiangw/internal/domain"
)

// MCPOpener connects to remote MCP backends over streamable HTTP or SSE.
type MCPOpener struct {
	logger     *zap.Logger
	base       http.RoundTripper
	maxRetries int
	impl       *mcp.Implementation
}

// MCPOpenerOptions configures the opener.
type MCPOpenerOptions struct {
	Logger *zap.Logger
	// Base overrides the HTTP transport, mostly for tests.
	Base       http.RoundTripper
	MaxRetries int
}

func NewMCPOpener(opts MCPOpenerOptions) *MCPOpener {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return &MCPOpener{
		logger:     logger.Named("mcp_opener"),
		base:       base,
		maxRetries: opts.MaxRetries,
		impl: &mcp.Implementation{
			Name:    domain.DefaultClientName,
			Version: domain.DefaultClientVersion,
		},
	}
}

// Open performs the MCP initialize handshake and returns the live session.
func (o *MCPOpener) Open(ctx context.Context, spec domain.BackendSpec) (domain.Session, error) {
	endpoint := strings.TrimSpace(spec.Identity.Address)
	if endpoint == "" {
		return nil, errors.New("backend address is required")
	}

	headers, err := buildHeaders(spec)
	if err != nil {
		return nil, err
	}
	rt := &headerRoundTripper{
		base:    o.base,
		headers: headers,
		logger:  o.logger.With(zap.String("backend", spec.Identity.Label)),
	}
	if spec.Credential != nil && spec.Credential.Tokens != nil {
		token, err := spec.Credential.Tokens.Token(ctx)
		if err != nil {
			return nil, domain.E(domain.CodeUnauthenticated, "open", "", err)
		}
		rt.tokens = spec.Credential.Tokens
		rt.token = token
	}
	client := &http.Client{Transport: rt}

	var transport mcp.Transport
	kind := spec.EffectiveTransport()
	switch kind {
	case domain.TransportSSE:
		transport = &mcp.SSEClientTransport{
			Endpoint:   endpoint,
			HTTPClient: client,
		}
	default:
		transport = &mcp.StreamableClientTransport{
			Endpoint:   endpoint,
			HTTPClient: client,
			MaxRetries: effectiveMaxRetries(o.maxRetries),
		}
	}

	session, err := mcp.NewClient(o.impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", kind, err)
	}
	return newRemoteSession(session, spec.Identity.Label), nil
}

func effectiveMaxRetries(value int) int {
	if value == 0 {
		return domain.DefaultStreamableHTTPMaxRetries
	}
	return value
}
