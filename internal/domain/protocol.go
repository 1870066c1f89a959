package domain

import (
	"net/url"
	"strings"
)

// TransportKind identifies the wire mechanism used to reach a backend.
type TransportKind string

const (
	// TransportStreamableHTTP is the request/response MCP transport.
	TransportStreamableHTTP TransportKind = "http"
	// TransportSSE is the server-push stream MCP transport.
	TransportSSE TransportKind = "sse"
)

// SSEPathSuffix marks an address that speaks the server-push transport.
const SSEPathSuffix = "/sse"

// NormalizeTransport maps user-facing spellings onto a known transport.
// An empty value stays empty so callers can fall back to detection.
func NormalizeTransport(transport TransportKind) TransportKind {
	trimmed := strings.ToLower(strings.TrimSpace(string(transport)))
	switch trimmed {
	case "":
		return ""
	case "sse", "server-push":
		return TransportSSE
	case "http", "streamable_http", "streamable-http":
		return TransportStreamableHTTP
	default:
		return TransportKind(trimmed)
	}
}

// NormalizeAddress trims whitespace and strips trailing slashes.
func NormalizeAddress(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// DetectTransport infers the transport from an address. Paths ending in the
// SSE suffix use the server-push transport; anything else, including
// unparseable input, uses request/response.
func DetectTransport(address string) TransportKind {
	normalized := NormalizeAddress(address)
	path := normalized
	if parsed, err := url.Parse(normalized); err == nil && parsed.Path != "" {
		path = parsed.Path
	}
	if strings.HasSuffix(strings.ToLower(path), SSEPathSuffix) {
		return TransportSSE
	}
	return TransportStreamableHTTP
}
