package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTransport(t *testing.T) {
	tests := []struct {
		address string
		want    TransportKind
	}{
		{address: "https://tools.example.com/sse", want: TransportSSE},
		{address: "https://tools.example.com/SSE/", want: TransportSSE},
		{address: "https://tools.example.com/mcp", want: TransportStreamableHTTP},
		{address: "https://tools.example.com/sse/extra", want: TransportStreamableHTTP},
		{address: "https://tools.example.com/mcp?mode=sse", want: TransportStreamableHTTP},
		{address: "://bad/sse", want: TransportSSE},
		{address: "", want: TransportStreamableHTTP},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTransport(tt.address))
		})
	}
}

func TestNormalizeTransport(t *testing.T) {
	assert.Equal(t, TransportKind(""), NormalizeTransport("  "))
	assert.Equal(t, TransportSSE, NormalizeTransport("server-push"))
	assert.Equal(t, TransportStreamableHTTP, NormalizeTransport("Streamable-HTTP"))
	assert.Equal(t, TransportKind("grpc"), NormalizeTransport(" GRPC "))
}

func TestBackendIdentity(t *testing.T) {
	a := NewBackendIdentity(" https://tools.example.com/mcp/ ", " Docs ")
	b := NewBackendIdentity("https://tools.example.com/mcp", "other")

	assert.Equal(t, "https://tools.example.com/mcp", a.Address)
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "docs_", a.NamespacePrefix())
}

func TestBackendSpec_EffectiveTransport(t *testing.T) {
	spec := BackendSpec{Identity: NewBackendIdentity("https://tools.example.com/sse", "docs")}
	assert.Equal(t, TransportSSE, spec.EffectiveTransport())

	spec.Transport = "http"
	assert.Equal(t, TransportStreamableHTTP, spec.EffectiveTransport())
}
