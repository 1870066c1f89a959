package domain

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// BackendIdentity is the cache key for a backend connection.
// Two identities with the same normalized address share one connection.
type BackendIdentity struct {
	Address string
	Label   string
}

// NewBackendIdentity builds a canonical identity from a raw address.
func NewBackendIdentity(address, label string) BackendIdentity {
	return BackendIdentity{
		Address: NormalizeAddress(address),
		Label:   strings.TrimSpace(label),
	}
}

// Key returns the cache key for the identity.
func (b BackendIdentity) Key() string {
	return b.Address
}

// NamespacePrefix returns the prefix applied to the backend's tool names.
func (b BackendIdentity) NamespacePrefix() string {
	return strings.ToLower(b.Label) + "_"
}

// BackendSpec describes one backend requested for a chat session.
type BackendSpec struct {
	Identity     BackendIdentity
	Transport    TransportKind
	Headers      map[string]string
	Credential   *CredentialContext
	RequiresAuth bool
	// ArgumentDefaults maps a backend tool name to top-level arguments
	// injected when the caller omits them.
	ArgumentDefaults map[string]map[string]any
}

// EffectiveTransport returns the pinned transport or the detected one.
func (s BackendSpec) EffectiveTransport() TransportKind {
	if pinned := NormalizeTransport(s.Transport); pinned != "" {
		return pinned
	}
	return DetectTransport(s.Identity.Address)
}

// TokenSource is the refreshable credential capability owned by the auth
// collaborator. Implementations persist refreshed tokens themselves.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// CredentialContext is read once at connect time.
type CredentialContext struct {
	Headers map[string]string
	Tokens  TokenSource
}

// ToolSpec is the backend-declared shape of a tool.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ToolResult is the outcome of a successful tool invocation.
type ToolResult struct {
	Text       string          `json:"text,omitempty"`
	Structured json.RawMessage `json:"structured,omitempty"`
}

// Tool is a callable remote operation.
type Tool interface {
	Spec() ToolSpec
	Invoke(ctx context.Context, args map[string]any) (*ToolResult, error)
}

// ToolSet maps namespaced tool names to tools.
type ToolSet map[string]Tool

// Names returns the tool names in sorted order.
func (s ToolSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Session is a live backend connection handle.
type Session interface {
	ListTools(ctx context.Context) ([]Tool, error)
	Close() error
}

// ConnectionRecord is a cached backend connection. Records are replaced,
// never mutated in place.
type ConnectionRecord struct {
	Identity  BackendIdentity
	Transport TransportKind
	Session   Session
	Tools     map[string]Tool
	CreatedAt time.Time
}

// Age reports how long the record has existed at now.
func (r *ConnectionRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// Tool looks up a discovered tool by its backend-local name.
func (r *ConnectionRecord) Tool(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	tool, ok := r.Tools[name]
	return tool, ok
}

// ToolNames returns the discovered tool names in sorted order.
func (r *ConnectionRecord) ToolNames() []string {
	return ToolSet(r.Tools).Names()
}

// ConnectResult is the merged outcome of connecting a request's backends.
type ConnectResult struct {
	Tools  ToolSet
	Errors []string
}
