package connpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"guardiangw/internal/domain"
)

type fakeTool struct {
	name string
}

func (t fakeTool) Spec() domain.ToolSpec { return domain.ToolSpec{Name: t.name} }

func (t fakeTool) Invoke(context.Context, map[string]any) (*domain.ToolResult, error) {
	return &domain.ToolResult{Text: t.name}, nil
}

type fakeSession struct {
	tools   []string
	listErr error
	block   chan struct{}
	closed  atomic.Int32
	lists   atomic.Int32
}

func (s *fakeSession) ListTools(ctx context.Context) ([]domain.Tool, error) {
	s.lists.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.listErr != nil {
		return nil, s.listErr
	}
	tools := make([]domain.Tool, 0, len(s.tools))
	for _, name := range s.tools {
		tools = append(tools, fakeTool{name: name})
	}
	return tools, nil
}

func (s *fakeSession) Close() error {
	s.closed.Add(1)
	return nil
}

type fakeOpener struct {
	mu       sync.Mutex
	sessions []*fakeSession
	opened   []*fakeSession
	err      error
	tools    []string
}

func (o *fakeOpener) Open(_ context.Context, _ domain.BackendSpec) (domain.Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	var session *fakeSession
	if len(o.sessions) > 0 {
		session = o.sessions[0]
		o.sessions = o.sessions[1:]
	} else {
		session = &fakeSession{tools: o.tools}
	}
	o.opened = append(o.opened, session)
	return session, nil
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

var errRefused = errors.New("connection refused")
