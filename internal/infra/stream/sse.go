package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"guardiangw/internal/domain"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// SSEWriter frames events as server-sent events and flushes each one.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers. It fails when the response
// cannot be flushed incrementally.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSEWriter{w: w, flusher: flusher}, nil
}

func (s *SSEWriter) WriteEvent(event domain.StreamEvent) error {
	if event.Type == domain.EventDone {
		if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
			return err
		}
		s.flusher.Flush()
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

var _ domain.EventWriter = (*SSEWriter)(nil)
