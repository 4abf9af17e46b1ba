package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/capitalize-ai/workspace-assistant/pkg/metrics"
)

// sseStream commits event-stream headers on first use so that failures before
// any output can still be answered with a plain JSON status.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseStream) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	s.w.WriteHeader(http.StatusOK)
	metrics.IncrementSSEConnections()
}

func (s *sseStream) close() {
	if s.started {
		metrics.DecrementSSEConnections()
	}
}

func (s *sseStream) send(event string, data interface{}) error {
	s.start()
	return sendSSEEvent(s.w, s.flusher, event, data)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
