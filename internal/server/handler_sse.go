package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleSSEProcesses streams the process table via Server-Sent Events.
// GET /api/v1/sse/processes
func (s *Server) handleSSEProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireView(w, reqID) {
		return
	}

	// Set headers for SSE.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	table := s.currentTable()
	if err := sendSSEEvent(w, flusher, "init", table); err != nil {
		s.logger.Debug("sse client disconnected", "error", err)
		return
	}
	if table.Done {
		sendSSEEvent(w, flusher, "complete", table)
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	lastSwitches := table.ContextSwitches

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			table = s.currentTable()

			if table.Done {
				sendSSEEvent(w, flusher, "complete", table)
				return
			}
			// Every dispatch visit bumps the switch counter, so an unchanged
			// counter means nothing worth sending.
			if table.ContextSwitches != lastSwitches {
				if err := sendSSEEvent(w, flusher, "update", table); err != nil {
					s.logger.Debug("sse client disconnected")
					return
				}
				lastSwitches = table.ContextSwitches
			} else {
				fmt.Fprintf(w, ": heartbeat\n\n")
				flusher.Flush()
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
	if err != nil {
		return err
	}

	flusher.Flush()
	return nil
}
