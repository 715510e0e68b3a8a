package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/cpusched/pkg/model"
)

// processTable is the live view of a run.
type processTable struct {
	RunID           string                  `json:"run_id"`
	Algorithm       model.Algorithm         `json:"algorithm"`
	Elapsed         time.Duration           `json:"elapsed_ns"`
	ContextSwitches int64                   `json:"context_switches"`
	Done            bool                    `json:"done"`
	Counts          model.StateCounts       `json:"counts"`
	Processes       []model.ProcessSnapshot `json:"processes"`
}

func (s *Server) currentTable() processTable {
	snaps := s.view.Snapshot()
	return processTable{
		RunID:           s.view.ID(),
		Algorithm:       s.view.Algorithm(),
		Elapsed:         s.view.Elapsed(),
		ContextSwitches: s.view.ContextSwitches(),
		Done:            s.view.Done(),
		Counts:          model.CountStates(snaps),
		Processes:       snaps,
	}
}

// requireView answers 503 when no run is attached.
func (s *Server) requireView(w http.ResponseWriter, reqID string) bool {
	if s.view == nil {
		respondError(w, reqID, http.StatusServiceUnavailable,
			model.NewConfigError(model.ErrUnavailable, "no run attached to this server"))
		return false
	}
	return true
}

// handleListProcesses returns the process table of the live run.
// GET /api/v1/processes
func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireView(w, reqID) {
		return
	}
	respondOK(w, reqID, s.currentTable())
}

// handleGetProcess returns one process of the live run.
// GET /api/v1/processes/{name}
func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireView(w, reqID) {
		return
	}
	name := chi.URLParam(r, "name")
	for _, snap := range s.view.Snapshot() {
		if snap.Name == name {
			respondOK(w, reqID, snap)
			return
		}
	}
	respondErr(w, reqID, model.NewNotFoundError("process", name))
}
