package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/cpusched/pkg/model"
)

func (s *Server) requireStore(w http.ResponseWriter, reqID string) bool {
	if s.store == nil {
		respondError(w, reqID, http.StatusServiceUnavailable,
			model.NewConfigError(model.ErrUnavailable, "run history is disabled"))
		return false
	}
	return true
}

// handleListRuns lists stored runs.
// GET /api/v1/runs?algorithm=&limit=&offset=
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}

	opts := model.DefaultListOptions()
	q := r.URL.Query()
	if alg := q.Get("algorithm"); alg != "" {
		parsed, err := model.ParseAlgorithm(alg)
		if err != nil {
			respondErr(w, reqID, err)
			return
		}
		opts.Algorithm = string(parsed)
	}
	var details []model.FieldError
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			details = append(details, model.FieldError{Field: "limit", Message: "must be a positive integer"})
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			details = append(details, model.FieldError{Field: "offset", Message: "must be a non-negative integer"})
		}
		opts.Offset = n
	}
	if len(details) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewConfigError(model.ErrInvalidRequest, "invalid query parameters", details...))
		return
	}
	opts.Clamp()

	runs, total, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	if runs == nil {
		runs = []*model.RunSummary{}
	}

	respondList(w, reqID, runs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+opts.Limit < total,
	})
}

// handleGetRun returns a stored run with its process results.
// GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.requireStore(w, reqID) {
		return
	}
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		respondErr(w, reqID, err)
		return
	}
	if run == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("run", id))
		return
	}
	respondOK(w, reqID, run)
}
