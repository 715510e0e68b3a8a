package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/me/cpusched/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.ConfigError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

// respondErr writes err with the status its code maps to. Errors that are not
// a *model.ConfigError are reported as internal.
func respondErr(w http.ResponseWriter, reqID string, err error) {
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		cfgErr = model.NewInternalError(err.Error())
	}
	respondError(w, reqID, statusFor(cfgErr.Code), cfgErr)
}

// statusFor maps an error code to its HTTP status.
func statusFor(code model.ErrorCode) int {
	switch code {
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrInternal:
		return http.StatusInternalServerError
	case model.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, pg *model.Pagination, apiErr *model.ConfigError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
