package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "cpusched status API",
		Version:     "v1",
		Description: "Read-only view of CPU scheduling runs",
		Endpoints: []endpointInfo{
			{"/api/v1/processes", []string{"GET"}, "Process table of the live run"},
			{"/api/v1/processes/{name}", []string{"GET"}, "Single process of the live run"},
			{"/api/v1/sse/processes", []string{"GET"}, "Process table stream (Server-Sent Events)"},
			{"/api/v1/runs", []string{"GET"}, "Stored runs, newest first. Accepts ?algorithm, ?limit, ?offset"},
			{"/api/v1/runs/{id}", []string{"GET"}, "Stored run with per-process results"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
