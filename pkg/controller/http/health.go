package http

import (
	"net/http"

	"github.com/m-mizutani/relmap/pkg/domain/types"
)

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, &HealthStatus{
		Status:  "healthy",
		Service: "relmap",
		Version: types.Version,
	})
}
