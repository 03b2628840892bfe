package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	applog "bakecost/internal/log"
)

type healthResponse struct {
	Status    string    `json:"status"`
	CostStore string    `json:"cost_store"`
	Time      time.Time `json:"time"`
}

// Health reports liveness and whether the cost store has been configured.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status:    "ok",
		CostStore: "ready",
		Time:      time.Now().UTC(),
	}
	if costs == nil {
		resp.CostStore = "unconfigured"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(r.Context(), "failed to encode health response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	applog.Debug(r.Context(), "health check responded successfully")
}
