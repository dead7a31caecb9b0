package api

import (
	"encoding/json"
	"net/http"
	"time"
)

type componentStatus struct {
	Status string `json:"status"` // ok | error | skipped
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReadiness pings each configured sink with a short deadline and
// reports per-component status. The endpoint is 503 only when the primary
// channel is down; a degraded backup log does not make the service unready,
// matching the dispatch semantics.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeoutContext(r, 5*time.Second)
	defer cancel()

	components := make(map[string]componentStatus)

	primaryOK := true
	if err := s.primary.Ping(ctx); err != nil {
		primaryOK = false
		components["primary"] = componentStatus{Status: "error", Error: err.Error()}
		ReadinessStatus.WithLabelValues("primary").Set(0)
	} else {
		components["primary"] = componentStatus{Status: "ok"}
		ReadinessStatus.WithLabelValues("primary").Set(1)
	}

	if s.secondary == nil {
		components["secondary"] = componentStatus{Status: "skipped"}
	} else if err := s.secondary.Ping(ctx); err != nil {
		components["secondary"] = componentStatus{Status: "error", Error: err.Error()}
		ReadinessStatus.WithLabelValues("secondary").Set(0)
	} else {
		components["secondary"] = componentStatus{Status: "ok"}
		ReadinessStatus.WithLabelValues("secondary").Set(1)
	}

	w.Header().Set("Content-Type", "application/json")
	if !primaryOK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":      primaryOK,
		"components": components,
	})
}
