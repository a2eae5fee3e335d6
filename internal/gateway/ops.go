package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Ops handlers back the internal endpoints the runtime mounts under
// /internal. They never dispatch through the route table.

// HandleHealth serves the routing health summary.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Health())
}

// HandleRoutes lists the records currently published in the route table.
func (s *Service) HandleRoutes(w http.ResponseWriter, r *http.Request) {
	records := s.Routes()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(records),
		"routes": records,
	})
}

// HandleMetrics serves the resettable routing metrics snapshot.
func (s *Service) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Metrics())
}

// HandleMetricsReset zeroes the routing metrics counters.
func (s *Service) HandleMetricsReset(w http.ResponseWriter, r *http.Request) {
	s.ResetMetrics()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"reset_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleRefresh rebuilds the route table on demand.
func (s *Service) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	s.Refresh(r.Context())
	s.writeJSON(w, http.StatusOK, s.Health())
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode ops response", slog.String("error", err.Error()))
	}
}
