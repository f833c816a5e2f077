package api

import "net/http"

// metricsHandler exposes the shared telemetry registry at GET /metrics.
func (s *Server) metricsHandler() http.Handler {
	return s.telemetry.Handler()
}
