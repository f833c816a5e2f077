package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/interconnect"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/metrics"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found", "the requested endpoint does not exist")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if err := s.store.DB.PingContext(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, HealthResponse{Status: status, Database: dbStatus})
}

// handleFamily returns the most recent raw rows for a single spec.md §3
// family, newest-first.
func (s *Server) handleFamily(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := ParseParams(r.URL.Query(), 1000)
		if err != nil {
			s.writeValidationError(w, r, err)
			return
		}

		rows, err := s.store.QueryFamily(r.Context(), family, p.StoreFilter())
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "query_failed", "failed to query "+family)
			return
		}
		s.writeJSON(w, http.StatusOK, rows)
	}
}

// windowFromParams resolves the [start, end] interval for a computed
// endpoint: explicit start_date/end_date win, else the trailing
// window_hours ending now (spec.md §4.11).
func windowFromParams(p Params, now time.Time) (time.Time, time.Time) {
	end := now
	if p.End != nil {
		end = *p.End
	}
	start := end.Add(-time.Duration(p.WindowHours) * time.Hour)
	if p.Start != nil {
		start = *p.Start
	}
	return start, end
}

func (s *Server) handleRTDASpread(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	start, end := windowFromParams(p, time.Now().UTC())
	rows, err := s.engine.RTDASpread(r.Context(), start, end, p.Zones, p.MinSpread)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute rt_da_spread")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleZoneSpread(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	start, end := windowFromParams(p, time.Now().UTC())
	rows, err := s.engine.ZoneSpread(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute zone_spread")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLoadForecastError(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	start, end := windowFromParams(p, time.Now().UTC())
	rows, err := s.engine.LoadForecastError(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute load_forecast_error")
		return
	}
	if p.MaxErrorPercent != nil {
		rows = filterByMaxErrorPercent(rows, *p.MaxErrorPercent)
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleReserveMargin(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	start, end := windowFromParams(p, time.Now().UTC())
	rows, err := s.engine.ReserveMargin(r.Context(), start, end)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute reserve_margin")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePriceVolatility(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	end := time.Now().UTC()
	if p.End != nil {
		end = *p.End
	}
	rows, err := s.engine.PriceVolatility(r.Context(), end, p.WindowHours, p.Zones)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute price_volatility")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	end := time.Now().UTC()
	if p.End != nil {
		end = *p.End
	}
	rows, err := s.engine.Correlation(r.Context(), end, p.WindowHours, p.Zones)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute correlation")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleTradingSignals(w http.ResponseWriter, r *http.Request) {
	p, err := ParseParams(r.URL.Query(), 1000)
	if err != nil {
		s.writeValidationError(w, r, err)
		return
	}
	end := time.Now().UTC()
	if p.End != nil {
		end = *p.End
	}
	rows, err := s.engine.TradingSignals(r.Context(), end, p.WindowHours)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "compute_failed", "failed to compute trading_signals")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleInterconnectAll(w http.ResponseWriter, r *http.Request) {
	regions, err := s.interconnect.Regions(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "query_failed", "failed to query interconnect regions")
		return
	}
	s.writeJSON(w, http.StatusOK, regions)
}

func (s *Server) handleInterconnectRegion(w http.ResponseWriter, r *http.Request) {
	region := interconnect.Region(mux.Vars(r)["region"])
	if !validRegion(region) {
		s.writeError(w, r, http.StatusBadRequest, "invalid_region", "region must be one of PJM, ISO-NE, IESO, HQ, other")
		return
	}
	rows, err := s.interconnect.Region(r.Context(), region)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "query_failed", "failed to query interconnect region")
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func validRegion(r interconnect.Region) bool {
	switch r {
	case interconnect.RegionPJM, interconnect.RegionISONE, interconnect.RegionIESO, interconnect.RegionHQ, interconnect.RegionOther:
		return true
	default:
		return false
	}
}

func (s *Server) writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		s.writeError(w, r, http.StatusUnprocessableEntity, "invalid_parameter", verr.Error())
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

// filterByMaxErrorPercent drops rows whose |error_percent| exceeds max, or
// whose error_percent is null (spec.md §4.11 max_error_percent filter).
func filterByMaxErrorPercent(rows []metrics.ForecastErrorRow, max float64) []metrics.ForecastErrorRow {
	out := make([]metrics.ForecastErrorRow, 0, len(rows))
	for _, r := range rows {
		if r.ErrorPercent == nil {
			continue
		}
		v := *r.ErrorPercent
		if v < 0 {
			v = -v
		}
		if v <= max {
			out = append(out, r)
		}
	}
	return out
}
