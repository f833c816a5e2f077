package metrics

import "math"

// computeTradingSignals evaluates the three rule-based checks of spec.md
// §4.9 against already-computed windows; callers build spreads/errors/
// margins by calling the corresponding compute* functions first.
func computeTradingSignals(spreads []SpreadRow, errors []ForecastErrorRow, margins []ReserveMarginRow) []Signal {
	var out []Signal

	for _, s := range spreads {
		abs := math.Abs(s.Spread)
		switch {
		case abs >= 25:
			out = append(out, Signal{SignalType: "rt_da_spread", Zone: s.Zone, Ts: s.Ts, Value: s.Spread, Severity: SeverityCritical})
		case abs >= 15:
			out = append(out, Signal{SignalType: "rt_da_spread", Zone: s.Zone, Ts: s.Ts, Value: s.Spread, Severity: SeverityWarning})
		}
	}

	for _, e := range errors {
		if e.ErrorPercent == nil {
			continue
		}
		abs := math.Abs(*e.ErrorPercent)
		switch {
		case abs >= 10:
			out = append(out, Signal{SignalType: "load_forecast_error", Ts: e.Hour, Value: *e.ErrorPercent, Severity: SeverityCritical})
		case abs >= 5:
			out = append(out, Signal{SignalType: "load_forecast_error", Ts: e.Hour, Value: *e.ErrorPercent, Severity: SeverityWarning})
		}
	}

	for _, m := range margins {
		if m.MarginPercent == nil {
			continue
		}
		switch {
		case *m.MarginPercent < 5:
			out = append(out, Signal{SignalType: "low_reserve_margin", Ts: m.Ts, Value: *m.MarginPercent, Severity: SeverityCritical})
		case *m.MarginPercent < 10:
			out = append(out, Signal{SignalType: "low_reserve_margin", Ts: m.Ts, Value: *m.MarginPercent, Severity: SeverityWarning})
		}
	}

	return out
}
