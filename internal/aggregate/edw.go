// Package aggregate computes bid-period summary statistics from parsed
// trips and pay-period records. Every summary is recomputed in full per
// call; no state is carried between passes.
package aggregate

import "bidpack_parser/internal/pairing"

// EDWSummary describes how much of a bid period's flying touches the
// Early/Day Window, on three weighting bases.
type EDWSummary struct {
	TotalTrips  int `json:"total_trips"`
	EDWTrips    int `json:"edw_trips"`
	NonEDWTrips int `json:"non_edw_trips"`

	// TripWeightedPct is the plain count basis: EDW trips over all trips.
	TripWeightedPct float64 `json:"trip_weighted_pct"`
	// TAFBWeightedPct weights each trip by its time away from base.
	TAFBWeightedPct float64 `json:"tafb_weighted_pct"`
	// DutyDayWeightedPct weights each trip by its duty-day count.
	DutyDayWeightedPct float64 `json:"duty_day_weighted_pct"`
}

// SummariseEDW aggregates EDW classification across one bid period's
// trips.
func SummariseEDW(trips []*pairing.Trip) EDWSummary {
	s := EDWSummary{TotalTrips: len(trips)}

	var tafbAll, tafbEDW, daysAll, daysEDW int
	for _, t := range trips {
		tafbAll += t.Summary.TAFBMinutes
		daysAll += len(t.DutyDays)
		if t.IsEDW {
			s.EDWTrips++
			tafbEDW += t.Summary.TAFBMinutes
			daysEDW += len(t.DutyDays)
		}
	}
	s.NonEDWTrips = s.TotalTrips - s.EDWTrips

	s.TripWeightedPct = pct(s.EDWTrips, s.TotalTrips)
	s.TAFBWeightedPct = pct(tafbEDW, tafbAll)
	s.DutyDayWeightedPct = pct(daysEDW, daysAll)

	return s
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
