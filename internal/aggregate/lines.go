package aggregate

import (
	"sort"

	"github.com/montanaflynn/stats"

	"bidpack_parser/internal/bidline"
)

// FieldStats summarises one numeric field over the included records.
type FieldStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// ReserveSlotCounts splits reserve periods by seat.
type ReserveSlotCounts struct {
	Captain      int `json:"captain"`
	FirstOfficer int `json:"first_officer"`
	Unknown      int `json:"unknown"`
}

// LineStatsSummary is the bid-period line summary. Numeric aggregates
// cover only Regular and Hot-Standby periods; Reserve and VTO periods
// feed the diagnostic counters and never enter the statistics.
type LineStatsSummary struct {
	TotalLines      int `json:"total_lines"`
	TotalPeriods    int `json:"total_periods"`
	IncludedPeriods int `json:"included_periods"`
	SplitLines      int `json:"split_lines"`

	RegularPeriods    int `json:"regular_periods"`
	HotStandbyPeriods int `json:"hot_standby_periods"`
	ReservePeriods    int `json:"reserve_periods"`
	VTOPeriods        int `json:"vto_periods"`
	VTORPeriods       int `json:"vtor_periods"`
	LowConfidence     int `json:"low_confidence"`

	CreditTime FieldStats `json:"credit_time"`
	BlockTime  FieldStats `json:"block_time"`
	DaysOff    FieldStats `json:"days_off"`
	DutyDays   FieldStats `json:"duty_days"`

	ReserveSlots    ReserveSlotCounts `json:"reserve_slots"`
	UnmatchedTokens []string          `json:"unmatched_tokens,omitempty"`
}

// SummariseLines aggregates one bid period's classified lines.
func SummariseLines(lines []*bidline.BidLine) LineStatsSummary {
	s := LineStatsSummary{TotalLines: len(lines)}

	var ct, bt, do, dd []float64
	tokens := map[string]bool{}

	for _, line := range lines {
		if line.IsSplit() {
			s.SplitLines++
		}
		for _, d := range line.Calendar {
			if d.Status == bidline.DayUnknown && d.Label != "" {
				tokens[d.Label] = true
			}
		}

		for _, rec := range line.PayPeriods {
			s.TotalPeriods++

			switch rec.LineType {
			case bidline.LineRegular:
				s.RegularPeriods++
			case bidline.LineHotStandby:
				s.HotStandbyPeriods++
			case bidline.LineReserve:
				s.ReservePeriods++
				switch {
				case rec.ReserveSubtype.CaptainSlot():
					s.ReserveSlots.Captain++
				case rec.ReserveSubtype.FirstOfficerSlot():
					s.ReserveSlots.FirstOfficer++
				default:
					s.ReserveSlots.Unknown++
				}
			case bidline.LineVTO:
				s.VTOPeriods++
			case bidline.LineVTOR:
				s.VTORPeriods++
			}
			if rec.LowConfidence {
				s.LowConfidence++
			}

			if !includedInStats(rec.LineType) {
				continue
			}
			s.IncludedPeriods++

			if rec.CreditTime.Valid {
				f, _ := rec.CreditTime.Decimal.Float64()
				ct = append(ct, f)
			}
			if rec.BlockTime.Valid {
				f, _ := rec.BlockTime.Decimal.Float64()
				bt = append(bt, f)
			}
			if rec.DaysOff.Valid {
				do = append(do, float64(rec.DaysOff.Value))
			}
			if rec.DutyDays.Valid {
				dd = append(dd, float64(rec.DutyDays.Value))
			}
		}
	}

	s.CreditTime = fieldStats(ct)
	s.BlockTime = fieldStats(bt)
	s.DaysOff = fieldStats(do)
	s.DutyDays = fieldStats(dd)

	for tok := range tokens {
		s.UnmatchedTokens = append(s.UnmatchedTokens, tok)
	}
	sort.Strings(s.UnmatchedTokens)

	return s
}

// includedInStats: only line types carrying real pay metrics enter the
// numeric aggregates.
func includedInStats(t bidline.LineType) bool {
	return t == bidline.LineRegular || t == bidline.LineHotStandby
}

func fieldStats(sample []float64) FieldStats {
	if len(sample) == 0 {
		return FieldStats{}
	}

	fs := FieldStats{Count: len(sample)}
	fs.Min, _ = stats.Min(sample)
	fs.Max, _ = stats.Max(sample)
	fs.Mean, _ = stats.Mean(sample)
	fs.Median, _ = stats.Median(sample)
	fs.StdDev, _ = stats.StandardDeviation(sample)
	return fs
}
