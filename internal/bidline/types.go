// Package bidline parses line blocks from bid-line packets.
package bidline

import (
	"github.com/shopspring/decimal"

	"bidpack_parser/internal/patterns"
)

// LineType tags how a pay period flies (or doesn't).
type LineType string

const (
	LineUnclassified LineType = ""
	LineRegular      LineType = "regular"
	LineReserve      LineType = "reserve"
	LineVTO          LineType = "vto"
	LineVTOR         LineType = "vtor"
	LineHotStandby   LineType = "hot_standby"
)

// ReserveSubtype is the slot code: RA-RD for captains, SA-SD for first
// officers.
type ReserveSubtype string

// CaptainSlot reports whether the subtype is a captain reserve slot.
func (s ReserveSubtype) CaptainSlot() bool {
	return len(s) == 2 && s[0] == 'R'
}

// FirstOfficerSlot reports whether the subtype is an FO reserve slot.
func (s ReserveSubtype) FirstOfficerSlot() bool {
	return len(s) == 2 && s[0] == 'S'
}

// OptInt is an integer field that may be absent from the packet.
// Presence is always explicit so a missing value can never sneak
// through a boolean classification rule.
type OptInt struct {
	Value int  `json:"value"`
	Valid bool `json:"valid"`
}

// Int wraps a present value.
func Int(v int) OptInt { return OptInt{Value: v, Valid: true} }

// PayPeriodRecord is one of the two sub-period records composing a bid
// line. Credit and block figures keep the packet's hours.minutes
// printing, coerced to exact decimals.
type PayPeriodRecord struct {
	Period         int                 `json:"period"` // 1 or 2
	CreditTime     decimal.NullDecimal `json:"credit_time"`
	BlockTime      decimal.NullDecimal `json:"block_time"`
	DaysOff        OptInt              `json:"days_off"`
	DutyDays       OptInt              `json:"duty_days"`
	LineType       LineType            `json:"line_type"`
	ReserveSubtype ReserveSubtype      `json:"reserve_subtype,omitempty"`
	LowConfidence  bool                `json:"low_confidence,omitempty"`
}

// DayStatus classifies one calendar cell.
type DayStatus string

const (
	DayOff     DayStatus = "off"
	DayTrip    DayStatus = "trip"
	DayReserve DayStatus = "reserve"
	DayVTO     DayStatus = "vto"
	DayStandby DayStatus = "standby"
	DayUnknown DayStatus = "unknown"
)

// CalendarDay is one cell of the line's calendar grid.
type CalendarDay struct {
	DayIndex      int                 `json:"day_index"` // 1-based day of bid period
	Status        DayStatus           `json:"status"`
	Label         string              `json:"label,omitempty"` // raw cell token, e.g. "RA", "HSBY"
	TripID        int                 `json:"trip_id,omitempty"`
	ReportTime    *patterns.LocalTime `json:"report_time,omitempty"`
	CreditMinutes OptInt              `json:"credit_minutes,omitempty"`
	LayoverCity   string              `json:"layover_city,omitempty"`
}

// firstPeriodDays is the calendar boundary between the pay periods:
// days 1-15 belong to PP1, the rest to PP2.
const firstPeriodDays = 15

// BidLine is one parsed line block. Lines are created fresh per parse
// pass and never mutated in place.
type BidLine struct {
	LineNumber  int                `json:"line_number"`
	Domicile    string             `json:"domicile"`
	PayPeriods  [2]PayPeriodRecord `json:"pay_periods"`
	CommentText string             `json:"comment_text,omitempty"`
	Calendar    []CalendarDay      `json:"calendar"`
}

// PeriodCalendar returns the calendar cells belonging to one pay period.
func (b *BidLine) PeriodCalendar(period int) []CalendarDay {
	var out []CalendarDay
	for _, d := range b.Calendar {
		inFirst := d.DayIndex <= firstPeriodDays
		if (period == 1) == inFirst {
			out = append(out, d)
		}
	}
	return out
}

// IsSplit reports a split line: one Regular period paired with a
// VTO/VTOR period. Only the Regular period enters aggregate statistics.
func (b *BidLine) IsSplit() bool {
	vto := func(t LineType) bool { return t == LineVTO || t == LineVTOR }
	return (b.PayPeriods[0].LineType == LineRegular && vto(b.PayPeriods[1].LineType)) ||
		(b.PayPeriods[1].LineType == LineRegular && vto(b.PayPeriods[0].LineType))
}
