// Package pairing parses trip blocks from pairing packets into duty
// days, legs, and trip-level summaries.
package pairing

import (
	"github.com/shopspring/decimal"

	"bidpack_parser/internal/patterns"
)

// LegKind distinguishes revenue flying from positioning segments.
type LegKind string

const (
	LegFlight          LegKind = "flight"
	LegDeadhead        LegKind = "deadhead"
	LegGroundTransport LegKind = "ground_transport"
)

// Designator constants for non-revenue legs.
const (
	DesignatorDeadhead        = "DEADHEAD"
	DesignatorGroundTransport = "GROUND_TRANSPORT"
)

// CrewNeed is the captain/first-officer/flight-engineer complement a
// leg requires. 0/0/0 marks positioning legs.
type CrewNeed struct {
	Captains      int `json:"captains"`
	FirstOfficers int `json:"first_officers"`
	Engineers     int `json:"engineers"`
}

// IsZero reports a 0/0/0 complement.
func (c CrewNeed) IsZero() bool {
	return c.Captains == 0 && c.FirstOfficers == 0 && c.Engineers == 0
}

// Leg is one segment of a duty day.
type Leg struct {
	Designator   string             `json:"designator"` // flight number, DEADHEAD, or GROUND_TRANSPORT
	Kind         LegKind            `json:"kind"`
	FlightNumber string             `json:"flight_number,omitempty"` // underlying flight for deadheads
	Origin       string             `json:"origin"`
	Destination  string             `json:"destination"`
	Departure    patterns.LocalTime `json:"departure"`
	Arrival      patterns.LocalTime `json:"arrival"`
	BlockMinutes int                `json:"block_minutes"`
	AircraftType string             `json:"aircraft_type,omitempty"`
	CrewNeed     CrewNeed           `json:"crew_need"`
	Catered      bool               `json:"catered,omitempty"`
}

// CountsForCrewUtilisation reports whether this leg enters crew
// utilisation counts. Deadhead and ground-transport legs carry a 0/0/0
// complement and are excluded, but still contribute to block and duty
// totals.
func (l Leg) CountsForCrewUtilisation() bool {
	return !l.CrewNeed.IsZero()
}

// CreditBasis tags how a duty-period credit figure was produced.
type CreditBasis string

const (
	CreditActual  CreditBasis = "M" // actual minutes
	CreditDutyRig CreditBasis = "D" // duty-rig minimum applied
	CreditTripRig CreditBasis = "T" // trip-rig minimum applied
	CreditOther   CreditBasis = "L"
)

// DutySummary is the per-duty-day summary line. The credit figure here
// is duty-day scoped and diagnostic only; trip pay comes from the Trip
// Summary block.
type DutySummary struct {
	DutyMinutes   int         `json:"duty_minutes"`
	BlockMinutes  int         `json:"block_minutes"`
	CreditMinutes int         `json:"credit_minutes"`
	CreditBasis   CreditBasis `json:"credit_basis,omitempty"`
	RestMinutes   int         `json:"rest_minutes"` // rest after this duty day
}

// DutyDay is one report-to-release duty period within a trip.
type DutyDay struct {
	Number      int                 `json:"number"` // ordered within the trip, 1-based
	ReportTime  *patterns.LocalTime `json:"report_time,omitempty"`
	ReleaseTime *patterns.LocalTime `json:"release_time,omitempty"`
	Legs        []Leg               `json:"legs"`
	Summary     DutySummary         `json:"summary"`
	TouchesEDW  bool                `json:"touches_edw"`
}

// TripSummary is the trip-scoped summary block used for pay aggregation.
type TripSummary struct {
	CreditMinutes  int             `json:"credit_minutes"`
	TAFBMinutes    int             `json:"tafb_minutes"`
	DutyMinutes    int             `json:"duty_minutes"`
	PremiumMinutes int             `json:"premium_minutes"`
	PerDiem        decimal.Decimal `json:"per_diem"`
	Landings       int             `json:"landings"`
	Domicile       string          `json:"domicile,omitempty"`
	CrewComplement CrewNeed        `json:"crew_complement"`
}

// Trip is one parsed trip block. Trips are created fresh per parse pass
// and never mutated in place.
type Trip struct {
	TripID    int         `json:"trip_id"`
	Frequency string      `json:"frequency,omitempty"`
	Effective string      `json:"effective,omitempty"`
	DutyDays  []DutyDay   `json:"duty_days"`
	Summary   TripSummary `json:"summary"`
	IsEDW     bool        `json:"is_edw"`
	EDWReason []int       `json:"edw_reason,omitempty"` // triggering duty-day numbers
}

// CrewLegs counts legs that enter crew utilisation.
func (t *Trip) CrewLegs() int {
	n := 0
	for _, d := range t.DutyDays {
		for _, l := range d.Legs {
			if l.CountsForCrewUtilisation() {
				n++
			}
		}
	}
	return n
}

// TotalBlockMinutes sums leg block time across the whole trip, including
// positioning legs.
func (t *Trip) TotalBlockMinutes() int {
	n := 0
	for _, d := range t.DutyDays {
		for _, l := range d.Legs {
			n += l.BlockMinutes
		}
	}
	return n
}
