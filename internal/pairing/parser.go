// Package pairing parses trip blocks from pairing packets.
package pairing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/patterns"
	"bidpack_parser/internal/segment"
)

// Grok compiler singleton.
var (
	grokCompiler *patterns.Compiler
	grokOnce     sync.Once
	grokErr      error
)

// getCompiler returns the singleton grok compiler.
func getCompiler() (*patterns.Compiler, error) {
	grokOnce.Do(func() {
		grokCompiler = patterns.NewCompiler(Formats, nil)
		grokErr = grokCompiler.Compile()
	})
	return grokCompiler, grokErr
}

var (
	// Frequency: MO TU WE TH FR
	frequencyRe = regexp.MustCompile(`(?i)FREQUENCY\s*:\s*([A-Z][A-Z ]*[A-Z])`)

	// Effective: 01MAY-31MAY
	effectiveRe = regexp.MustCompile(`(?i)EFFECTIVE\s*:\s*([0-9A-Z]+\s*-\s*[0-9A-Z]+)`)

	summaryStartRe = regexp.MustCompile(`(?i)TRIP\s+SUMMARY`)

	// Trip Summary fields.
	creditTimeRe = regexp.MustCompile(`(?i)CREDIT\s*TIME\s*:\s*(\d{1,3}\s?:\s?\d{2})`)
	tafbRe       = regexp.MustCompile(`(?i)TAFB\s*:\s*(\d{1,3}\s?:\s?\d{2})`)
	dutyTimeRe   = regexp.MustCompile(`(?i)DUTY\s*TIME\s*:\s*(\d{1,3}\s?:\s?\d{2})`)
	premiumRe    = regexp.MustCompile(`(?i)PREMIUM\s*:\s*(\d{1,3}\s?:\s?\d{2})`)
	perDiemRe    = regexp.MustCompile(`(?i)PER\s*DIEM\s*:\s*([\d][\d .]*\d|\d)`)
	landingsRe   = regexp.MustCompile(`(?i)LANDINGS\s*:\s*(\d+)`)
	domicileRe   = regexp.MustCompile(`(?i)DOMICILE\s*:\s*([A-Z]{3})`)
	crewRe       = regexp.MustCompile(`(?i)CREW\s*:\s*(\d\s?/\s?\d\s?/\s?\d)`)
)

// Parse parses one trip block into a Trip. A failure returns a
// *bidpack.BlockParseError carrying the raw excerpt; the caller skips
// the block and continues. Coercion warnings are non-fatal diagnostics.
func Parse(block segment.Block) (*Trip, []bidpack.FieldCoercionWarning, error) {
	fail := func(reason string, err error) (*Trip, []bidpack.FieldCoercionWarning, error) {
		return nil, nil, bidpack.NewBlockParseError(bidpack.KindPairing, block.Key, reason, block.Text, err)
	}

	idMatch := patterns.TripHeaderPattern.FindStringSubmatch(block.Text)
	if idMatch == nil {
		return fail("missing trip header", nil)
	}
	tripID, _ := strconv.Atoi(idMatch[1])

	compiler, err := getCompiler()
	if err != nil {
		return fail("pattern compile", err)
	}

	// Split the block at the Trip Summary marker: day/leg lines above,
	// trip-scope summary below.
	var body, summary string
	if loc := summaryStartRe.FindStringIndex(block.Text); loc != nil {
		body, summary = block.Text[:loc[0]], block.Text[loc[1]:]
	} else {
		return fail("missing trip summary", nil)
	}

	trip := &Trip{TripID: tripID}
	if m := frequencyRe.FindStringSubmatch(body); m != nil {
		trip.Frequency = patterns.Squeeze(m[1])
	}
	if m := effectiveRe.FindStringSubmatch(body); m != nil {
		trip.Effective = patterns.StripOCRGaps(m[1])
	}

	var warnings []bidpack.FieldCoercionWarning
	warn := func(field, raw, fallback string) {
		warnings = append(warnings, bidpack.FieldCoercionWarning{
			BlockKey: block.Key, Field: field, Raw: raw, Fallback: fallback,
		})
	}

	var cur *DutyDay
	for _, rawLine := range strings.Split(body, "\n") {
		line := patterns.Squeeze(rawLine)
		if line == "" {
			continue
		}

		if m := patterns.DayMarkerPattern.FindStringSubmatch(line); m != nil {
			if cur != nil {
				trip.DutyDays = append(trip.DutyDays, *cur)
			}
			num, _ := strconv.Atoi(m[1])
			cur = &DutyDay{Number: num}
			if m[2] != "" {
				if rpt, err := patterns.ParseLocalTime(patterns.StripOCRGaps(m[2])); err == nil {
					cur.ReportTime = &rpt
				} else {
					warn("report_time", m[2], "")
				}
			}
			continue
		}

		match := compiler.Parse(line)
		if match == nil {
			// Noise line (page footers, column rulers); skip.
			continue
		}
		if cur == nil {
			return fail("leg data before first day marker", fmt.Errorf("line %q", line))
		}

		switch match.FormatName {
		case "duty_release":
			applyRelease(cur, match, warn)
		default:
			leg, err := buildLeg(match)
			if err != nil {
				return fail("bad leg line", err)
			}
			cur.Legs = append(cur.Legs, leg)
		}
	}
	if cur != nil {
		trip.DutyDays = append(trip.DutyDays, *cur)
	}

	if len(trip.DutyDays) == 0 {
		return fail("no duty days found", nil)
	}

	trip.Summary = parseTripSummary(summary, warn)

	return trip, warnings, nil
}

// applyRelease fills the duty-day summary from a duty_release match.
func applyRelease(day *DutyDay, m *patterns.Match, warn func(field, raw, fallback string)) {
	if rls, err := patterns.ParseLocalTime(patterns.StripOCRGaps(m.Captures["rls"])); err == nil {
		day.ReleaseTime = &rls
	} else {
		warn("release_time", m.Captures["rls"], "")
	}

	day.Summary.DutyMinutes = coerceDuration(m.Captures["duty"], "duty_duration", warn)
	day.Summary.BlockMinutes = coerceDuration(m.Captures["block"], "duty_block", warn)
	day.Summary.CreditMinutes = coerceDuration(m.Captures["credit"], "duty_credit", warn)
	day.Summary.CreditBasis = CreditBasis(m.Captures["basis"])
	if m.Captures["rest"] != "" {
		day.Summary.RestMinutes = coerceDuration(m.Captures["rest"], "rest_after", warn)
	}
}

// buildLeg converts a grok match into a Leg.
func buildLeg(m *patterns.Match) (Leg, error) {
	dep, err := patterns.ParseLocalTime(patterns.StripOCRGaps(m.Captures["dep"]))
	if err != nil {
		return Leg{}, fmt.Errorf("departure: %w", err)
	}
	arr, err := patterns.ParseLocalTime(patterns.StripOCRGaps(m.Captures["arr"]))
	if err != nil {
		return Leg{}, fmt.Errorf("arrival: %w", err)
	}
	blockMin, err := patterns.ParseDurationMinutes(patterns.StripOCRGaps(m.Captures["block"]))
	if err != nil {
		return Leg{}, fmt.Errorf("block time: %w", err)
	}

	leg := Leg{
		Origin:       m.Captures["orig"],
		Destination:  m.Captures["dest"],
		Departure:    dep,
		Arrival:      arr,
		BlockMinutes: blockMin,
		AircraftType: m.Captures["actype"],
	}

	switch m.FormatName {
	case "leg_flight":
		leg.Kind = LegFlight
		leg.Designator = patterns.StripOCRGaps(m.Captures["flight"])
		leg.FlightNumber = leg.Designator
		leg.CrewNeed = parseCrewNeed(m.Captures["crew"])
		leg.Catered = m.Captures["catered"] != ""
	case "leg_deadhead":
		leg.Kind = LegDeadhead
		leg.Designator = DesignatorDeadhead
		leg.FlightNumber = patterns.StripOCRGaps(m.Captures["flight"])
		// Deadheads ride as passengers: crew need is 0/0/0 whether or
		// not the packet prints it.
		leg.CrewNeed = CrewNeed{}
	case "leg_ground":
		leg.Kind = LegGroundTransport
		leg.Designator = DesignatorGroundTransport
		leg.CrewNeed = CrewNeed{}
	default:
		return Leg{}, fmt.Errorf("unknown leg format %q", m.FormatName)
	}

	return leg, nil
}

func parseCrewNeed(s string) CrewNeed {
	parts := strings.Split(patterns.StripOCRGaps(s), "/")
	if len(parts) != 3 {
		return CrewNeed{}
	}
	ca, _ := strconv.Atoi(parts[0])
	fo, _ := strconv.Atoi(parts[1])
	fe, _ := strconv.Atoi(parts[2])
	return CrewNeed{Captains: ca, FirstOfficers: fo, Engineers: fe}
}

// parseTripSummary extracts the trip-scope summary fields. Unparseable
// numerics coerce to zero with a warning rather than failing the block.
func parseTripSummary(text string, warn func(field, raw, fallback string)) TripSummary {
	s := TripSummary{PerDiem: decimal.Zero}

	get := func(re *regexp.Regexp) (string, bool) {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
		return "", false
	}

	if raw, ok := get(creditTimeRe); ok {
		s.CreditMinutes = coerceDuration(raw, "credit_time", warn)
	}
	if raw, ok := get(tafbRe); ok {
		s.TAFBMinutes = coerceDuration(raw, "tafb", warn)
	}
	if raw, ok := get(dutyTimeRe); ok {
		s.DutyMinutes = coerceDuration(raw, "duty_time", warn)
	}
	if raw, ok := get(premiumRe); ok {
		s.PremiumMinutes = coerceDuration(raw, "premium", warn)
	}
	if raw, ok := get(perDiemRe); ok {
		if d, err := decimal.NewFromString(patterns.StripOCRGaps(raw)); err == nil {
			s.PerDiem = d
		} else {
			warn("per_diem", raw, "0")
		}
	}
	if raw, ok := get(landingsRe); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			s.Landings = n
		} else {
			warn("landings", raw, "0")
		}
	}
	if raw, ok := get(domicileRe); ok {
		s.Domicile = raw
	}
	if raw, ok := get(crewRe); ok {
		s.CrewComplement = parseCrewNeed(raw)
	}

	return s
}

func coerceDuration(raw, field string, warn func(field, raw, fallback string)) int {
	min, err := patterns.ParseDurationMinutes(patterns.StripOCRGaps(raw))
	if err != nil {
		warn(field, raw, "0:00")
		return 0
	}
	return min
}
