package pairing

import (
	"errors"
	"testing"

	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/segment"
)

const tripFixture = `Trip Id: 8123   Effective: 01MAY-31MAY
Frequency: MO TU WE TH FR
DAY 1 RPT (05)30:00
UA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0 C
DH UA2210 SFO LAX (09)10:00 (10)25:00 1:15 A320 0/0/0
RLS (12)15:00 DUTY 6:45 BLOCK 4:02 CREDIT 5:15M REST 14:30
DAY 2 RPT (04)45:00
GT ALAMO BUS LAX ONT (05)30:00 (06)15:00 0:45
UA311 ONT DEN (07)20:00 (09)05:00 1:45 B738 1/1/0
RLS (09)35:00 DUTY 4:50 BLOCK 2:30 CREDIT 4:50D
TRIP SUMMARY
CREDIT TIME: 10:05   TAFB: 28:05   DUTY TIME: 11:35
PREMIUM: 0:00   PER DIEM: 58.25   LANDINGS: 2
DOMICILE: DEN   CREW: 1/1/0
`

func fixtureBlock(text string) segment.Block {
	return segment.Block{Key: "Trip Id: 8123", Text: text, StartPage: 2}
}

func TestParse(t *testing.T) {
	trip, warnings, err := Parse(fixtureBlock(tripFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}

	if trip.TripID != 8123 {
		t.Errorf("TripID = %d, want 8123", trip.TripID)
	}
	if trip.Frequency != "MO TU WE TH FR" {
		t.Errorf("Frequency = %q", trip.Frequency)
	}
	if trip.Effective != "01MAY-31MAY" {
		t.Errorf("Effective = %q", trip.Effective)
	}

	if len(trip.DutyDays) != 2 {
		t.Fatalf("expected 2 duty days, got %d", len(trip.DutyDays))
	}

	day1 := trip.DutyDays[0]
	if day1.Number != 1 {
		t.Errorf("day1.Number = %d, want 1", day1.Number)
	}
	if day1.ReportTime == nil || day1.ReportTime.Hour != 5 || day1.ReportTime.Minute != 30 {
		t.Errorf("day1.ReportTime = %v, want 05:30", day1.ReportTime)
	}
	if day1.ReleaseTime == nil || day1.ReleaseTime.Hour != 12 || day1.ReleaseTime.Minute != 15 {
		t.Errorf("day1.ReleaseTime = %v, want 12:15", day1.ReleaseTime)
	}
	if len(day1.Legs) != 2 {
		t.Fatalf("day1 expected 2 legs, got %d", len(day1.Legs))
	}

	flight := day1.Legs[0]
	if flight.Kind != LegFlight {
		t.Errorf("leg kind = %q, want flight", flight.Kind)
	}
	if flight.Designator != "UA1428" || flight.FlightNumber != "UA1428" {
		t.Errorf("flight designator = %q / %q", flight.Designator, flight.FlightNumber)
	}
	if flight.Origin != "DEN" || flight.Destination != "SFO" {
		t.Errorf("route = %s-%s, want DEN-SFO", flight.Origin, flight.Destination)
	}
	if flight.BlockMinutes != 167 {
		t.Errorf("BlockMinutes = %d, want 167", flight.BlockMinutes)
	}
	if flight.AircraftType != "B738" {
		t.Errorf("AircraftType = %q, want B738", flight.AircraftType)
	}
	if !flight.Catered {
		t.Error("expected catered leg")
	}
	if (flight.CrewNeed != CrewNeed{Captains: 1, FirstOfficers: 1}) {
		t.Errorf("CrewNeed = %+v, want 1/1/0", flight.CrewNeed)
	}
	if !flight.CountsForCrewUtilisation() {
		t.Error("revenue leg must count for crew utilisation")
	}

	dh := day1.Legs[1]
	if dh.Kind != LegDeadhead {
		t.Errorf("dh kind = %q, want deadhead", dh.Kind)
	}
	if dh.Designator != DesignatorDeadhead {
		t.Errorf("dh designator = %q, want %q", dh.Designator, DesignatorDeadhead)
	}
	if dh.FlightNumber != "UA2210" {
		t.Errorf("dh underlying flight = %q, want UA2210", dh.FlightNumber)
	}
	if !dh.CrewNeed.IsZero() {
		t.Errorf("deadhead CrewNeed = %+v, want 0/0/0", dh.CrewNeed)
	}
	if dh.CountsForCrewUtilisation() {
		t.Error("deadhead must not count for crew utilisation")
	}
	if dh.BlockMinutes != 75 {
		t.Errorf("dh BlockMinutes = %d, want 75; positioning still adds block", dh.BlockMinutes)
	}

	if day1.Summary.DutyMinutes != 405 {
		t.Errorf("day1 duty = %d, want 405", day1.Summary.DutyMinutes)
	}
	if day1.Summary.CreditMinutes != 315 {
		t.Errorf("day1 credit = %d, want 315", day1.Summary.CreditMinutes)
	}
	if day1.Summary.CreditBasis != CreditActual {
		t.Errorf("day1 basis = %q, want M", day1.Summary.CreditBasis)
	}
	if day1.Summary.RestMinutes != 870 {
		t.Errorf("day1 rest = %d, want 870", day1.Summary.RestMinutes)
	}

	day2 := trip.DutyDays[1]
	gt := day2.Legs[0]
	if gt.Kind != LegGroundTransport {
		t.Errorf("gt kind = %q, want ground_transport", gt.Kind)
	}
	if gt.Designator != DesignatorGroundTransport {
		t.Errorf("gt designator = %q", gt.Designator)
	}
	if gt.CountsForCrewUtilisation() {
		t.Error("ground transport must not count for crew utilisation")
	}
	if day2.Summary.CreditBasis != CreditDutyRig {
		t.Errorf("day2 basis = %q, want D", day2.Summary.CreditBasis)
	}
	if day2.Summary.RestMinutes != 0 {
		t.Errorf("day2 rest = %d, want 0 (trailing day)", day2.Summary.RestMinutes)
	}

	if trip.CrewLegs() != 2 {
		t.Errorf("CrewLegs = %d, want 2", trip.CrewLegs())
	}
	if trip.TotalBlockMinutes() != 392 {
		t.Errorf("TotalBlockMinutes = %d, want 392", trip.TotalBlockMinutes())
	}

	sum := trip.Summary
	if sum.CreditMinutes != 605 {
		t.Errorf("summary credit = %d, want 605", sum.CreditMinutes)
	}
	if sum.TAFBMinutes != 1685 {
		t.Errorf("summary TAFB = %d, want 1685", sum.TAFBMinutes)
	}
	if sum.DutyMinutes != 695 {
		t.Errorf("summary duty = %d, want 695", sum.DutyMinutes)
	}
	if sum.PerDiem.String() != "58.25" {
		t.Errorf("summary per diem = %s, want 58.25", sum.PerDiem)
	}
	if sum.Landings != 2 {
		t.Errorf("summary landings = %d, want 2", sum.Landings)
	}
	if sum.Domicile != "DEN" {
		t.Errorf("summary domicile = %q, want DEN", sum.Domicile)
	}
	if (sum.CrewComplement != CrewNeed{Captains: 1, FirstOfficers: 1}) {
		t.Errorf("summary crew = %+v, want 1/1/0", sum.CrewComplement)
	}
}

func TestParseOCRGappedLeg(t *testing.T) {
	text := "Trip Id: 8200\n" +
		"DAY 1 RPT ( 05 )30 : 00\n" +
		"UA1428 DEN SFO (06 )15 :00 ( 08)02:00 2 :47 B738 1 / 1 / 0\n" +
		"TRIP SUMMARY\nCREDIT TIME: 2:47\n"

	trip, _, err := Parse(fixtureBlock(text))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	leg := trip.DutyDays[0].Legs[0]
	if leg.BlockMinutes != 167 {
		t.Errorf("BlockMinutes = %d, want 167", leg.BlockMinutes)
	}
	if trip.DutyDays[0].ReportTime == nil || trip.DutyDays[0].ReportTime.Hour != 5 {
		t.Errorf("ReportTime = %v, want 05:30", trip.DutyDays[0].ReportTime)
	}
}

func TestParseMissingSummary(t *testing.T) {
	text := "Trip Id: 8123\nDAY 1 RPT (05)30:00\nUA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0\n"

	_, _, err := Parse(fixtureBlock(text))
	if err == nil {
		t.Fatal("expected error for missing trip summary")
	}

	var bpe *bidpack.BlockParseError
	if !errors.As(err, &bpe) {
		t.Fatalf("expected *BlockParseError, got %T", err)
	}
	if bpe.Kind != bidpack.KindPairing {
		t.Errorf("Kind = %q, want pairing", bpe.Kind)
	}
	if bpe.Key != "Trip Id: 8123" {
		t.Errorf("Key = %q", bpe.Key)
	}
	if bpe.Excerpt == "" {
		t.Error("expected raw excerpt on block error")
	}
}

func TestParseLegBeforeDayMarker(t *testing.T) {
	text := "Trip Id: 8123\nUA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0\nTRIP SUMMARY\n"

	_, _, err := Parse(fixtureBlock(text))
	var bpe *bidpack.BlockParseError
	if !errors.As(err, &bpe) {
		t.Fatalf("expected *BlockParseError, got %v", err)
	}
}

func TestParseNoDutyDays(t *testing.T) {
	text := "Trip Id: 8123\nsome footer noise\nTRIP SUMMARY\nCREDIT TIME: 5:15\n"

	_, _, err := Parse(fixtureBlock(text))
	if err == nil {
		t.Fatal("expected error for trip without duty days")
	}
}

func TestParseCoercionWarning(t *testing.T) {
	text := "Trip Id: 8123\nDAY 1 RPT (05)30:00\n" +
		"UA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0\n" +
		"TRIP SUMMARY\nCREDIT TIME: 10:75\n"

	trip, warnings, err := Parse(fixtureBlock(text))
	if err != nil {
		t.Fatalf("bad numeric must not fail the block: %v", err)
	}
	if trip.Summary.CreditMinutes != 0 {
		t.Errorf("credit = %d, want coerced 0", trip.Summary.CreditMinutes)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].Field != "credit_time" {
		t.Errorf("warning field = %q, want credit_time", warnings[0].Field)
	}
	if warnings[0].BlockKey != "Trip Id: 8123" {
		t.Errorf("warning block key = %q", warnings[0].BlockKey)
	}
}

func TestParseNoiseLinesSkipped(t *testing.T) {
	text := "Trip Id: 8123\nDAY 1 RPT (05)30:00\n" +
		"---------------------------------\n" +
		"UA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0\n" +
		"PAGE 12 OF 140\n" +
		"TRIP SUMMARY\nCREDIT TIME: 2:47\n"

	trip, _, err := Parse(fixtureBlock(text))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trip.DutyDays[0].Legs) != 1 {
		t.Errorf("expected 1 leg, got %d", len(trip.DutyDays[0].Legs))
	}
}
