package pairing

import (
	"testing"

	"bidpack_parser/internal/patterns"
)

func TestInEDWWindow(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         bool
	}{
		{2, 29, false}, // one minute before the window
		{2, 30, true},  // lower bound inclusive
		{3, 45, true},
		{4, 59, true},  // last minute inside
		{5, 0, false},  // upper bound exclusive
		{5, 1, false},
		{0, 0, false},
		{23, 59, false},
	}

	for _, tt := range tests {
		lt := patterns.LocalTime{Hour: tt.hour, Minute: tt.minute}
		if got := InEDWWindow(lt); got != tt.want {
			t.Errorf("InEDWWindow(%02d:%02d) = %v, want %v", tt.hour, tt.minute, got, tt.want)
		}
	}
}

func lt(h, m int) *patterns.LocalTime {
	return &patterns.LocalTime{Hour: h, Minute: m}
}

func TestClassifyEDW(t *testing.T) {
	trip := &Trip{
		TripID: 8123,
		DutyDays: []DutyDay{
			{Number: 1, ReportTime: lt(6, 15), ReleaseTime: lt(12, 15),
				Legs: []Leg{{Departure: patterns.LocalTime{Hour: 7}, Arrival: patterns.LocalTime{Hour: 9}}}},
			{Number: 2, ReportTime: lt(4, 45), ReleaseTime: lt(9, 35)},
			{Number: 3, ReportTime: lt(9, 0),
				Legs: []Leg{{Departure: patterns.LocalTime{Hour: 10}, Arrival: patterns.LocalTime{Hour: 2, Minute: 45}}}},
		},
	}

	got := ClassifyEDW(trip)

	if !got.IsEDW {
		t.Fatal("expected EDW trip")
	}
	if len(got.EDWReason) != 2 || got.EDWReason[0] != 2 || got.EDWReason[1] != 3 {
		t.Errorf("EDWReason = %v, want [2 3]", got.EDWReason)
	}
	if got.DutyDays[0].TouchesEDW {
		t.Error("day 1 should not touch the window")
	}
	if !got.DutyDays[1].TouchesEDW {
		t.Error("day 2 report 04:45 should touch the window")
	}
	if !got.DutyDays[2].TouchesEDW {
		t.Error("day 3 arrival 02:45 should touch the window")
	}
}

func TestClassifyEDWNonEDW(t *testing.T) {
	trip := &Trip{
		TripID: 8124,
		DutyDays: []DutyDay{
			{Number: 1, ReportTime: lt(6, 0), ReleaseTime: lt(14, 0)},
		},
	}

	got := ClassifyEDW(trip)
	if got.IsEDW {
		t.Error("expected non-EDW trip")
	}
	if got.EDWReason != nil {
		t.Errorf("EDWReason = %v, want nil", got.EDWReason)
	}
}

func TestClassifyEDWDoesNotMutate(t *testing.T) {
	trip := &Trip{
		TripID:   8125,
		DutyDays: []DutyDay{{Number: 1, ReportTime: lt(2, 30)}},
	}

	got := ClassifyEDW(trip)

	if trip.IsEDW || trip.DutyDays[0].TouchesEDW {
		t.Error("input trip was mutated")
	}
	if !got.IsEDW || !got.DutyDays[0].TouchesEDW {
		t.Error("output trip should be classified")
	}
}

func TestClassifyEDWBoundaryRelease(t *testing.T) {
	// Release exactly at 05:00 is outside; 04:59 is inside.
	at := func(h, m int) bool {
		trip := &Trip{DutyDays: []DutyDay{{Number: 1, ReleaseTime: lt(h, m)}}}
		return ClassifyEDW(trip).IsEDW
	}

	if at(5, 0) {
		t.Error("release 05:00 must not classify as EDW")
	}
	if !at(4, 59) {
		t.Error("release 04:59 must classify as EDW")
	}
	if !at(2, 30) {
		t.Error("release 02:30 must classify as EDW")
	}
	if at(2, 29) {
		t.Error("release 02:29 must not classify as EDW")
	}
}
