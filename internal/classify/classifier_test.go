package classify

import (
	"testing"

	"github.com/shopspring/decimal"

	"bidpack_parser/internal/bidline"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func record(period int, ct, bt string, do, dd int) bidline.PayPeriodRecord {
	rec := bidline.PayPeriodRecord{Period: period}
	if ct != "" {
		rec.CreditTime = dec(ct)
	}
	if bt != "" {
		rec.BlockTime = dec(bt)
	}
	if do >= 0 {
		rec.DaysOff = bidline.Int(do)
	}
	if dd >= 0 {
		rec.DutyDays = bidline.Int(dd)
	}
	return rec
}

func TestReserveRule(t *testing.T) {
	got := Classify(record(2, "0.00", "0.00", 16, 14), "", nil)
	if got.LineType != bidline.LineReserve {
		t.Errorf("LineType = %q, want reserve", got.LineType)
	}
}

func TestReserveRuleAllThreeRequired(t *testing.T) {
	tests := []struct {
		name string
		rec  bidline.PayPeriodRecord
	}{
		{"nonzero credit", record(1, "5.15", "0.00", 16, 14)},
		{"nonzero block", record(1, "0.00", "5.15", 16, 14)},
		{"wrong day count", record(1, "0.00", "0.00", 16, 12)},
	}

	for _, tt := range tests {
		got := Classify(tt.rec, "", nil)
		if got.LineType == bidline.LineReserve {
			t.Errorf("%s: classified reserve, want not reserve", tt.name)
		}
	}
}

func TestReserveRuleMissingFieldIsFalse(t *testing.T) {
	// A record with no credit figure at all must never classify as
	// Reserve, even with BT 0 and DD 14.
	rec := record(1, "", "0.00", 16, 14)

	got := Classify(rec, "", nil)
	if got.LineType == bidline.LineReserve {
		t.Fatal("missing credit figure classified as reserve")
	}
	if got.LineType != bidline.LineRegular {
		t.Errorf("LineType = %q, want regular degradation", got.LineType)
	}
}

func TestReserveSubtypeFromCalendar(t *testing.T) {
	cal := []bidline.CalendarDay{
		{DayIndex: 16, Status: bidline.DayReserve, Label: "RA"},
	}
	got := Classify(record(2, "0.00", "0.00", 16, 14), "", cal)
	if got.ReserveSubtype != "RA" {
		t.Errorf("ReserveSubtype = %q, want RA", got.ReserveSubtype)
	}
	if !got.ReserveSubtype.CaptainSlot() {
		t.Error("RA should be a captain slot")
	}

	cal[0].Label = "SB"
	got = Classify(record(2, "0.00", "0.00", 16, 14), "", cal)
	if !got.ReserveSubtype.FirstOfficerSlot() {
		t.Error("SB should be a first-officer slot")
	}
}

func TestReserveSubtypeFromComment(t *testing.T) {
	got := Classify(record(2, "0.00", "0.00", 16, 14), "RESERVE LINE SB PP2", nil)
	if got.ReserveSubtype != "SB" {
		t.Errorf("ReserveSubtype = %q, want SB", got.ReserveSubtype)
	}
}

func TestVTOPrecedesReserve(t *testing.T) {
	// A VTO period also shows CT 0, BT 0; the VTO rule must win.
	got := Classify(record(2, "0.00", "0.00", 16, 14), "VTO PP2", nil)
	if got.LineType != bidline.LineVTO {
		t.Errorf("LineType = %q, want vto", got.LineType)
	}
}

func TestVTOCommentScoping(t *testing.T) {
	// "VTO PP2" binds to period 2 only.
	pp1 := Classify(record(1, "72.23", "54.20", 11, 12), "VTO PP2", nil)
	if pp1.LineType != bidline.LineRegular {
		t.Errorf("pp1 LineType = %q, want regular", pp1.LineType)
	}

	pp2 := Classify(record(2, "0.00", "0.00", 16, 14), "VTO PP2", nil)
	if pp2.LineType != bidline.LineVTO {
		t.Errorf("pp2 LineType = %q, want vto", pp2.LineType)
	}
}

func TestVTOBareTokenBindsBothPeriods(t *testing.T) {
	for _, period := range []int{1, 2} {
		got := Classify(record(period, "0.00", "0.00", 16, 14), "VTO", nil)
		if got.LineType != bidline.LineVTO {
			t.Errorf("period %d: LineType = %q, want vto", period, got.LineType)
		}
	}
}

func TestVTORVariants(t *testing.T) {
	tests := []struct {
		comment string
		want    bidline.LineType
	}{
		{"VTO", bidline.LineVTO},
		{"VTOR", bidline.LineVTOR},
		{"VOR", bidline.LineVTOR}, // some generators print VOR for VTOR
	}

	for _, tt := range tests {
		got := Classify(record(1, "0.00", "0.00", 16, 14), tt.comment, nil)
		if got.LineType != tt.want {
			t.Errorf("comment %q: LineType = %q, want %q", tt.comment, got.LineType, tt.want)
		}
	}
}

func TestVTOFromCalendar(t *testing.T) {
	cal := []bidline.CalendarDay{
		{DayIndex: 20, Status: bidline.DayVTO, Label: "VTOR"},
	}
	got := Classify(record(2, "0.00", "0.00", 16, 14), "", cal)
	if got.LineType != bidline.LineVTOR {
		t.Errorf("LineType = %q, want vtor", got.LineType)
	}
}

func TestHotStandbyRule(t *testing.T) {
	cal := []bidline.CalendarDay{
		{DayIndex: 3, Status: bidline.DayStandby, Label: "HSBY"},
	}

	got := Classify(record(1, "45.10", "0.00", 14, 13), "", cal)
	if got.LineType != bidline.LineHotStandby {
		t.Errorf("LineType = %q, want hot_standby", got.LineType)
	}
}

func TestHotStandbyNeedsPay(t *testing.T) {
	cal := []bidline.CalendarDay{
		{DayIndex: 3, Status: bidline.DayStandby, Label: "SBG1"},
	}

	// Standby codes with zero pay degrade to Regular, flagged.
	got := Classify(record(1, "0.00", "0.00", 14, 13), "", cal)
	if got.LineType != bidline.LineRegular {
		t.Errorf("LineType = %q, want regular", got.LineType)
	}
	if !got.LowConfidence {
		t.Error("expected low-confidence flag on degraded standby period")
	}
}

func TestDefaultRegular(t *testing.T) {
	got := Classify(record(1, "72.23", "54.20", 11, 12), "", nil)
	if got.LineType != bidline.LineRegular {
		t.Errorf("LineType = %q, want regular", got.LineType)
	}
	if got.LowConfidence {
		t.Error("clean regular period should not be low confidence")
	}
}

func TestZeroedPeriodLowConfidence(t *testing.T) {
	// CT 0, BT 0 but DD != 14: not Reserve, suspect Regular.
	got := Classify(record(1, "0.00", "0.00", 16, 10), "", nil)
	if got.LineType != bidline.LineRegular {
		t.Errorf("LineType = %q, want regular", got.LineType)
	}
	if !got.LowConfidence {
		t.Error("expected low-confidence flag")
	}
}

func TestClassifyWithTrace(t *testing.T) {
	_, trace := ClassifyWithTrace(record(2, "0.00", "0.00", 16, 14), "", nil)
	if trace.Matched != "reserve" {
		t.Errorf("trace.Matched = %q, want reserve", trace.Matched)
	}
	if len(trace.Steps) != 2 {
		t.Errorf("expected 2 steps (vto miss, reserve hit), got %d", len(trace.Steps))
	}
	if trace.Steps[0].Rule != "vto" || trace.Steps[0].Matched {
		t.Errorf("step 0 = %+v, want vto miss", trace.Steps[0])
	}
}

func TestClassifyLineDoesNotMutate(t *testing.T) {
	line := &bidline.BidLine{LineNumber: 1042, CommentText: "VTO PP2"}
	line.PayPeriods[0] = record(1, "72.23", "54.20", 11, 12)
	line.PayPeriods[1] = record(2, "0.00", "0.00", 16, 14)

	got := ClassifyLine(line)

	if line.PayPeriods[1].LineType != bidline.LineUnclassified {
		t.Error("input line was mutated")
	}
	if got.PayPeriods[0].LineType != bidline.LineRegular {
		t.Errorf("pp1 = %q, want regular", got.PayPeriods[0].LineType)
	}
	if got.PayPeriods[1].LineType != bidline.LineVTO {
		t.Errorf("pp2 = %q, want vto", got.PayPeriods[1].LineType)
	}
	if !got.IsSplit() {
		t.Error("regular+vto line should report as split")
	}
}
