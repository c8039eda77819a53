package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"bidpack_parser/internal/bidline"
)

func pp(period int, lt bidline.LineType, ct, bt string, do, dd int) bidline.PayPeriodRecord {
	rec := bidline.PayPeriodRecord{Period: period, LineType: lt}
	if ct != "" {
		rec.CreditTime = decimal.NullDecimal{Decimal: decimal.RequireFromString(ct), Valid: true}
	}
	if bt != "" {
		rec.BlockTime = decimal.NullDecimal{Decimal: decimal.RequireFromString(bt), Valid: true}
	}
	if do >= 0 {
		rec.DaysOff = bidline.Int(do)
	}
	if dd >= 0 {
		rec.DutyDays = bidline.Int(dd)
	}
	return rec
}

func TestSummariseLinesSplitLine(t *testing.T) {
	// A split line: Regular PP1 paired with a VTO PP2. Only PP1 enters
	// the numeric aggregates.
	line := &bidline.BidLine{LineNumber: 1042, Domicile: "DEN"}
	line.PayPeriods[0] = pp(1, bidline.LineRegular, "72.23", "54.20", 11, 12)
	line.PayPeriods[1] = pp(2, bidline.LineVTO, "0.00", "0.00", 16, -1)

	s := SummariseLines([]*bidline.BidLine{line})

	if s.TotalLines != 1 || s.TotalPeriods != 2 {
		t.Errorf("lines/periods = %d/%d, want 1/2", s.TotalLines, s.TotalPeriods)
	}
	if s.SplitLines != 1 {
		t.Errorf("SplitLines = %d, want 1", s.SplitLines)
	}
	if s.IncludedPeriods != 1 {
		t.Errorf("IncludedPeriods = %d, want 1 (VTO excluded)", s.IncludedPeriods)
	}
	if s.RegularPeriods != 1 || s.VTOPeriods != 1 {
		t.Errorf("regular/vto = %d/%d, want 1/1", s.RegularPeriods, s.VTOPeriods)
	}

	if s.CreditTime.Count != 1 {
		t.Fatalf("CreditTime.Count = %d, want 1", s.CreditTime.Count)
	}
	if s.CreditTime.Mean != 72.23 {
		t.Errorf("CreditTime.Mean = %v, want 72.23", s.CreditTime.Mean)
	}
	if s.BlockTime.Mean != 54.2 {
		t.Errorf("BlockTime.Mean = %v, want 54.2", s.BlockTime.Mean)
	}
	if s.DaysOff.Mean != 11 {
		t.Errorf("DaysOff.Mean = %v, want 11", s.DaysOff.Mean)
	}
	if s.DutyDays.Mean != 12 {
		t.Errorf("DutyDays.Mean = %v, want 12", s.DutyDays.Mean)
	}
}

func TestSummariseLinesReserveExcluded(t *testing.T) {
	reserve := &bidline.BidLine{LineNumber: 1050}
	reserve.PayPeriods[0] = pp(1, bidline.LineReserve, "0.00", "0.00", 16, 14)
	reserve.PayPeriods[0].ReserveSubtype = "RA"
	reserve.PayPeriods[1] = pp(2, bidline.LineReserve, "0.00", "0.00", 16, 14)
	reserve.PayPeriods[1].ReserveSubtype = "SB"

	regular := &bidline.BidLine{LineNumber: 1051}
	regular.PayPeriods[0] = pp(1, bidline.LineRegular, "60.10", "50.00", 12, 11)
	regular.PayPeriods[1] = pp(2, bidline.LineRegular, "64.30", "52.00", 13, 12)

	s := SummariseLines([]*bidline.BidLine{reserve, regular})

	if s.ReservePeriods != 2 {
		t.Errorf("ReservePeriods = %d, want 2", s.ReservePeriods)
	}
	if s.IncludedPeriods != 2 {
		t.Errorf("IncludedPeriods = %d, want 2", s.IncludedPeriods)
	}
	// Reserve zeros must not drag the credit statistics down.
	if s.CreditTime.Min != 60.1 {
		t.Errorf("CreditTime.Min = %v, want 60.1", s.CreditTime.Min)
	}

	if s.ReserveSlots.Captain != 1 {
		t.Errorf("ReserveSlots.Captain = %d, want 1", s.ReserveSlots.Captain)
	}
	if s.ReserveSlots.FirstOfficer != 1 {
		t.Errorf("ReserveSlots.FirstOfficer = %d, want 1", s.ReserveSlots.FirstOfficer)
	}
}

func TestSummariseLinesHotStandbyIncluded(t *testing.T) {
	line := &bidline.BidLine{LineNumber: 1060}
	line.PayPeriods[0] = pp(1, bidline.LineHotStandby, "45.10", "0.00", 14, 13)
	line.PayPeriods[1] = pp(2, bidline.LineRegular, "55.00", "48.00", 12, 13)

	s := SummariseLines([]*bidline.BidLine{line})

	if s.HotStandbyPeriods != 1 {
		t.Errorf("HotStandbyPeriods = %d, want 1", s.HotStandbyPeriods)
	}
	if s.IncludedPeriods != 2 {
		t.Errorf("IncludedPeriods = %d, want 2 (hot standby carries pay)", s.IncludedPeriods)
	}
	if s.CreditTime.Count != 2 {
		t.Errorf("CreditTime.Count = %d, want 2", s.CreditTime.Count)
	}
}

func TestSummariseLinesLowConfidenceAndTokens(t *testing.T) {
	line := &bidline.BidLine{LineNumber: 1070}
	line.PayPeriods[0] = pp(1, bidline.LineRegular, "0.00", "0.00", 16, 10)
	line.PayPeriods[0].LowConfidence = true
	line.PayPeriods[1] = pp(2, bidline.LineRegular, "62.00", "50.00", 12, 12)
	line.Calendar = []bidline.CalendarDay{
		{DayIndex: 4, Status: bidline.DayUnknown, Label: "ZZTOP"},
		{DayIndex: 9, Status: bidline.DayUnknown, Label: "AAA"},
		{DayIndex: 12, Status: bidline.DayOff, Label: "OFF"},
	}

	s := SummariseLines([]*bidline.BidLine{line})

	if s.LowConfidence != 1 {
		t.Errorf("LowConfidence = %d, want 1", s.LowConfidence)
	}
	if len(s.UnmatchedTokens) != 2 {
		t.Fatalf("UnmatchedTokens = %v, want 2 entries", s.UnmatchedTokens)
	}
	// Sorted for deterministic summaries.
	if s.UnmatchedTokens[0] != "AAA" || s.UnmatchedTokens[1] != "ZZTOP" {
		t.Errorf("UnmatchedTokens = %v, want [AAA ZZTOP]", s.UnmatchedTokens)
	}
}

func TestSummariseLinesMissingFieldsSkipSample(t *testing.T) {
	line := &bidline.BidLine{LineNumber: 1080}
	line.PayPeriods[0] = pp(1, bidline.LineRegular, "70.00", "", -1, -1)
	line.PayPeriods[1] = pp(2, bidline.LineRegular, "", "", -1, -1)

	s := SummariseLines([]*bidline.BidLine{line})

	if s.CreditTime.Count != 1 {
		t.Errorf("CreditTime.Count = %d, want 1", s.CreditTime.Count)
	}
	if s.BlockTime.Count != 0 {
		t.Errorf("BlockTime.Count = %d, want 0 (absent figures never sampled)", s.BlockTime.Count)
	}
}

func TestSummariseLinesEmpty(t *testing.T) {
	s := SummariseLines(nil)
	if s.TotalLines != 0 || s.CreditTime.Count != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}
