// Package bidline parses line blocks from bid-line packets into two
// pay-period records plus calendar assignments.
package bidline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/patterns"
	"bidpack_parser/internal/segment"
)

var (
	// PP1 CT 72:23 BT 54:20 DO 11 DD 12
	payPeriodRe = regexp.MustCompile(`(?im)^\s*PP\s?([12])\b(.*)$`)

	ctFieldRe = regexp.MustCompile(`\bCT\s+(\d{1,4}\s?[.:]\s?\d{1,2})`)
	btFieldRe = regexp.MustCompile(`\bBT\s+(\d{1,4}\s?[.:]\s?\d{1,2})`)
	doFieldRe = regexp.MustCompile(`\bDO\s+(\d{1,2})\b`)
	ddFieldRe = regexp.MustCompile(`\bDD\s+(\d{1,2})\b`)

	// REMARKS: VTO PP2 CONTACT SCHEDULING
	remarksRe = regexp.MustCompile(`(?im)^\s*(?:REMARKS?|COMMENTS?)\s*:?\s*(.+)$`)

	// 12: 8123 RPT (06)15 CR 5:15 SFO
	calendarCellRe = regexp.MustCompile(`(?m)^\s*(\d{1,2})\s*:\s*(.+?)\s*$`)

	cellTripRe    = regexp.MustCompile(`^(\d{3,5})\b`)
	cellRptRe     = regexp.MustCompile(`\bRPT\s+(\(\s?\d{1,2}\s?\)\s?\d{2}(?:\s?:\s?\d{2})?)`)
	cellCreditRe  = regexp.MustCompile(`\bCR\s+(\d{1,2}\s?:\s?\d{2})`)
	cellLayoverRe = regexp.MustCompile(`\b([A-Z]{3})\s*$`)
	cellReserveRe = regexp.MustCompile(`^([RS][ABCD])\b`)
	cellVTORe     = regexp.MustCompile(`^(VTOR?|VOR)\b`)
	cellStandbyRe = regexp.MustCompile(`^(HSBY|SBG\d)\b`)
)

// ParsePayFigure coerces an HH.MM / HH:MM pay figure to an exact
// decimal, keeping the packet's hours.minutes printing ("72:23" and
// "72.23" are the same value).
func ParsePayFigure(s string) (decimal.Decimal, error) {
	h, m, err := patterns.SplitHoursMinutes(patterns.StripOCRGaps(s))
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(int64(h*100+m), -2), nil
}

// Parse parses one line block into a BidLine with two independently
// parsed pay-period records plus calendar cells. Classification is a
// separate pass (internal/classify).
func Parse(block segment.Block) (*BidLine, []bidpack.FieldCoercionWarning, error) {
	fail := func(reason string) (*BidLine, []bidpack.FieldCoercionWarning, error) {
		return nil, nil, bidpack.NewBlockParseError(bidpack.KindBidLine, block.Key, reason, block.Text, nil)
	}

	header := patterns.LineHeaderPattern.FindStringSubmatch(block.Text)
	if header == nil {
		return fail("missing line header")
	}
	lineNumber, _ := strconv.Atoi(header[2])

	line := &BidLine{
		LineNumber: lineNumber,
		Domicile:   header[1],
	}
	line.PayPeriods[0] = PayPeriodRecord{Period: 1}
	line.PayPeriods[1] = PayPeriodRecord{Period: 2}

	var warnings []bidpack.FieldCoercionWarning
	warn := func(field, raw string) {
		warnings = append(warnings, bidpack.FieldCoercionWarning{
			BlockKey: block.Key, Field: field, Raw: raw, Fallback: "absent",
		})
	}

	ppSeen := 0
	for _, m := range payPeriodRe.FindAllStringSubmatch(block.Text, -1) {
		idx, _ := strconv.Atoi(m[1])
		rec := &line.PayPeriods[idx-1]
		parsePayPeriodFields(rec, m[2], "pp"+m[1], warn)
		ppSeen++
	}
	if ppSeen == 0 {
		return fail("no pay-period rows")
	}

	var remarks []string
	for _, m := range remarksRe.FindAllStringSubmatch(block.Text, -1) {
		remarks = append(remarks, patterns.Squeeze(m[1]))
	}
	line.CommentText = strings.Join(remarks, " ")

	for _, m := range calendarCellRe.FindAllStringSubmatch(block.Text, -1) {
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			continue
		}
		line.Calendar = append(line.Calendar, parseCalendarCell(day, m[2]))
	}

	return line, warnings, nil
}

// parsePayPeriodFields fills one record from the tail of a PP row.
// Fields that are absent or fail coercion stay explicitly invalid.
func parsePayPeriodFields(rec *PayPeriodRecord, rest, prefix string, warn func(field, raw string)) {
	if m := ctFieldRe.FindStringSubmatch(rest); m != nil {
		if d, err := ParsePayFigure(m[1]); err == nil {
			rec.CreditTime = decimal.NullDecimal{Decimal: d, Valid: true}
		} else {
			warn(prefix+".credit_time", m[1])
		}
	}
	if m := btFieldRe.FindStringSubmatch(rest); m != nil {
		if d, err := ParsePayFigure(m[1]); err == nil {
			rec.BlockTime = decimal.NullDecimal{Decimal: d, Valid: true}
		} else {
			warn(prefix+".block_time", m[1])
		}
	}
	if m := doFieldRe.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rec.DaysOff = Int(n)
		}
	}
	if m := ddFieldRe.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			rec.DutyDays = Int(n)
		}
	}
}

// parseCalendarCell classifies a single calendar cell token.
func parseCalendarCell(day int, raw string) CalendarDay {
	cell := CalendarDay{DayIndex: day}
	text := strings.ToUpper(patterns.Squeeze(raw))

	switch {
	case text == "OFF" || text == "X" || text == "-":
		cell.Status = DayOff
		cell.Label = "OFF"

	case cellReserveRe.MatchString(text):
		cell.Status = DayReserve
		cell.Label = cellReserveRe.FindStringSubmatch(text)[1]

	case cellVTORe.MatchString(text):
		cell.Status = DayVTO
		cell.Label = cellVTORe.FindStringSubmatch(text)[1]

	case cellStandbyRe.MatchString(text):
		cell.Status = DayStandby
		cell.Label = cellStandbyRe.FindStringSubmatch(text)[1]

	case cellTripRe.MatchString(text):
		cell.Status = DayTrip
		id := cellTripRe.FindStringSubmatch(text)[1]
		cell.TripID, _ = strconv.Atoi(id)
		cell.Label = id
		if m := cellRptRe.FindStringSubmatch(text); m != nil {
			if rpt, err := patterns.ParseLocalTime(patterns.StripOCRGaps(m[1])); err == nil {
				cell.ReportTime = &rpt
			}
		}
		if m := cellCreditRe.FindStringSubmatch(text); m != nil {
			if min, err := patterns.ParseDurationMinutes(patterns.StripOCRGaps(m[1])); err == nil {
				cell.CreditMinutes = Int(min)
			}
		}
		if m := cellLayoverRe.FindStringSubmatch(text); m != nil && m[1] != "RPT" {
			cell.LayoverCity = m[1]
		}

	default:
		cell.Status = DayUnknown
		cell.Label = text
	}

	return cell
}
