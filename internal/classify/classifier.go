// Package classify tags pay-period records as Regular, Reserve, VTO,
// VTOR, or Hot-Standby.
//
// Classification is an explicit ordered list of (predicate, tag) rules
// evaluated first-match-wins over an immutable record. The order is
// load-bearing: the VTO check always precedes the Reserve check, and
// every multi-field rule treats a missing field as false, never as an
// unresolved value.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"bidpack_parser/internal/bidline"
)

// Context is everything one rule may look at: the record itself, the
// line's comment text, and the calendar cells of this pay period.
type Context struct {
	Record   bidline.PayPeriodRecord
	Comment  string
	Calendar []bidline.CalendarDay
}

// Outcome is a rule's verdict.
type Outcome struct {
	LineType      bidline.LineType
	Subtype       bidline.ReserveSubtype
	LowConfidence bool
}

// Rule is one named step of the classification chain.
type Rule struct {
	Name  string
	Apply func(ctx *Context) (Outcome, bool)
}

// Rules is the fixed evaluation order. Do not reorder without a fixture
// proving the new precedence.
var Rules = []Rule{
	{Name: "vto", Apply: vtoRule},
	{Name: "reserve", Apply: reserveRule},
	{Name: "hot_standby", Apply: hotStandbyRule},
	{Name: "default", Apply: defaultRule},
}

// Step records one rule evaluation for the diagnostics/audit UI.
type Step struct {
	Rule    string `json:"rule"`
	Matched bool   `json:"matched"`
	Note    string `json:"note,omitempty"`
}

// Trace is the full evaluation record for one pay period.
type Trace struct {
	Steps   []Step           `json:"steps"`
	Matched string           `json:"matched"`
	Result  bidline.LineType `json:"result"`
}

// Classify returns a copy of the record with LineType, ReserveSubtype,
// and LowConfidence populated.
func Classify(rec bidline.PayPeriodRecord, comment string, calendar []bidline.CalendarDay) bidline.PayPeriodRecord {
	out, _ := ClassifyWithTrace(rec, comment, calendar)
	return out
}

// ClassifyWithTrace classifies and returns the rule evaluation trace.
func ClassifyWithTrace(rec bidline.PayPeriodRecord, comment string, calendar []bidline.CalendarDay) (bidline.PayPeriodRecord, *Trace) {
	ctx := &Context{Record: rec, Comment: comment, Calendar: calendar}
	trace := &Trace{}

	for _, rule := range Rules {
		outcome, ok := rule.Apply(ctx)
		trace.Steps = append(trace.Steps, Step{Rule: rule.Name, Matched: ok})
		if !ok {
			continue
		}
		rec.LineType = outcome.LineType
		rec.ReserveSubtype = outcome.Subtype
		rec.LowConfidence = outcome.LowConfidence
		trace.Matched = rule.Name
		trace.Result = outcome.LineType
		return rec, trace
	}

	// Unreachable: the default rule always matches.
	rec.LineType = bidline.LineRegular
	rec.LowConfidence = true
	return rec, trace
}

// ClassifyLine classifies both pay periods of a line and returns a new
// BidLine; the input is not mutated.
func ClassifyLine(line *bidline.BidLine) *bidline.BidLine {
	out := *line
	for i := range out.PayPeriods {
		rec := out.PayPeriods[i]
		out.PayPeriods[i] = Classify(rec, line.CommentText, line.PeriodCalendar(rec.Period))
	}
	return &out
}

var (
	vtoTokenRe     = regexp.MustCompile(`\b(VTOR|VTO|VOR)\b(?:\s+PP\s?([12]))?`)
	reserveTokenRe = regexp.MustCompile(`\b([RS][ABCD])\b(?:\s+PP\s?([12]))?`)
)

// commentToken finds a token in the comment text scoped to this period.
// "VTO PP2" binds to period 2 only; a bare token binds to both periods.
func commentToken(re *regexp.Regexp, comment string, period int) (string, bool) {
	for _, m := range re.FindAllStringSubmatch(strings.ToUpper(comment), -1) {
		if m[2] == "" || m[2] == fmt.Sprint(period) {
			return m[1], true
		}
	}
	return "", false
}

// vtoRule: a VTO/VTOR/VOR token in the comment or calendar for this
// period. VOR is treated as VTOR.
func vtoRule(ctx *Context) (Outcome, bool) {
	token, ok := commentToken(vtoTokenRe, ctx.Comment, ctx.Record.Period)
	if !ok {
		for _, d := range ctx.Calendar {
			if d.Status == bidline.DayVTO {
				token, ok = d.Label, true
				break
			}
		}
	}
	if !ok {
		return Outcome{}, false
	}

	t := bidline.LineVTO
	if token == "VTOR" || token == "VOR" {
		t = bidline.LineVTOR
	}
	return Outcome{LineType: t}, true
}

// reserveRule: CT == 0, BT == 0, and DD == 14 must all hold. Each test
// is explicitly false when the field is absent; a missing credit figure
// must never classify a period as Reserve.
func reserveRule(ctx *Context) (Outcome, bool) {
	rec := ctx.Record

	zeroCredit := rec.CreditTime.Valid && rec.CreditTime.Decimal.IsZero()
	zeroBlock := rec.BlockTime.Valid && rec.BlockTime.Decimal.IsZero()
	halfPeriod := rec.DutyDays.Valid && rec.DutyDays.Value == 14

	if !(zeroCredit && zeroBlock && halfPeriod) {
		return Outcome{}, false
	}

	return Outcome{LineType: bidline.LineReserve, Subtype: reserveSubtype(ctx)}, true
}

// reserveSubtype reads the slot code from the calendar or comment.
func reserveSubtype(ctx *Context) bidline.ReserveSubtype {
	for _, d := range ctx.Calendar {
		if d.Status == bidline.DayReserve && d.Label != "" {
			return bidline.ReserveSubtype(d.Label)
		}
	}
	if token, ok := commentToken(reserveTokenRe, ctx.Comment, ctx.Record.Period); ok {
		return bidline.ReserveSubtype(token)
	}
	return ""
}

// hotStandbyRule: a standby calendar code plus non-zero credit or block
// time. Hot standby carries real pay metrics, so unlike Reserve it is
// kept in the aggregates.
func hotStandbyRule(ctx *Context) (Outcome, bool) {
	standby := false
	for _, d := range ctx.Calendar {
		if d.Status == bidline.DayStandby {
			standby = true
			break
		}
	}
	if !standby {
		return Outcome{}, false
	}

	rec := ctx.Record
	nonZeroCredit := rec.CreditTime.Valid && rec.CreditTime.Decimal.IsPositive()
	nonZeroBlock := rec.BlockTime.Valid && rec.BlockTime.Decimal.IsPositive()
	if !nonZeroCredit && !nonZeroBlock {
		return Outcome{}, false
	}

	return Outcome{LineType: bidline.LineHotStandby}, true
}

// defaultRule: everything else is Regular. When the calendar carried
// signals that failed their rule (standby codes with no pay, reserve
// slots with pay), the record still degrades to Regular but is flagged
// low-confidence so one odd format never blocks a batch.
func defaultRule(ctx *Context) (Outcome, bool) {
	return Outcome{LineType: bidline.LineRegular, LowConfidence: ambiguous(ctx)}, true
}

func ambiguous(ctx *Context) bool {
	for _, d := range ctx.Calendar {
		if d.Status == bidline.DayStandby || d.Status == bidline.DayReserve {
			return true
		}
	}

	rec := ctx.Record
	zeroCredit := rec.CreditTime.Valid && rec.CreditTime.Decimal.IsZero()
	zeroBlock := rec.BlockTime.Valid && rec.BlockTime.Decimal.IsZero()
	// A zeroed-out period that missed the Reserve day count is suspect.
	return zeroCredit && zeroBlock
}
