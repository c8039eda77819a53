// Early/Day-Window classification.
//
// A duty day touches the EDW window when any briefing time, leg
// departure, leg arrival, or release time falls in [02:30, 05:00)
// local. The lower bound is inclusive, the upper exclusive; both were
// inferred from worked reference examples.

package pairing

import "bidpack_parser/internal/patterns"

const (
	edwStartMinute = 2*60 + 30 // 02:30, inclusive
	edwEndMinute   = 5 * 60    // 05:00, exclusive
)

// InEDWWindow reports whether a local time falls inside the window.
func InEDWWindow(t patterns.LocalTime) bool {
	m := t.MinuteOfDay()
	return m >= edwStartMinute && m < edwEndMinute
}

// dutyDayTouchesEDW checks every timestamp the duty day carries.
func dutyDayTouchesEDW(d DutyDay) bool {
	if d.ReportTime != nil && InEDWWindow(*d.ReportTime) {
		return true
	}
	if d.ReleaseTime != nil && InEDWWindow(*d.ReleaseTime) {
		return true
	}
	for _, l := range d.Legs {
		if InEDWWindow(l.Departure) || InEDWWindow(l.Arrival) {
			return true
		}
	}
	return false
}

// ClassifyEDW returns a copy of the trip with TouchesEDW set on each
// duty day and IsEDW/EDWReason derived from them. The input trip is not
// mutated; classification is pure and order-independent across days.
func ClassifyEDW(t *Trip) *Trip {
	out := *t
	out.DutyDays = make([]DutyDay, len(t.DutyDays))
	out.EDWReason = nil

	for i, d := range t.DutyDays {
		day := d
		day.TouchesEDW = dutyDayTouchesEDW(d)
		if day.TouchesEDW {
			out.EDWReason = append(out.EDWReason, day.Number)
		}
		out.DutyDays[i] = day
	}

	out.IsEDW = len(out.EDWReason) > 0
	return &out
}
