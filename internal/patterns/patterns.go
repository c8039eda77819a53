// Package patterns provides shared regex patterns and helper functions for
// bid-packet parsing.
package patterns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Core patterns used across the segmenter and block parsers.
var (
	// TripHeaderPattern matches a trip block header. OCR output sometimes
	// opens gaps inside the label, e.g. "Trip  Id :  8123".
	TripHeaderPattern = regexp.MustCompile(`(?i)\bTRIP\s*ID\s*:?\s*(\d{1,5})\b`)

	// LineHeaderPattern matches a bid-line block header at line start:
	// "<DOMICILE> <LINE_NUMBER>", e.g. "DEN 1042".
	LineHeaderPattern = regexp.MustCompile(`(?m)^\s*([A-Z]{3})\s+(\d{1,4})\s*$`)

	// DayMarkerPattern matches a duty-day marker with optional report time.
	// e.g. "DAY 2  RPT (05)30:00"
	DayMarkerPattern = regexp.MustCompile(`(?i)\bDAY\s+(\d{1,2})\b(?:\s+RPT\s+(\(\s?\d{1,2}\s?\)\s?\d{2}(?:\s?:\s?\d{2})?))?`)

	// durPattern matches H:MM durations, tolerating OCR gaps round the colon.
	durPattern = regexp.MustCompile(`^(\d{1,3})\s?:\s?(\d{2})$`)

	// localTimePattern matches the "(HH)MM:SS" local time convention.
	// The parenthesised hour is local; trailing seconds are ignored.
	localTimePattern = regexp.MustCompile(`^\(\s?(\d{1,2})\s?\)\s?(\d{2})(?:\s?:\s?\d{2})?$`)

	// decimalPattern matches HH.MM / HH:MM credit figures.
	decimalPattern = regexp.MustCompile(`^(\d{1,4})\s?[.:]\s?(\d{1,2})$`)

	wsRun = regexp.MustCompile(`\s+`)
)

// Squeeze collapses whitespace runs to single spaces and trims the ends.
func Squeeze(s string) string {
	return strings.TrimSpace(wsRun.ReplaceAllString(s, " "))
}

// StripOCRGaps removes spaces OCR tends to insert around punctuation
// inside numeric fields: "7 2 :23" -> "72:23", "( 05 )30" -> "(05)30".
func StripOCRGaps(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i, r := range runes {
		if r == ' ' || r == '\t' {
			prev, next := byteAt(runes, i-1), byteAt(runes, i+1)
			if isGlue(prev) || isGlue(next) || (isDigit(prev) && isDigit(next)) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func byteAt(rs []rune, i int) rune {
	if i < 0 || i >= len(rs) {
		return 0
	}
	return rs[i]
}

func isGlue(r rune) bool {
	return r == ':' || r == '.' || r == '(' || r == ')' || r == '/'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// LocalTime is a wall-clock time in the station's local zone. Packets
// carry it as "(HH)MM:SS"; only hour and minute are meaningful.
type LocalTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// MinuteOfDay returns minutes since local midnight.
func (t LocalTime) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseLocalTime parses the "(HH)MM:SS" convention. The parenthesised
// hour is read as local regardless of any zulu annotation elsewhere on
// the line.
func ParseLocalTime(s string) (LocalTime, error) {
	m := localTimePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return LocalTime{}, fmt.Errorf("not a (HH)MM local time: %q", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return LocalTime{}, fmt.Errorf("local time out of range: %q", s)
	}
	return LocalTime{Hour: hour, Minute: minute}, nil
}

// ParseDurationMinutes parses an H:MM duration into whole minutes.
func ParseDurationMinutes(s string) (int, error) {
	m := durPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("not an H:MM duration: %q", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, fmt.Errorf("duration minutes out of range: %q", s)
	}
	return h*60 + mm, nil
}

// FormatMinutes renders whole minutes back to H:MM for display.
func FormatMinutes(min int) string {
	return fmt.Sprintf("%d:%02d", min/60, min%60)
}

// SplitHoursMinutes parses an HH.MM or HH:MM pay figure into its printed
// hour and minute components. Pay-period credit figures keep the packet's
// hours.minutes convention, so "72:23" and "72.23" are the same value.
func SplitHoursMinutes(s string) (hours, minutes int, err error) {
	m := decimalPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("not an HH.MM figure: %q", s)
	}
	hours, _ = strconv.Atoi(m[1])
	minutes, _ = strconv.Atoi(m[2])
	return hours, minutes, nil
}
