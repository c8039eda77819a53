// Package patterns provides shared regex patterns and helper functions for
// bid-packet parsing. This file contains grok-style base patterns for use
// with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern
// composition. These are referenced in format patterns using {PATTERN_NAME}
// syntax.
var BasePatterns = map[string]string{
	// Station codes. Crew packets use IATA codes throughout.
	"STATION": `[A-Z]{3}`,

	// Flight identifiers: 1-3 letter carrier code + 1-4 digits.
	// e.g., UA1428, DL82, AA2210
	"FLIGHT": `[A-Z]{1,3}\s?\d{1,4}`,

	// Durations in H:MM or HH:MM or HHH:MM form. OCR sometimes opens a
	// gap around the colon, so optional spaces are allowed.
	"DUR": `\d{1,3}\s?:\s?\d{2}`,

	// Local time convention: "(HH)MM:SS" where the parenthesised HH is
	// the local hour and MM the minute. Seconds are carried by some
	// packet generators and ignored. OCR gaps tolerated.
	"LOCALTIME": `\(\s?\d{1,2}\s?\)\s?\d{2}(?:\s?:\s?\d{2})?`,

	// Crew need: captain/first-officer/flight-engineer counts.
	"CREWNEED": `\d\s?/\s?\d\s?/\s?\d`,

	// Aircraft type codes, e.g. B738, A320, B77W, MD11.
	"ACTYPE": `[A-Z]{1,2}\d{2,3}[A-Z0-9]?`,

	// Decimal numbers (per diem, credit hours in decimal form).
	"DECIMAL": `\d{1,4}\s?[.:]\s?\d{2}`,

	// Day-of-month index in a calendar grid (1-31).
	"CALDAY": `\d{1,2}`,

	// Reserve slot codes: RA-RD (captain), SA-SD (first officer).
	"RESCODE": `[RS][ABCD]`,

	// Hot-standby codes.
	"SBYCODE": `HSBY|SBG\d`,

	// Bid line domiciles are IATA station codes; line numbers 1-4 digits.
	"LINE": `\d{1,4}`,
}
