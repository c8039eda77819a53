// Package pairing provides grok-style pattern definitions for trip block
// line parsing.
package pairing

import "bidpack_parser/internal/patterns"

// Formats defines the known trip block line formats.
var Formats = []patterns.Format{
	// Deadhead leg, "DH"-prefixed. Aircraft type and crew need may be
	// omitted by some packet generators.
	// Example: DH UA2210 SFO LAX (09)10:00 (10)25:00 1:15 A320 0/0/0
	{
		Name: "leg_deadhead",
		Pattern: `^\s*DH\s+(?P<flight>{FLIGHT})\s+(?P<orig>{STATION})\s+(?P<dest>{STATION})\s+` +
			`(?P<dep>{LOCALTIME})\s+(?P<arr>{LOCALTIME})\s+(?P<block>{DUR})` +
			`(?:\s+(?P<actype>{ACTYPE}))?(?:\s+(?P<crew>{CREWNEED}))?\s*$`,
		Fields: []string{"flight", "orig", "dest", "dep", "arr", "block", "actype", "crew"},
	},
	// Ground transport between stations.
	// Example: GT ALAMO BUS LAX ONT (11)00:00 (11)45:00 0:45
	{
		Name: "leg_ground",
		Pattern: `^\s*GT\s+(?P<carrier>[A-Z][A-Z ]*?)\s*BUS\s+(?P<orig>{STATION})\s+(?P<dest>{STATION})\s+` +
			`(?P<dep>{LOCALTIME})\s+(?P<arr>{LOCALTIME})\s+(?P<block>{DUR})\s*$`,
		Fields: []string{"carrier", "orig", "dest", "dep", "arr", "block"},
	},
	// Regular revenue leg. Trailing C marks a catered leg.
	// Example: UA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0 C
	{
		Name: "leg_flight",
		Pattern: `^\s*(?P<flight>{FLIGHT})\s+(?P<orig>{STATION})\s+(?P<dest>{STATION})\s+` +
			`(?P<dep>{LOCALTIME})\s+(?P<arr>{LOCALTIME})\s+(?P<block>{DUR})\s+` +
			`(?P<actype>{ACTYPE})\s+(?P<crew>{CREWNEED})(?:\s+(?P<catered>C))?\s*$`,
		Fields: []string{"flight", "orig", "dest", "dep", "arr", "block", "actype", "crew", "catered"},
	},
	// Duty-period release/summary line. The credit suffix is the rig
	// basis: M actual, D duty rig, T trip rig, L other.
	// Example: RLS (12)15:00 DUTY 6:45 BLOCK 4:02 CREDIT 5:15M REST 14:30
	{
		Name: "duty_release",
		Pattern: `^\s*RLS\s+(?P<rls>{LOCALTIME})\s+DUTY\s+(?P<duty>{DUR})\s+BLOCK\s+(?P<block>{DUR})\s+` +
			`CREDIT\s+(?P<credit>{DUR})\s?(?P<basis>[MDTL])?(?:\s+REST\s+(?P<rest>{DUR}))?\s*$`,
		Fields: []string{"rls", "duty", "block", "credit", "basis", "rest"},
	},
}
