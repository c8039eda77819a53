package bidpack

import "fmt"

// excerptLimit bounds how much raw text a block error carries for the
// diagnostics/audit UI.
const excerptLimit = 600

// BlockParseError reports that one trip or line block failed to parse.
// The engine records it, skips the block, and continues with the rest.
type BlockParseError struct {
	Kind    DocumentKind `json:"kind"`
	Key     string       `json:"key"`     // block key, e.g. "Trip Id: 8123"
	Reason  string       `json:"reason"`  // short human-readable cause
	Excerpt string       `json:"excerpt"` // offending raw text
	Err     error        `json:"-"`
}

func (e *BlockParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s block %q: %s: %v", e.Kind, e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s block %q: %s", e.Kind, e.Key, e.Reason)
}

func (e *BlockParseError) Unwrap() error { return e.Err }

// NewBlockParseError builds a BlockParseError, truncating the excerpt.
func NewBlockParseError(kind DocumentKind, key, reason, raw string, err error) *BlockParseError {
	if len(raw) > excerptLimit {
		raw = raw[:excerptLimit]
	}
	return &BlockParseError{Kind: kind, Key: key, Reason: reason, Excerpt: raw, Err: err}
}

// FieldCoercionWarning records a numeric field that could not be cleanly
// parsed and was coerced with a fallback. Non-fatal; surfaced as a
// diagnostic, never silently dropped.
type FieldCoercionWarning struct {
	BlockKey string `json:"block_key"`
	Field    string `json:"field"`
	Raw      string `json:"raw"`
	Fallback string `json:"fallback"`
}

func (w FieldCoercionWarning) String() string {
	return fmt.Sprintf("block %q field %s: coerced %q -> %q", w.BlockKey, w.Field, w.Raw, w.Fallback)
}
