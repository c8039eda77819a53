// Package bidpack provides bid-packet document types and structures.
package bidpack

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DocumentKind identifies which packet layout a document uses.
type DocumentKind string

const (
	KindPairing DocumentKind = "pairing"
	KindBidLine DocumentKind = "bidline"
)

// ParseKind normalises a document kind string from feeds or flags.
func ParseKind(s string) (DocumentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pairing", "pairings", "trip":
		return KindPairing, true
	case "bidline", "bidlines", "line":
		return KindBidLine, true
	}
	return "", false
}

// FlexInt64 handles JSON fields that can be either string or number.
type FlexInt64 int64

func (f *FlexInt64) UnmarshalJSON(data []byte) error {
	// Try as number first
	var i int64
	if err := json.Unmarshal(data, &i); err == nil {
		*f = FlexInt64(i)
		return nil
	}

	// Try as string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			*f = 0
			return nil // Silently ignore unparseable ids
		}
		*f = FlexInt64(i)
		return nil
	}

	*f = 0
	return nil
}

// Document represents one extracted packet: the per-page plain text
// plus the metadata the PDF-extraction collaborator supplies. The
// parser never sees PDF bytes.
type Document struct {
	ID        FlexInt64    `json:"id"`
	Kind      DocumentKind `json:"kind"`
	BidPeriod string       `json:"bid_period"` // e.g. "2026-05"
	Domicile  string       `json:"domicile,omitempty"`
	Fleet     string       `json:"fleet,omitempty"`
	Seat      string       `json:"seat,omitempty"` // CA or FO packet
	Source    string       `json:"source,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Pages     []string     `json:"pages"`
}

// FeedWrapper represents the extraction feed format where the document
// is nested inside a "document" field with metadata at the top level.
type FeedWrapper struct {
	Source   *FeedSource `json:"source,omitempty"`
	Document *FeedInner  `json:"document,omitempty"`
}

// FeedSource contains source metadata from the extraction feed.
type FeedSource struct {
	Name        string `json:"name,omitempty"`
	Application string `json:"application,omitempty"`
}

// FeedInner is the inner document structure from the extraction feed.
type FeedInner struct {
	ID        FlexInt64 `json:"id"`
	Kind      string    `json:"kind"`
	BidPeriod string    `json:"bid_period"`
	Domicile  string    `json:"domicile,omitempty"`
	Fleet     string    `json:"fleet,omitempty"`
	Seat      string    `json:"seat,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
	Pages     []string  `json:"pages"`
	// Some extractors deliver a single blob with form-feed page breaks.
	Text string `json:"text,omitempty"`
}

// ToDocument converts a FeedWrapper to a unified Document.
func (w *FeedWrapper) ToDocument() *Document {
	if w.Document == nil {
		return nil
	}

	kind, _ := ParseKind(w.Document.Kind)
	doc := &Document{
		ID:        w.Document.ID,
		Kind:      kind,
		BidPeriod: w.Document.BidPeriod,
		Domicile:  w.Document.Domicile,
		Fleet:     w.Document.Fleet,
		Seat:      w.Document.Seat,
		Timestamp: w.Document.Timestamp,
		Pages:     w.Document.Pages,
	}

	if w.Source != nil {
		doc.Source = w.Source.Name
	}

	// Fall back to the blob form if no page array was supplied.
	if len(doc.Pages) == 0 && w.Document.Text != "" {
		doc.Pages = SplitPages(w.Document.Text)
	}

	return doc
}

// SplitPages splits a single text blob into pages on form-feed marks.
// A blob without form feeds is a single page.
func SplitPages(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\f")
}
