// Package segment splits per-page packet text into trip or line blocks.
//
// The segmenter is a pure function over the page slice: scanning state is
// threaded through an explicit accumulator so concurrent document parses
// can never interfere with each other.
package segment

import (
	"fmt"
	"strings"

	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/patterns"
)

// headerSearchPages bounds how deep into the document the first block
// header may appear. Packets open with up to a handful of cover pages.
const headerSearchPages = 5

// Block is one raw trip or line block cut out of the page stream.
type Block struct {
	Key       string `json:"key"`        // "Trip Id: 8123" or "DEN 1042"
	Text      string `json:"text"`       // raw block text, may span pages
	StartPage int    `json:"start_page"` // 1-based page of the header
}

// MalformedDocumentError reports a document with no recognisable block
// header within the search limit. It is fatal for the whole document.
type MalformedDocumentError struct {
	Kind          bidpack.DocumentKind
	PagesSearched int
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed %s document: no block header found in first %d pages",
		e.Kind, e.PagesSearched)
}

// SegmentPairing splits pairing-packet pages into trip blocks keyed by
// their "Trip Id: N" headers.
func SegmentPairing(pages []string) ([]Block, error) {
	return run(pages, bidpack.KindPairing, findTripHeaders)
}

// SegmentBidLines splits bid-line-packet pages into line blocks keyed by
// their "<DOMICILE> <LINE_NUMBER>" headers.
func SegmentBidLines(pages []string) ([]Block, error) {
	return run(pages, bidpack.KindBidLine, findLineHeaders)
}

// headerMatch is one header occurrence within a page.
type headerMatch struct {
	start int    // byte offset of the header in the page
	key   string // normalised block key
}

// accumulator carries the in-progress block across page boundaries.
// It replaces the shared "current header" variable a page-at-a-time
// scanner would otherwise be tempted to keep in package state.
type accumulator struct {
	blocks []Block
	open   bool
	cur    Block
}

func (a *accumulator) start(key string, page int) {
	a.flush()
	a.cur = Block{Key: key, StartPage: page}
	a.open = true
}

func (a *accumulator) extend(text string) {
	if a.open {
		a.cur.Text += text
	}
}

func (a *accumulator) flush() {
	if a.open {
		a.cur.Text = strings.TrimRight(a.cur.Text, " \t\n")
		a.blocks = append(a.blocks, a.cur)
		a.open = false
	}
}

func run(pages []string, kind bidpack.DocumentKind, find func(string) []headerMatch) ([]Block, error) {
	acc := accumulator{}

	for i, page := range pages {
		pageNo := i + 1
		matches := find(page)

		if len(matches) == 0 {
			if !acc.open && pageNo >= headerSearchPages {
				break
			}
			acc.extend(page)
			continue
		}

		// Text before the first header belongs to the previous block.
		acc.extend(page[:matches[0].start])

		for j, m := range matches {
			end := len(page)
			if j+1 < len(matches) {
				end = matches[j+1].start
			}
			acc.start(m.key, pageNo)
			acc.extend(page[m.start:end])
		}
	}
	acc.flush()

	if len(acc.blocks) == 0 {
		searched := headerSearchPages
		if len(pages) < searched {
			searched = len(pages)
		}
		return nil, &MalformedDocumentError{Kind: kind, PagesSearched: searched}
	}

	return acc.blocks, nil
}

func findTripHeaders(page string) []headerMatch {
	var out []headerMatch
	for _, loc := range patterns.TripHeaderPattern.FindAllStringSubmatchIndex(page, -1) {
		id := page[loc[2]:loc[3]]
		out = append(out, headerMatch{
			start: loc[0],
			key:   "Trip Id: " + id,
		})
	}
	return out
}

func findLineHeaders(page string) []headerMatch {
	var out []headerMatch
	for _, loc := range patterns.LineHeaderPattern.FindAllStringSubmatchIndex(page, -1) {
		dom := page[loc[2]:loc[3]]
		line := page[loc[4]:loc[5]]
		out = append(out, headerMatch{
			start: loc[0],
			key:   dom + " " + line,
		})
	}
	return out
}
