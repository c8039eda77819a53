package segment

import (
	"errors"
	"strings"
	"testing"

	"bidpack_parser/internal/bidpack"
)

func TestSegmentPairing(t *testing.T) {
	pages := []string{
		"MAY 2026 PAIRING PACKET\nDENVER 737 CAPTAIN\n",
		"Trip Id: 8123\nDAY 1 RPT (05)30:00\nUA1428 DEN SFO (06)15:00 (08)02:00 2:47 B738 1/1/0\n" +
			"Trip Id: 8124\nDAY 1 RPT (07)00:00\n",
		"UA99 SFO DEN (09)30:00 (11)02:00 1:32 B738 1/1/0\nTRIP SUMMARY\nCREDIT TIME: 5:15\n",
	}

	blocks, err := SegmentPairing(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}

	if blocks[0].Key != "Trip Id: 8123" {
		t.Errorf("blocks[0].Key = %q, want %q", blocks[0].Key, "Trip Id: 8123")
	}
	if blocks[0].StartPage != 2 {
		t.Errorf("blocks[0].StartPage = %d, want 2", blocks[0].StartPage)
	}
	if strings.Contains(blocks[0].Text, "8124") {
		t.Error("first block should end where the second header starts")
	}

	// Second block spans the page boundary.
	if blocks[1].Key != "Trip Id: 8124" {
		t.Errorf("blocks[1].Key = %q, want %q", blocks[1].Key, "Trip Id: 8124")
	}
	if !strings.Contains(blocks[1].Text, "TRIP SUMMARY") {
		t.Error("second block should carry text from the following page")
	}
}

func TestSegmentPairingOCRGappedHeader(t *testing.T) {
	pages := []string{"Trip  Id :  8123\nDAY 1\n"}

	blocks, err := SegmentPairing(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Key != "Trip Id: 8123" {
		t.Fatalf("blocks = %+v, want one block keyed Trip Id: 8123", blocks)
	}
}

func TestSegmentPairingHeaderOnLastSearchedPage(t *testing.T) {
	pages := []string{
		"cover\n", "toc\n", "legend\n", "notes\n",
		"Trip Id: 9001\nDAY 1 RPT (06)00:00\n",
	}

	blocks, err := SegmentPairing(pages)
	if err != nil {
		t.Fatalf("header on page 5 should be found: %v", err)
	}
	if len(blocks) != 1 || blocks[0].StartPage != 5 {
		t.Fatalf("blocks = %+v, want one block starting page 5", blocks)
	}
}

func TestSegmentPairingMalformed(t *testing.T) {
	pages := []string{
		"cover\n", "toc\n", "legend\n", "notes\n", "more notes\n",
		"Trip Id: 9001\nDAY 1\n", // past the search limit
	}

	_, err := SegmentPairing(pages)
	if err == nil {
		t.Fatal("expected MalformedDocumentError")
	}

	var mde *MalformedDocumentError
	if !errors.As(err, &mde) {
		t.Fatalf("expected *MalformedDocumentError, got %T", err)
	}
	if mde.Kind != bidpack.KindPairing {
		t.Errorf("Kind = %q, want %q", mde.Kind, bidpack.KindPairing)
	}
	if mde.PagesSearched != 5 {
		t.Errorf("PagesSearched = %d, want 5", mde.PagesSearched)
	}
}

func TestSegmentPairingShortDocument(t *testing.T) {
	_, err := SegmentPairing([]string{"cover\n", "toc\n"})

	var mde *MalformedDocumentError
	if !errors.As(err, &mde) {
		t.Fatalf("expected *MalformedDocumentError, got %v", err)
	}
	if mde.PagesSearched != 2 {
		t.Errorf("PagesSearched = %d, want 2", mde.PagesSearched)
	}
}

func TestSegmentBidLines(t *testing.T) {
	pages := []string{
		"MAY 2026 BID LINES\n",
		"DEN 1042\nPP1 CT 72:23 BT 54:20 DO 11 DD 12\n" +
			"DEN 1043\nPP1 CT 0:00 BT 0:00 DO 16 DD 14\n",
	}

	blocks, err := SegmentBidLines(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Key != "DEN 1042" {
		t.Errorf("blocks[0].Key = %q, want %q", blocks[0].Key, "DEN 1042")
	}
	if blocks[1].Key != "DEN 1043" {
		t.Errorf("blocks[1].Key = %q, want %q", blocks[1].Key, "DEN 1043")
	}
}

func TestSegmentBidLinesIgnoresInlineStationWords(t *testing.T) {
	// A station code inside a sentence is not a line header; headers sit
	// alone on their line.
	pages := []string{
		"DEN 1042\nLAYOVER SFO 14:30 HOTEL\nPP1 CT 72:23\n",
	}

	blocks, err := SegmentBidLines(pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
}
