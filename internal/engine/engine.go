// Package engine runs the full parse pass for one document: segment,
// parse blocks, classify, aggregate.
//
// Independent blocks have no cross-dependencies and are parsed on a
// bounded worker pool; results land in an indexed slice and are sorted
// by trip id / line number before aggregation, so output order is
// deterministic regardless of scheduling. The aggregation step is the
// join barrier: it only ever sees a fully collected pass. Nothing is
// mutated in place, which keeps a cancelled pass from corrupting state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"bidpack_parser/internal/aggregate"
	"bidpack_parser/internal/bidline"
	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/classify"
	"bidpack_parser/internal/pairing"
	"bidpack_parser/internal/segment"
)

// Options tunes a parse pass.
type Options struct {
	// Workers bounds block-level parallelism. Zero or negative means
	// a sensible default.
	Workers int
}

const defaultWorkers = 4

// PairingResult is the output of a pairing-document pass.
type PairingResult struct {
	Trips    []*pairing.Trip                `json:"trips"`
	Summary  aggregate.EDWSummary           `json:"summary"`
	Skipped  []*bidpack.BlockParseError     `json:"skipped,omitempty"`
	Warnings []bidpack.FieldCoercionWarning `json:"warnings,omitempty"`
}

// BidLineResult is the output of a bid-line-document pass.
type BidLineResult struct {
	Lines    []*bidline.BidLine             `json:"lines"`
	Summary  aggregate.LineStatsSummary     `json:"summary"`
	Skipped  []*bidpack.BlockParseError     `json:"skipped,omitempty"`
	Warnings []bidpack.FieldCoercionWarning `json:"warnings,omitempty"`
}

// Result is the full output for one document. Exactly one of Pairing
// and BidLines is set, matching the document kind.
type Result struct {
	Document *bidpack.Document `json:"document"`
	Pairing  *PairingResult    `json:"pairing,omitempty"`
	BidLines *BidLineResult    `json:"bid_lines,omitempty"`
}

// ParseDocument runs one synchronous end-to-end pass. A missing header
// fails the whole document; a bad block is recorded and skipped.
func ParseDocument(ctx context.Context, doc *bidpack.Document, opts Options) (*Result, error) {
	switch doc.Kind {
	case bidpack.KindPairing:
		pr, err := parsePairing(ctx, doc.Pages, opts)
		if err != nil {
			return nil, err
		}
		return &Result{Document: doc, Pairing: pr}, nil
	case bidpack.KindBidLine:
		br, err := parseBidLines(ctx, doc.Pages, opts)
		if err != nil {
			return nil, err
		}
		return &Result{Document: doc, BidLines: br}, nil
	default:
		return nil, fmt.Errorf("unknown document kind %q", doc.Kind)
	}
}

// blockOutcome is one block's parse result, collected by index.
type blockOutcome struct {
	trip     *pairing.Trip
	line     *bidline.BidLine
	warnings []bidpack.FieldCoercionWarning
	skipped  *bidpack.BlockParseError
}

func parsePairing(ctx context.Context, pages []string, opts Options) (*PairingResult, error) {
	blocks, err := segment.SegmentPairing(pages)
	if err != nil {
		return nil, err
	}

	outcomes, err := mapBlocks(ctx, blocks, opts, func(b segment.Block) blockOutcome {
		trip, warnings, err := pairing.Parse(b)
		if err != nil {
			return blockOutcome{skipped: asBlockError(bidpack.KindPairing, b, err), warnings: warnings}
		}
		return blockOutcome{trip: pairing.ClassifyEDW(trip), warnings: warnings}
	})
	if err != nil {
		return nil, err
	}

	res := &PairingResult{}
	for _, o := range outcomes {
		res.Warnings = append(res.Warnings, o.warnings...)
		if o.skipped != nil {
			res.Skipped = append(res.Skipped, o.skipped)
			continue
		}
		res.Trips = append(res.Trips, o.trip)
	}

	sort.SliceStable(res.Trips, func(i, j int) bool {
		return res.Trips[i].TripID < res.Trips[j].TripID
	})

	// Join barrier: aggregation sees the complete, ordered pass.
	res.Summary = aggregate.SummariseEDW(res.Trips)
	return res, nil
}

func parseBidLines(ctx context.Context, pages []string, opts Options) (*BidLineResult, error) {
	blocks, err := segment.SegmentBidLines(pages)
	if err != nil {
		return nil, err
	}

	outcomes, err := mapBlocks(ctx, blocks, opts, func(b segment.Block) blockOutcome {
		line, warnings, err := bidline.Parse(b)
		if err != nil {
			return blockOutcome{skipped: asBlockError(bidpack.KindBidLine, b, err), warnings: warnings}
		}
		return blockOutcome{line: classify.ClassifyLine(line), warnings: warnings}
	})
	if err != nil {
		return nil, err
	}

	res := &BidLineResult{}
	for _, o := range outcomes {
		res.Warnings = append(res.Warnings, o.warnings...)
		if o.skipped != nil {
			res.Skipped = append(res.Skipped, o.skipped)
			continue
		}
		res.Lines = append(res.Lines, o.line)
	}

	sort.SliceStable(res.Lines, func(i, j int) bool {
		return res.Lines[i].LineNumber < res.Lines[j].LineNumber
	})

	res.Summary = aggregate.SummariseLines(res.Lines)
	return res, nil
}

// mapBlocks parses blocks on a bounded worker pool and returns outcomes
// in block order. Cancelling ctx abandons the pass without partial
// output.
func mapBlocks(ctx context.Context, blocks []segment.Block, opts Options, parse func(segment.Block) blockOutcome) ([]blockOutcome, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(blocks) {
		workers = len(blocks)
	}

	outcomes := make([]blockOutcome, len(blocks))
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				outcomes[i] = parse(blocks[i])
			}
		}()
	}

feed:
	for i := range blocks {
		select {
		case indices <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indices)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func asBlockError(kind bidpack.DocumentKind, b segment.Block, err error) *bidpack.BlockParseError {
	var bpe *bidpack.BlockParseError
	if errors.As(err, &bpe) {
		return bpe
	}
	return bidpack.NewBlockParseError(kind, b.Key, "parse failed", b.Text, err)
}
