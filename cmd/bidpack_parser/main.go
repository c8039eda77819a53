// Command-line entry point for the bid packet parser (extract-focused).
//
// Note about input formats
// ------------------------
// The parsers in this repo expect a "bidpack.Document" object with at least:
//   - kind  ("pairing" or "bidline")
//   - pages (the extracted plain text, page by page)
//
// In the real world, you may have any of these inputs:
//  1. Feed wrapper:   {"document":{...}, "source":{...}}
//  2. Flat document:  {"kind":"pairing","pages":[...], ...}
//  3. Raw text blob:  plain text with form-feed page breaks (use -text).
//
// This CLI tries to autodetect the first two. Use -text for raw blobs.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/engine"
)

type Stats struct {
	Lines         int
	ParsedWrapped int
	ParsedFlat    int
	SkippedNoKind int
	Parsed        int
	Failed        int
	Blocks        int
	BlocksSkipped int
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "bidpack_parser (extract) - commands:")
	fmt.Fprintln(w, "  extract  - parse JSONL (or raw text) and output JSON results")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  bidpack_parser extract -input docs.jsonl [-output out.json] [-pretty] [-stats]")
	fmt.Fprintln(w, "  bidpack_parser extract -text -kind pairing -period 2026-05 -input packet.txt")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - JSONL input is one document object per line (wrapped or flat).")
	fmt.Fprintln(w, "  - Raw text input is split into pages on form-feed characters.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "extract":
		runExtract(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	inPath := fs.String("input", "", "Input file (default: stdin)")
	outPath := fs.String("output", "", "Output JSON file (default: stdout)")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	rawText := fs.Bool("text", false, "Treat input as a raw text blob, not JSONL")
	kindFlag := fs.String("kind", "", "Document kind for -text input (pairing or bidline)")
	period := fs.String("period", "", "Bid period for -text input, e.g. 2026-05")
	workers := fs.Int("workers", 0, "Parallel block parsers (0 = default)")
	showStats := fs.Bool("stats", false, "Print basic counters to stderr")
	_ = fs.Parse(args)

	var r io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	opts := engine.Options{Workers: *workers}
	st := &Stats{}
	ctx := context.Background()

	var out []*engine.Result

	if *rawText {
		doc, err := readTextDocument(r, *kindFlag, *period)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		st.Lines = 1
		res, err := engine.ParseDocument(ctx, doc, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		st.Parsed++
		tallyResult(st, res)
		out = append(out, res)
	} else {
		scanner := bufio.NewScanner(r)
		// JSON lines can be long; bump buffer (60MB).
		buf := make([]byte, 0, 1024*1024)
		scanner.Buffer(buf, 60*1024*1024)

		for scanner.Scan() {
			st.Lines++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			doc, kind := decodeDocument([]byte(line))
			if doc == nil {
				st.SkippedNoKind++
				continue
			}
			switch kind {
			case "wrapped":
				st.ParsedWrapped++
			case "flat":
				st.ParsedFlat++
			}

			res, err := engine.ParseDocument(ctx, doc, opts)
			if err != nil {
				st.Failed++
				fmt.Fprintf(os.Stderr, "Document %d: %v\n", doc.ID, err)
				continue
			}
			st.Parsed++
			tallyResult(st, res)
			out = append(out, res)
		}

		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Input read error: %v\n", err)
			os.Exit(1)
		}
	}

	var wout io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		wout = f
	}

	enc, err := marshalJSON(out, *pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "JSON encode error: %v\n", err)
		os.Exit(1)
	}
	_, _ = wout.Write(enc)
	if wout == os.Stdout {
		_, _ = wout.Write([]byte("\n"))
	}

	if *showStats {
		fmt.Fprintf(os.Stderr,
			"stats: lines=%d parsed(wrapped=%d flat=%d) skipped(no_kind)=%d docs(ok=%d failed=%d) blocks(ok=%d skipped=%d)\n",
			st.Lines, st.ParsedWrapped, st.ParsedFlat, st.SkippedNoKind, st.Parsed, st.Failed, st.Blocks, st.BlocksSkipped,
		)
	}
}

func readTextDocument(r io.Reader, kindFlag, period string) (*bidpack.Document, error) {
	kind, ok := bidpack.ParseKind(kindFlag)
	if !ok {
		return nil, fmt.Errorf("-text requires -kind pairing or -kind bidline")
	}
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("input read error: %w", err)
	}
	return &bidpack.Document{
		Kind:      kind,
		BidPeriod: period,
		Pages:     bidpack.SplitPages(string(blob)),
	}, nil
}

func tallyResult(st *Stats, res *engine.Result) {
	if res.Pairing != nil {
		st.Blocks += len(res.Pairing.Trips)
		st.BlocksSkipped += len(res.Pairing.Skipped)
	}
	if res.BidLines != nil {
		st.Blocks += len(res.BidLines.Lines)
		st.BlocksSkipped += len(res.BidLines.Skipped)
	}
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func decodeDocument(b []byte) (*bidpack.Document, string) {
	// 1) Feed wrapper
	var w bidpack.FeedWrapper
	if err := json.Unmarshal(b, &w); err == nil && w.Document != nil {
		if doc := w.ToDocument(); doc != nil && doc.Kind != "" && len(doc.Pages) > 0 {
			return doc, "wrapped"
		}
	}

	// 2) Flat document (only accept if it actually carries kind and pages)
	var d bidpack.Document
	if err := json.Unmarshal(b, &d); err == nil {
		if d.Kind != "" && len(d.Pages) > 0 {
			return &d, "flat"
		}
	}

	return nil, ""
}
