// Package main provides the bidpack-ingest service.
//
// It consumes extracted bid packet documents from a NATS subject, runs
// the full segment/parse/classify/aggregate pipeline, and persists the
// results to PostgreSQL (state), ClickHouse (analytics rows), the SQLite
// trip catalog, and the SQLite parse-issue audit.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"bidpack_parser/internal/bidpack"
	"bidpack_parser/internal/catalog"
	"bidpack_parser/internal/config"
	"bidpack_parser/internal/engine"
	"bidpack_parser/internal/logger"
	"bidpack_parser/internal/metrics"
	"bidpack_parser/internal/pairing"
	"bidpack_parser/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("open databases", "error", err)
	}
	defer db.Close()

	if err := db.CreateSchemas(ctx); err != nil {
		log.Fatal("create schemas", "error", err)
	}

	audit, err := storage.OpenAudit(cfg.AuditPath)
	if err != nil {
		log.Fatal("open audit store", "error", err)
	}
	defer audit.Close()

	cat, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatal("open trip catalog", "error", err)
	}
	defer cat.Close()

	cat.OnTripNew(func(bidPeriod string, t *pairing.Trip) {
		log.Debug("trip catalogued", "bid_period", bidPeriod, "trip_id", t.TripID)
	})

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("bidpack-ingest"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		log.Fatal("connect to NATS", "url", cfg.NATSURL, "error", err)
	}
	defer nc.Drain()

	ing := &ingester{
		db:    db,
		audit: audit,
		cat:   cat,
		opts:  engine.Options{Workers: cfg.Workers},
		log:   log,
	}

	sub, err := nc.Subscribe(cfg.NATSSubject, func(msg *nats.Msg) {
		ing.handle(ctx, msg.Data)
	})
	if err != nil {
		log.Fatal("subscribe", "subject", cfg.NATSSubject, "error", err)
	}
	defer sub.Unsubscribe()

	log.Info("bidpack-ingest running", "subject", cfg.NATSSubject, "workers", cfg.Workers)

	<-ctx.Done()
	log.Info("shutting down")
}

type ingester struct {
	db    *storage.DB
	audit *storage.AuditDB
	cat   *catalog.Catalog
	opts  engine.Options
	log   logger.Logger
}

func (g *ingester) handle(ctx context.Context, data []byte) {
	started := time.Now()

	doc := decodeDocument(data)
	if doc == nil {
		g.log.Warn("dropping undecodable feed message", "bytes", len(data))
		metrics.DocumentsProcessed.WithLabelValues("unknown", "undecodable").Inc()
		return
	}

	res, err := engine.ParseDocument(ctx, doc, g.opts)
	if err != nil {
		g.log.Error("document parse failed",
			"id", doc.ID, "kind", doc.Kind, "bid_period", doc.BidPeriod, "error", err)
		metrics.DocumentsProcessed.WithLabelValues(string(doc.Kind), "failed").Inc()
		if _, aerr := g.audit.RecordError(doc.BidPeriod, string(doc.Kind), "", err.Error(), ""); aerr != nil {
			g.log.Error("record parse failure", "error", aerr)
		}
		return
	}

	metrics.ParseDuration.WithLabelValues(string(doc.Kind)).Observe(time.Since(started).Seconds())
	metrics.DocumentsProcessed.WithLabelValues(string(doc.Kind), "ok").Inc()

	batchID := uuid.New()

	switch {
	case res.Pairing != nil:
		g.persistPairing(ctx, doc, batchID, res.Pairing)
	case res.BidLines != nil:
		g.persistBidLines(ctx, doc, batchID, res.BidLines)
	}
}

func (g *ingester) persistPairing(ctx context.Context, doc *bidpack.Document, batchID uuid.UUID, pr *engine.PairingResult) {
	g.recordIssues(doc, "pairing", pr.Skipped, pr.Warnings)
	metrics.BlocksParsed.WithLabelValues("pairing", "ok").Add(float64(len(pr.Trips)))
	metrics.BlocksParsed.WithLabelValues("pairing", "skipped").Add(float64(len(pr.Skipped)))

	if err := g.db.PG.InsertTrips(ctx, doc.BidPeriod, batchID, pr.Trips); err != nil {
		g.log.Error("insert trips", "bid_period", doc.BidPeriod, "error", err)
		metrics.StorageErrors.WithLabelValues("postgres").Inc()
	}
	if err := g.db.PG.UpsertEDWSummary(ctx, doc.BidPeriod, batchID, pr.Summary); err != nil {
		g.log.Error("upsert edw summary", "bid_period", doc.BidPeriod, "error", err)
		metrics.StorageErrors.WithLabelValues("postgres").Inc()
	}
	if err := g.db.CH.InsertTripRows(ctx, doc.BidPeriod, pr.Trips); err != nil {
		g.log.Error("insert trip rows", "bid_period", doc.BidPeriod, "error", err)
		metrics.StorageErrors.WithLabelValues("clickhouse").Inc()
	}
	if err := g.cat.PutTrips(doc.BidPeriod, pr.Trips); err != nil {
		g.log.Error("catalog trips", "bid_period", doc.BidPeriod, "error", err)
	}

	g.log.Info("pairing document ingested",
		"id", doc.ID, "bid_period", doc.BidPeriod,
		"trips", len(pr.Trips), "skipped", len(pr.Skipped),
		"edw_trips", pr.Summary.EDWTrips)
}

func (g *ingester) persistBidLines(ctx context.Context, doc *bidpack.Document, batchID uuid.UUID, br *engine.BidLineResult) {
	g.recordIssues(doc, "bidline", br.Skipped, br.Warnings)
	metrics.BlocksParsed.WithLabelValues("bidline", "ok").Add(float64(len(br.Lines)))
	metrics.BlocksParsed.WithLabelValues("bidline", "skipped").Add(float64(len(br.Skipped)))
	metrics.LowConfidenceLines.Add(float64(br.Summary.LowConfidence))

	if err := g.db.PG.InsertBidLines(ctx, doc.BidPeriod, batchID, br.Lines); err != nil {
		g.log.Error("insert bid lines", "bid_period", doc.BidPeriod, "error", err)
		metrics.StorageErrors.WithLabelValues("postgres").Inc()
	}
	if err := g.db.PG.UpsertLineSummary(ctx, doc.BidPeriod, batchID, br.Summary); err != nil {
		g.log.Error("upsert line summary", "bid_period", doc.BidPeriod, "error", err)
		metrics.StorageErrors.WithLabelValues("postgres").Inc()
	}
	if err := g.db.CH.InsertPayPeriodRows(ctx, doc.BidPeriod, br.Lines); err != nil {
		g.log.Error("insert pay period rows", "bid_period", doc.BidPeriod, "error", err)
		metrics.StorageErrors.WithLabelValues("clickhouse").Inc()
	}

	// Cross-link calendar trip references against the catalog.
	linked := 0
	for _, line := range br.Lines {
		linked += len(g.cat.LinkLine(doc.BidPeriod, line))
	}

	g.log.Info("bid line document ingested",
		"id", doc.ID, "bid_period", doc.BidPeriod,
		"lines", len(br.Lines), "skipped", len(br.Skipped),
		"linked_days", linked, "low_confidence", br.Summary.LowConfidence)
}

func (g *ingester) recordIssues(doc *bidpack.Document, kind string, skipped []*bidpack.BlockParseError, warnings []bidpack.FieldCoercionWarning) {
	for _, s := range skipped {
		if _, err := g.audit.RecordError(doc.BidPeriod, kind, s.Key, s.Reason, s.Excerpt); err != nil {
			g.log.Error("record block error", "error", err)
		}
	}
	for _, w := range warnings {
		metrics.CoercionWarnings.WithLabelValues(kind).Inc()
		if _, err := g.audit.RecordWarning(doc.BidPeriod, kind, w.BlockKey, w.Field+": "+w.Raw); err != nil {
			g.log.Error("record coercion warning", "error", err)
		}
	}
}

func decodeDocument(b []byte) *bidpack.Document {
	// Feed wrapper first, then flat.
	var w bidpack.FeedWrapper
	if err := json.Unmarshal(b, &w); err == nil && w.Document != nil {
		if doc := w.ToDocument(); doc != nil && doc.Kind != "" && len(doc.Pages) > 0 {
			return doc
		}
	}

	var d bidpack.Document
	if err := json.Unmarshal(b, &d); err == nil && d.Kind != "" && len(d.Pages) > 0 {
		return &d
	}

	return nil
}
