// Package catalog keeps a fully materialised trip catalog per bid
// period so bid-line calendars can be linked back to the trips they
// reference. Linkage needs every trip of the period parsed first, which
// is why a document pass runs sequentially end to end.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"bidpack_parser/internal/bidline"
	"bidpack_parser/internal/pairing"
)

// Catalog holds trips keyed by bid period and trip id, backed by a
// local SQLite file so linkage survives restarts.
type Catalog struct {
	db *sql.DB
	mu sync.RWMutex

	// In-memory cache for fast linkage lookups.
	trips map[string]map[int]*pairing.Trip

	onTripNew func(bidPeriod string, t *pairing.Trip)
}

const schema = `
CREATE TABLE IF NOT EXISTS catalog_trips (
	bid_period TEXT NOT NULL,
	trip_id INTEGER NOT NULL,
	detail TEXT NOT NULL,
	updated_at TEXT DEFAULT (datetime('now')),
	PRIMARY KEY (bid_period, trip_id)
);
`

// Open opens the catalog at the given path. An empty path uses an
// in-memory database.
func Open(dbPath string) (*Catalog, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Catalog{
		db:    db,
		trips: make(map[string]map[int]*pairing.Trip),
	}

	if err := c.load(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// OnTripNew sets a callback invoked when a trip id is seen for the
// first time in a bid period.
func (c *Catalog) OnTripNew(fn func(bidPeriod string, t *pairing.Trip)) {
	c.onTripNew = fn
}

// load restores the persisted catalog into memory.
func (c *Catalog) load() error {
	rows, err := c.db.Query(`SELECT bid_period, trip_id, detail FROM catalog_trips`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var period string
		var id int
		var detail string
		if err := rows.Scan(&period, &id, &detail); err != nil {
			return err
		}
		var trip pairing.Trip
		if err := json.Unmarshal([]byte(detail), &trip); err != nil {
			// A corrupt row should not take the whole catalog down.
			continue
		}
		if c.trips[period] == nil {
			c.trips[period] = make(map[int]*pairing.Trip)
		}
		c.trips[period][id] = &trip
	}
	return rows.Err()
}

// PutTrips stores one parse pass's trips for a bid period, replacing
// previous entries for the same trip ids.
func (c *Catalog) PutTrips(bidPeriod string, trips []*pairing.Trip) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO catalog_trips (bid_period, trip_id, detail, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (bid_period, trip_id) DO UPDATE SET
			detail = excluded.detail,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if c.trips[bidPeriod] == nil {
		c.trips[bidPeriod] = make(map[int]*pairing.Trip)
	}

	for _, t := range trips {
		detail, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal trip %d: %w", t.TripID, err)
		}
		if _, err := stmt.Exec(bidPeriod, t.TripID, string(detail)); err != nil {
			return fmt.Errorf("store trip %d: %w", t.TripID, err)
		}

		_, known := c.trips[bidPeriod][t.TripID]
		c.trips[bidPeriod][t.TripID] = t
		if !known && c.onTripNew != nil {
			c.onTripNew(bidPeriod, t)
		}
	}

	return tx.Commit()
}

// Get returns one trip from the catalog.
func (c *Catalog) Get(bidPeriod string, tripID int) (*pairing.Trip, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trips[bidPeriod][tripID]
	return t, ok
}

// Size returns how many trips the catalog holds for a bid period.
func (c *Catalog) Size(bidPeriod string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.trips[bidPeriod])
}

// LinkedDay joins one calendar cell to its catalog trip.
type LinkedDay struct {
	DayIndex int           `json:"day_index"`
	TripID   int           `json:"trip_id"`
	Trip     *pairing.Trip `json:"trip,omitempty"`
	Found    bool          `json:"found"`
}

// LinkLine resolves a bid line's calendar trip references against the
// catalog. Cells without a trip assignment are skipped; unknown trip
// ids come back with Found false for the diagnostics view.
func (c *Catalog) LinkLine(bidPeriod string, line *bidline.BidLine) []LinkedDay {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []LinkedDay
	for _, d := range line.Calendar {
		if d.Status != bidline.DayTrip || d.TripID == 0 {
			continue
		}
		t, ok := c.trips[bidPeriod][d.TripID]
		out = append(out, LinkedDay{
			DayIndex: d.DayIndex,
			TripID:   d.TripID,
			Trip:     t,
			Found:    ok,
		})
	}
	return out
}
