// SQLite audit store: skipped blocks and coercion warnings with their
// raw-text excerpts, kept locally so parse failures can be reviewed and
// annotated without a database server.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ParseIssue is one stored audit record.
type ParseIssue struct {
	ID         int64
	BidPeriod  string
	Kind       string // "pairing" or "bidline"
	Severity   string // "error" or "warning"
	BlockKey   string
	Reason     string
	Excerpt    string
	Annotation string
	Resolved   bool
	CreatedAt  time.Time
}

// AuditDB wraps a SQLite database for parse-issue auditing.
type AuditDB struct {
	db *sql.DB
}

// OpenAudit opens or creates the audit database at the given path.
// An empty path uses an in-memory database.
func OpenAudit(path string) (*AuditDB, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := createAuditSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}

	return &AuditDB{db: db}, nil
}

// Close closes the database connection.
func (d *AuditDB) Close() error {
	return d.db.Close()
}

func createAuditSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS parse_issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bid_period TEXT NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		block_key TEXT NOT NULL,
		reason TEXT NOT NULL,
		excerpt TEXT,
		annotation TEXT,
		resolved INTEGER DEFAULT 0,
		created_at TEXT DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_issues_period ON parse_issues(bid_period);
	CREATE INDEX IF NOT EXISTS idx_issues_severity ON parse_issues(severity);
	CREATE INDEX IF NOT EXISTS idx_issues_resolved ON parse_issues(resolved);
	`
	_, err := db.Exec(schema)
	return err
}

// RecordError stores a skipped block.
func (d *AuditDB) RecordError(bidPeriod, kind, blockKey, reason, excerpt string) (int64, error) {
	return d.record(bidPeriod, kind, "error", blockKey, reason, excerpt)
}

// RecordWarning stores a field-coercion warning.
func (d *AuditDB) RecordWarning(bidPeriod, kind, blockKey, reason string) (int64, error) {
	return d.record(bidPeriod, kind, "warning", blockKey, reason, "")
}

func (d *AuditDB) record(bidPeriod, kind, severity, blockKey, reason, excerpt string) (int64, error) {
	res, err := d.db.Exec(`
		INSERT INTO parse_issues (bid_period, kind, severity, block_key, reason, excerpt)
		VALUES (?, ?, ?, ?, ?, ?)`,
		bidPeriod, kind, severity, blockKey, reason, excerpt)
	if err != nil {
		return 0, fmt.Errorf("insert issue: %w", err)
	}
	return res.LastInsertId()
}

// Annotate attaches a reviewer note to an issue.
func (d *AuditDB) Annotate(id int64, note string) error {
	_, err := d.db.Exec(`UPDATE parse_issues SET annotation = ? WHERE id = ?`, note, id)
	return err
}

// Resolve marks an issue as handled.
func (d *AuditDB) Resolve(id int64) error {
	_, err := d.db.Exec(`UPDATE parse_issues SET resolved = 1 WHERE id = ?`, id)
	return err
}

// ListIssues returns issues for one bid period, unresolved first.
func (d *AuditDB) ListIssues(bidPeriod string, limit int) ([]ParseIssue, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.db.Query(`
		SELECT id, bid_period, kind, severity, block_key, reason,
		       COALESCE(excerpt, ''), COALESCE(annotation, ''), resolved, created_at
		FROM parse_issues
		WHERE bid_period = ?
		ORDER BY resolved ASC, id DESC
		LIMIT ?`, bidPeriod, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParseIssue
	for rows.Next() {
		var issue ParseIssue
		var resolved int
		var created string
		if err := rows.Scan(&issue.ID, &issue.BidPeriod, &issue.Kind, &issue.Severity,
			&issue.BlockKey, &issue.Reason, &issue.Excerpt, &issue.Annotation,
			&resolved, &created); err != nil {
			return nil, err
		}
		issue.Resolved = resolved != 0
		issue.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
		out = append(out, issue)
	}
	return out, rows.Err()
}

// CountUnresolved returns how many issues still need review.
func (d *AuditDB) CountUnresolved(bidPeriod string) (int, error) {
	var n int
	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM parse_issues WHERE bid_period = ? AND resolved = 0`,
		bidPeriod).Scan(&n)
	return n, err
}
