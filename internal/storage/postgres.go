// Package storage persists parsed trips, bid lines, and bid-period
// summaries for the reporting and diagnostics consumers.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"bidpack_parser/internal/aggregate"
	"bidpack_parser/internal/bidline"
	"bidpack_parser/internal/pairing"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB wraps a PostgreSQL connection pool.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() {
	d.pool.Close()
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS trips (
		bid_period      TEXT NOT NULL,
		trip_id         INTEGER NOT NULL,
		batch_id        UUID NOT NULL,
		frequency       TEXT,
		effective       TEXT,
		duty_day_count  INTEGER NOT NULL,
		credit_minutes  INTEGER NOT NULL,
		tafb_minutes    INTEGER NOT NULL,
		duty_minutes    INTEGER NOT NULL,
		premium_minutes INTEGER NOT NULL,
		per_diem        NUMERIC(10,2) NOT NULL,
		landings        INTEGER NOT NULL,
		domicile        TEXT,
		crew_complement TEXT,
		is_edw          BOOLEAN NOT NULL,
		edw_reason      TEXT,
		detail          JSONB NOT NULL,
		inserted_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (bid_period, trip_id)
	);

	CREATE INDEX IF NOT EXISTS idx_trips_edw ON trips(bid_period, is_edw);

	CREATE TABLE IF NOT EXISTS bid_lines (
		bid_period   TEXT NOT NULL,
		line_number  INTEGER NOT NULL,
		batch_id     UUID NOT NULL,
		domicile     TEXT,
		comment_text TEXT,
		is_split     BOOLEAN NOT NULL,
		calendar     JSONB NOT NULL,
		inserted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (bid_period, line_number)
	);

	CREATE TABLE IF NOT EXISTS pay_periods (
		bid_period      TEXT NOT NULL,
		line_number     INTEGER NOT NULL,
		period          SMALLINT NOT NULL,
		credit_time     NUMERIC(8,2),
		block_time      NUMERIC(8,2),
		days_off        INTEGER,
		duty_days       INTEGER,
		line_type       TEXT NOT NULL,
		reserve_subtype TEXT,
		low_confidence  BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (bid_period, line_number, period)
	);

	CREATE INDEX IF NOT EXISTS idx_pay_periods_type ON pay_periods(bid_period, line_type);

	CREATE TABLE IF NOT EXISTS bid_period_summaries (
		bid_period  TEXT NOT NULL,
		kind        TEXT NOT NULL, -- 'edw' or 'lines'
		summary     JSONB NOT NULL,
		batch_id    UUID NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (bid_period, kind)
	);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// InsertTrips batch-inserts one bid period's trips. Re-inserting a
// (bid_period, trip_id) pair replaces the previous row, so re-running a
// parse pass is idempotent.
func (d *PostgresDB) InsertTrips(ctx context.Context, bidPeriod string, batchID uuid.UUID, trips []*pairing.Trip) error {
	batch := &pgx.Batch{}
	for _, t := range trips {
		detail, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal trip %d: %w", t.TripID, err)
		}
		batch.Queue(`
			INSERT INTO trips (
				bid_period, trip_id, batch_id, frequency, effective,
				duty_day_count, credit_minutes, tafb_minutes, duty_minutes,
				premium_minutes, per_diem, landings, domicile,
				crew_complement, is_edw, edw_reason, detail
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			ON CONFLICT (bid_period, trip_id) DO UPDATE SET
				batch_id = EXCLUDED.batch_id,
				frequency = EXCLUDED.frequency,
				effective = EXCLUDED.effective,
				duty_day_count = EXCLUDED.duty_day_count,
				credit_minutes = EXCLUDED.credit_minutes,
				tafb_minutes = EXCLUDED.tafb_minutes,
				duty_minutes = EXCLUDED.duty_minutes,
				premium_minutes = EXCLUDED.premium_minutes,
				per_diem = EXCLUDED.per_diem,
				landings = EXCLUDED.landings,
				domicile = EXCLUDED.domicile,
				crew_complement = EXCLUDED.crew_complement,
				is_edw = EXCLUDED.is_edw,
				edw_reason = EXCLUDED.edw_reason,
				detail = EXCLUDED.detail,
				inserted_at = NOW()`,
			bidPeriod, t.TripID, batchID, t.Frequency, t.Effective,
			len(t.DutyDays), t.Summary.CreditMinutes, t.Summary.TAFBMinutes,
			t.Summary.DutyMinutes, t.Summary.PremiumMinutes, t.Summary.PerDiem,
			t.Summary.Landings, t.Summary.Domicile,
			formatCrew(t.Summary.CrewComplement), t.IsEDW,
			joinInts(t.EDWReason), detail,
		)
	}
	return d.sendBatch(ctx, batch)
}

// InsertBidLines batch-inserts one bid period's lines and their
// pay-period records.
func (d *PostgresDB) InsertBidLines(ctx context.Context, bidPeriod string, batchID uuid.UUID, lines []*bidline.BidLine) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		calendar, err := json.Marshal(l.Calendar)
		if err != nil {
			return fmt.Errorf("marshal calendar for line %d: %w", l.LineNumber, err)
		}
		batch.Queue(`
			INSERT INTO bid_lines (
				bid_period, line_number, batch_id, domicile,
				comment_text, is_split, calendar
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (bid_period, line_number) DO UPDATE SET
				batch_id = EXCLUDED.batch_id,
				domicile = EXCLUDED.domicile,
				comment_text = EXCLUDED.comment_text,
				is_split = EXCLUDED.is_split,
				calendar = EXCLUDED.calendar,
				inserted_at = NOW()`,
			bidPeriod, l.LineNumber, batchID, l.Domicile,
			l.CommentText, l.IsSplit(), calendar,
		)

		for _, pp := range l.PayPeriods {
			batch.Queue(`
				INSERT INTO pay_periods (
					bid_period, line_number, period, credit_time, block_time,
					days_off, duty_days, line_type, reserve_subtype, low_confidence
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				ON CONFLICT (bid_period, line_number, period) DO UPDATE SET
					credit_time = EXCLUDED.credit_time,
					block_time = EXCLUDED.block_time,
					days_off = EXCLUDED.days_off,
					duty_days = EXCLUDED.duty_days,
					line_type = EXCLUDED.line_type,
					reserve_subtype = EXCLUDED.reserve_subtype,
					low_confidence = EXCLUDED.low_confidence`,
				bidPeriod, l.LineNumber, pp.Period,
				nullDecimal(pp.CreditTime), nullDecimal(pp.BlockTime),
				nullInt(pp.DaysOff), nullInt(pp.DutyDays),
				string(pp.LineType), string(pp.ReserveSubtype), pp.LowConfidence,
			)
		}
	}
	return d.sendBatch(ctx, batch)
}

// UpsertEDWSummary stores the EDW bid-period summary.
func (d *PostgresDB) UpsertEDWSummary(ctx context.Context, bidPeriod string, batchID uuid.UUID, s aggregate.EDWSummary) error {
	return d.upsertSummary(ctx, bidPeriod, "edw", batchID, s)
}

// UpsertLineSummary stores the line-stats bid-period summary.
func (d *PostgresDB) UpsertLineSummary(ctx context.Context, bidPeriod string, batchID uuid.UUID, s aggregate.LineStatsSummary) error {
	return d.upsertSummary(ctx, bidPeriod, "lines", batchID, s)
}

func (d *PostgresDB) upsertSummary(ctx context.Context, bidPeriod, kind string, batchID uuid.UUID, summary any) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal %s summary: %w", kind, err)
	}
	_, err = d.pool.Exec(ctx, `
		INSERT INTO bid_period_summaries (bid_period, kind, summary, batch_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bid_period, kind) DO UPDATE SET
			summary = EXCLUDED.summary,
			batch_id = EXCLUDED.batch_id,
			updated_at = NOW()`,
		bidPeriod, kind, body, batchID,
	)
	if err != nil {
		return fmt.Errorf("upsert %s summary: %w", kind, err)
	}
	return nil
}

// GetSummary returns the stored summary JSON for one bid period.
func (d *PostgresDB) GetSummary(ctx context.Context, bidPeriod, kind string) ([]byte, error) {
	var body []byte
	err := d.pool.QueryRow(ctx,
		`SELECT summary FROM bid_period_summaries WHERE bid_period = $1 AND kind = $2`,
		bidPeriod, kind,
	).Scan(&body)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ListTripDetails returns the stored trip JSON documents for one bid
// period, ordered by trip id.
func (d *PostgresDB) ListTripDetails(ctx context.Context, bidPeriod string) ([][]byte, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT detail FROM trips WHERE bid_period = $1 ORDER BY trip_id`, bidPeriod)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return nil, err
		}
		out = append(out, detail)
	}
	return out, rows.Err()
}

// PayPeriodRow is one flat pay-period record as stored.
type PayPeriodRow struct {
	LineNumber     int                 `json:"line_number"`
	Period         int                 `json:"period"`
	CreditTime     decimal.NullDecimal `json:"credit_time"`
	BlockTime      decimal.NullDecimal `json:"block_time"`
	DaysOff        *int                `json:"days_off"`
	DutyDays       *int                `json:"duty_days"`
	LineType       string              `json:"line_type"`
	ReserveSubtype string              `json:"reserve_subtype,omitempty"`
	LowConfidence  bool                `json:"low_confidence"`
}

// ListPayPeriods returns all pay-period rows for one bid period.
func (d *PostgresDB) ListPayPeriods(ctx context.Context, bidPeriod string) ([]PayPeriodRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT line_number, period, credit_time, block_time, days_off,
		       duty_days, line_type, COALESCE(reserve_subtype, ''), low_confidence
		FROM pay_periods
		WHERE bid_period = $1
		ORDER BY line_number, period`, bidPeriod)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayPeriodRow
	for rows.Next() {
		var r PayPeriodRow
		if err := rows.Scan(&r.LineNumber, &r.Period, &r.CreditTime, &r.BlockTime,
			&r.DaysOff, &r.DutyDays, &r.LineType, &r.ReserveSubtype, &r.LowConfidence); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *PostgresDB) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	br := d.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch statement %d: %w", i, err)
		}
	}
	return nil
}

func formatCrew(c pairing.CrewNeed) string {
	return fmt.Sprintf("%d/%d/%d", c.Captains, c.FirstOfficers, c.Engineers)
}

func joinInts(ns []int) string {
	if len(ns) == 0 {
		return ""
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ",")
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal
}

func nullInt(v bidline.OptInt) any {
	if !v.Valid {
		return nil
	}
	return v.Value
}
