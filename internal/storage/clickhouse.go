// ClickHouse analytics sink: denormalised per-trip and per-pay-period
// rows for fatigue/quality-of-life charting.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"bidpack_parser/internal/bidline"
	"bidpack_parser/internal/pairing"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB wraps a ClickHouse connection for analytics storage.
type ClickHouseDB struct {
	conn driver.Conn
}

// Conn returns the underlying ClickHouse connection for direct queries.
func (d *ClickHouseDB) Conn() driver.Conn {
	return d.conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trip_rows (
			bid_period      LowCardinality(String),
			trip_id         UInt32,
			domicile        LowCardinality(String),
			duty_day_count  UInt8,
			credit_minutes  UInt32,
			tafb_minutes    UInt32,
			duty_minutes    UInt32,
			premium_minutes UInt32,
			landings        UInt16,
			is_edw          UInt8,
			edw_days        UInt8,
			created_at      DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (bid_period, trip_id)
		SETTINGS index_granularity = 8192`,

		`CREATE TABLE IF NOT EXISTS pay_period_rows (
			bid_period      LowCardinality(String),
			line_number     UInt32,
			domicile        LowCardinality(String),
			period          UInt8,
			credit_time     Nullable(Decimal(8, 2)),
			block_time      Nullable(Decimal(8, 2)),
			days_off        Nullable(UInt8),
			duty_days       Nullable(UInt8),
			line_type       LowCardinality(String),
			reserve_subtype LowCardinality(String),
			low_confidence  UInt8,
			created_at      DateTime64(3) DEFAULT now64(3)
		)
		ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (bid_period, line_number, period)`,
	}

	for _, q := range queries {
		if err := d.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// InsertTripRows writes analytics rows for one bid period's trips.
func (d *ClickHouseDB) InsertTripRows(ctx context.Context, bidPeriod string, trips []*pairing.Trip) error {
	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO trip_rows (
			bid_period, trip_id, domicile, duty_day_count, credit_minutes,
			tafb_minutes, duty_minutes, premium_minutes, landings, is_edw, edw_days
		)`)
	if err != nil {
		return fmt.Errorf("prepare trip batch: %w", err)
	}

	for _, t := range trips {
		isEDW := uint8(0)
		if t.IsEDW {
			isEDW = 1
		}
		if err := batch.Append(
			bidPeriod,
			uint32(t.TripID),
			t.Summary.Domicile,
			uint8(len(t.DutyDays)),
			uint32(t.Summary.CreditMinutes),
			uint32(t.Summary.TAFBMinutes),
			uint32(t.Summary.DutyMinutes),
			uint32(t.Summary.PremiumMinutes),
			uint16(t.Summary.Landings),
			isEDW,
			uint8(len(t.EDWReason)),
		); err != nil {
			return fmt.Errorf("append trip %d: %w", t.TripID, err)
		}
	}

	return batch.Send()
}

// InsertPayPeriodRows writes analytics rows for one bid period's lines.
func (d *ClickHouseDB) InsertPayPeriodRows(ctx context.Context, bidPeriod string, lines []*bidline.BidLine) error {
	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO pay_period_rows (
			bid_period, line_number, domicile, period, credit_time,
			block_time, days_off, duty_days, line_type, reserve_subtype,
			low_confidence
		)`)
	if err != nil {
		return fmt.Errorf("prepare pay-period batch: %w", err)
	}

	for _, l := range lines {
		for _, pp := range l.PayPeriods {
			lowConf := uint8(0)
			if pp.LowConfidence {
				lowConf = 1
			}
			if err := batch.Append(
				bidPeriod,
				uint32(l.LineNumber),
				l.Domicile,
				uint8(pp.Period),
				chDecimal(pp.CreditTime),
				chDecimal(pp.BlockTime),
				chUint8(pp.DaysOff),
				chUint8(pp.DutyDays),
				string(pp.LineType),
				string(pp.ReserveSubtype),
				lowConf,
			); err != nil {
				return fmt.Errorf("append line %d pp%d: %w", l.LineNumber, pp.Period, err)
			}
		}
	}

	return batch.Send()
}

func chDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func chUint8(v bidline.OptInt) *uint8 {
	if !v.Valid {
		return nil
	}
	n := uint8(v.Value)
	return &n
}
