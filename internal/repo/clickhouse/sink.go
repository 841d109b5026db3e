package clickhouse

import (
	"context"
	"fmt"
	"math"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

// DDL creates the uptime_monitor table. Rows are ordered per site so the
// latest status of a site is a cheap argMax.
const DDL = `
CREATE TABLE IF NOT EXISTS uptime.uptime_monitor (
  timestamp      DateTime64(3, 'UTC'),
  site_id        LowCardinality(String),
  url            String,
  status         UInt8,
  status_label   LowCardinality(String),
  http_code      UInt16,
  ttfb_ms        Float64,
  total_ms       Float64,
  retries        UInt8,
  failure_streak UInt32,
  ssl_valid      Nullable(Bool),
  ssl_expiry     Nullable(DateTime('UTC')),
  error          String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(timestamp)
ORDER BY (site_id, timestamp)
TTL toDateTime(timestamp) + INTERVAL 90 DAY
`

const insertSQL = `INSERT INTO uptime.uptime_monitor (
	timestamp, site_id, url, status, status_label, http_code,
	ttfb_ms, total_ms, retries, failure_streak, ssl_valid, ssl_expiry, error
)`

type Config struct {
	Addrs    []string
	Database string
	Username string
	Password string
}

// batch and batcher are the pieces of driver.Conn the sink needs.
type batch interface {
	Append(v ...any) error
	Send() error
}

type batcher interface {
	PrepareBatch(ctx context.Context, query string) (batch, error)
}

type nativeConn struct{ conn driver.Conn }

func (n nativeConn) PrepareBatch(ctx context.Context, query string) (batch, error) {
	return n.conn.PrepareBatch(ctx, query)
}

// Connect opens a native connection and pings it.
func Connect(ctx context.Context, cfg Config) (driver.Conn, error) {
	conn, err := ch.Open(&ch.Options{
		Addr: cfg.Addrs,
		Auth: ch.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return conn, nil
}

// Sink appends one row per check result.
type Sink struct {
	conn batcher
}

func NewSink(conn driver.Conn) *Sink {
	return &Sink{conn: nativeConn{conn: conn}}
}

func (s *Sink) Write(ctx context.Context, r domain.CheckResult) error {
	b, err := s.conn.PrepareBatch(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	if err := b.Append(row(r)...); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if err := b.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func row(r domain.CheckResult) []any {
	var expiry *time.Time
	if r.SSLExpiry != nil {
		t := r.SSLExpiry.UTC()
		expiry = &t
	}
	return []any{
		r.Timestamp.UTC(),
		string(r.SiteID),
		r.URL,
		uint8(r.Status),
		r.Status.String(),
		uint16(clamp(r.HTTPCode, 0, 65535)),
		r.TTFBMs,
		r.TotalMs,
		uint8(clamp(r.Retries, 0, 255)),
		uint32(clamp(r.FailureStreak, 0, math.MaxInt32)),
		r.SSLValid,
		expiry,
		r.Error,
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

var _ repo.ResultSink = (*Sink)(nil)
