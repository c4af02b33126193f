package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/pageflowhq/pageflow/pkg/events"
	"github.com/pageflowhq/pageflow/pkg/observability"
)

// DefaultEventsTable is the warehouse table queried for page views.
const DefaultEventsTable = "page_events"

// ClickHouseConfig holds connection settings for the analytics warehouse.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// ClickHouseSource fetches page-view events from a ClickHouse table.
// Events are pre-aggregated in the warehouse: identical views of one page in
// one session at one instant come back as a single row with a count.
type ClickHouseSource struct {
	conn  driver.Conn
	table string
}

// NewClickHouseSource connects to ClickHouse and verifies the connection.
func NewClickHouseSource(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseSource, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("clickhouse address required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultEventsTable
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseSource{conn: conn, table: cfg.Table}, nil
}

// Fetch queries the window and returns one RawEvent per distinct
// (session, page, type, timestamp) row with its occurrence count.
func (s *ClickHouseSource) Fetch(ctx context.Context, w Window) ([]events.RawEvent, error) {
	observability.Source().OnFetchStart(ctx, "clickhouse")
	start := time.Now()

	out, err := s.fetch(ctx, w)
	if err != nil {
		observability.Source().OnFetchError(ctx, "clickhouse", err)
		return nil, err
	}
	observability.Source().OnFetchComplete(ctx, "clickhouse", len(out), time.Since(start))
	return out, nil
}

func (s *ClickHouseSource) fetch(ctx context.Context, w Window) ([]events.RawEvent, error) {
	query := fmt.Sprintf(`
		SELECT
			session_id,
			page_path,
			event_type,
			toUnixTimestamp64Milli(timestamp) AS ts,
			count() AS cnt
		FROM %s
		WHERE event_type = 'page_view'
		  AND (? = 0 OR timestamp >= fromUnixTimestamp64Milli(?))
		  AND (? = 0 OR timestamp <= fromUnixTimestamp64Milli(?))
		GROUP BY session_id, page_path, event_type, timestamp
	`, s.table)

	from := int64(0)
	if !w.From.IsZero() {
		from = w.From.UnixMilli()
	}
	to := int64(0)
	if !w.To.IsZero() {
		to = w.To.UnixMilli()
	}

	rows, err := s.conn.Query(ctx, query, from, from, to, to)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []events.RawEvent
	for rows.Next() {
		var (
			ev  events.RawEvent
			ts  int64
			cnt uint64
		)
		if err := rows.Scan(&ev.SessionID, &ev.Path, &ev.EventType, &ts, &cnt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		ev.Timestamp = ts
		ev.Count = int(cnt)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return out, nil
}

// Close closes the warehouse connection.
func (s *ClickHouseSource) Close() error {
	return s.conn.Close()
}

var _ Source = (*ClickHouseSource)(nil)
