// Package warehouse reads tabular extracts from the learning-analytics data warehouse.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/pkg/utils"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Config holds the connection settings; it is passed explicitly to Open.
type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// DSN renders a lib/pq connection string.
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.Database, sslMode)
	if c.ConnectTimeout > 0 {
		dsn += fmt.Sprintf(" connect_timeout=%d", int(c.ConnectTimeout.Seconds()))
	}
	return dsn
}

// Enabled reports whether enough is configured to attempt a connection.
func (c Config) Enabled() bool {
	return c.Host != "" && c.Database != ""
}

// DataFetchError means the upstream source was unreachable or rejected the query.
// It is fatal to a run.
type DataFetchError struct {
	Source string
	Query  string
	Err    error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the underlying driver error.
func (e *DataFetchError) Cause() error { return e.Err }

// NewDataFetchError wraps err as a DataFetchError.
func NewDataFetchError(source, query string, err error) error {
	return &DataFetchError{Source: source, Query: query, Err: err}
}

// IsDataFetchError reports whether err is, or wraps, a DataFetchError.
func IsDataFetchError(err error) bool {
	for err != nil {
		if _, ok := err.(*DataFetchError); ok {
			return true
		}
		next := errors.Unwrap(err)
		if next == nil {
			if c := errors.Cause(err); c != err {
				next = c
			}
		}
		err = next
	}
	return false
}

// Client runs read-only queries against the warehouse.
type Client struct {
	db *sql.DB
}

// New wraps an open database handle. Any database/sql driver works.
func New(db *sql.DB) *Client {
	return &Client{db: db}
}

// Open connects to the warehouse with lib/pq and checks the connection.
func Open(ctx context.Context, cfg Config) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, NewDataFetchError("warehouse", "", errors.Wrap(err, "open"))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewDataFetchError("warehouse", "", errors.Wrapf(err, "ping %s/%s", cfg.Host, cfg.Database))
	}
	log.Printf("🔌 Connected to warehouse %s/%s", cfg.Host, cfg.Database)
	return &Client{db: db}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// Fetch runs query and returns its rows as a table named name.
// Column order follows the result set; NULL becomes a missing value.
func (c *Client) Fetch(ctx context.Context, name, query string) (*model.Table, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewDataFetchError(name, query, errors.Wrap(err, "query"))
	}
	defer rows.Close()

	t, err := scanTable(name, rows)
	if err != nil {
		return nil, NewDataFetchError(name, query, err)
	}
	log.Printf("📥 Fetched %d rows for %s in %v", t.Len(), name, time.Since(start))
	return t, nil
}

func scanTable(name string, rows *sql.Rows) (*model.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "columns")
	}
	t := model.NewTable(name, cols...)

	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		rec := make(model.GenericRecord, len(cols))
		for i, col := range cols {
			rec[col] = normalize(values[i])
		}
		t.Rows = append(t.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return t, nil
}

// normalize turns driver values into the types records carry.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		// numeric/decimal columns arrive as text
		return utils.ParseValue(string(val))
	case int64:
		return int(val)
	default:
		return val
	}
}
