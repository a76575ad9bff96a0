// Package wcadb executes read-only queries against the imported WCA
// results database. Generated SQL is treated as untrusted input: every
// statement passes ValidateReadOnly before it reaches the driver.
package wcadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// ErrUnsafeQuery rejects statements that are not a single read-only
// SELECT.
var ErrUnsafeQuery = errors.New("only a single read-only SELECT statement is allowed")

// ErrPoolTimeout reports that no pooled connection became available
// within the acquire timeout.
var ErrPoolTimeout = errors.New("timed out waiting for a database connection")

// QueryError wraps a database-level failure. The driver detail is kept
// for logging and must not be shown to end users.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ResultSet holds executed query output. Columns preserve driver order.
type ResultSet struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
}

// Config holds pool construction parameters.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
	QueryTimeout    time.Duration
}

// Store owns the shared connection pool.
type Store struct {
	db             *sql.DB
	acquireTimeout time.Duration
	queryTimeout   time.Duration
}

// Open builds the pool and verifies connectivity. database/sql bounds
// the pool at MaxOpenConns and queues waiters in FIFO order.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	if cfg.Driver == "" {
		cfg.Driver = "mysql"
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{
		db:             db,
		acquireTimeout: orDefault(cfg.AcquireTimeout, 5*time.Second),
		queryTimeout:   orDefault(cfg.QueryTimeout, 10*time.Second),
	}, nil
}

// NewStore wraps an existing pool, for tests and the importer.
func NewStore(db *sql.DB, acquireTimeout, queryTimeout time.Duration) *Store {
	return &Store{
		db:             db,
		acquireTimeout: orDefault(acquireTimeout, 5*time.Second),
		queryTimeout:   orDefault(queryTimeout, 10*time.Second),
	}
}

// Close tears down the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var (
	bannedKeywords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant)\b`)
	limitKeyword   = regexp.MustCompile(`(?i)\blimit\b`)
)

// ValidateReadOnly rejects anything but a single SELECT statement.
// Banned data-modification and DDL keywords are matched as whole words
// anywhere in the text, case-insensitively.
func ValidateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("%w: empty statement", ErrUnsafeQuery)
	}
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return fmt.Errorf("%w: statement must start with SELECT", ErrUnsafeQuery)
	}
	if strings.Contains(strings.TrimRight(trimmed, "; \t\n"), ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}
	if kw := bannedKeywords.FindString(trimmed); kw != "" {
		return fmt.Errorf("%w: contains %q", ErrUnsafeQuery, strings.ToUpper(kw))
	}
	return nil
}

// EnsureLimit appends a LIMIT clause when the statement has none, so an
// unbounded query cannot drag the whole table through the pool.
func EnsureLimit(query string, maxRows int) string {
	trimmed := strings.TrimRight(strings.TrimSpace(query), "; \t\n")
	if limitKeyword.MatchString(trimmed) {
		return trimmed
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, maxRows)
}

// Execute validates the statement, acquires a dedicated connection from
// the pool and runs the query, returning at most maxRows rows. The
// connection is released on every path.
func (s *Store) Execute(ctx context.Context, query string, maxRows int) (ResultSet, error) {
	if err := ValidateReadOnly(query); err != nil {
		return ResultSet{}, err
	}
	if maxRows <= 0 {
		maxRows = 100
	}
	query = EnsureLimit(query, maxRows)

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancelAcquire()

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if acquireCtx.Err() != nil && ctx.Err() == nil {
			return ResultSet{}, ErrPoolTimeout
		}
		return ResultSet{}, &QueryError{Err: err}
	}
	defer conn.Close()

	queryCtx, cancelQuery := context.WithTimeout(ctx, s.queryTimeout)
	defer cancelQuery()

	rows, err := conn.QueryContext(queryCtx, query)
	if err != nil {
		return ResultSet{}, &QueryError{Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, &QueryError{Err: err}
	}

	result := ResultSet{Columns: columns}
	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}
		values, err := scanRow(rows, len(columns))
		if err != nil {
			return ResultSet{}, &QueryError{Err: err}
		}
		result.Rows = append(result.Rows, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, &QueryError{Err: err}
	}

	return result, nil
}

func scanRow(rows *sql.Rows, numCols int) ([]any, error) {
	values := make([]any, numCols)
	ptrs := make([]any, numCols)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

// normalizeRow converts driver byte slices and timestamps into plain
// strings so downstream formatting sees scalar values only.
func normalizeRow(values []any) []any {
	row := make([]any, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			row[i] = nil
		case []byte:
			row[i] = string(val)
		case time.Time:
			row[i] = val.Format("2006-01-02 15:04:05")
		default:
			row[i] = val
		}
	}
	return row
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// DSN assembles a driver DSN from discrete settings. An explicit DSN
// wins over host/port fields.
func DSN(driver, explicit, host string, port int, user, password, name string) string {
	if explicit != "" {
		return explicit
	}
	switch driver {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, password, host, port, name)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", user, password, host, port, name)
	}
}
