package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tevino/abool"
	_ "modernc.org/sqlite"

	"github.com/roach88/tabula/internal/querysql"
)

// Supported driver names.
const (
	DriverCgo    = "sqlite3"
	DriverPureGo = "sqlite"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Row is one result row keyed by column name.
type Row map[string]any

// Mode tags a connection handle with the access it was established for.
type Mode string

const (
	ModeRead  Mode = "r"
	ModeWrite Mode = "w"
)

// Conn is the connection capability the persistence engine consumes.
type Conn interface {
	// Query runs a statement and returns all rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)

	// Exec runs a statement; the result reports affected rows and the
	// last generated id.
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// IsExclusiveReadLocking reports whether reads should lock rows for update.
	IsExclusiveReadLocking() bool

	// IsSharedReadLocking reports whether reads should take shared locks.
	IsSharedReadLocking() bool

	// Dialect returns the SQL dialect of the backend.
	Dialect() querysql.Dialect
}

// LockMode maps the connection's read-lock flags to a lock clause mode.
func LockMode(c Conn) querysql.LockMode {
	switch {
	case c.IsExclusiveReadLocking():
		return querysql.LockExclusive
	case c.IsSharedReadLocking():
		return querysql.LockShared
	default:
		return querysql.LockNone
	}
}

// Store is a SQLite database implementing Conn.
type Store struct {
	db     *sql.DB
	driver string
	closed *abool.AtomicBool

	lockMu    sync.Mutex
	exclusive int
	shared    int
}

// Option configures Open.
type Option func(*options)

type options struct {
	driver string
}

// WithDriver selects the database/sql driver: DriverCgo or DriverPureGo.
func WithDriver(name string) Option {
	return func(o *options) {
		if name != "" {
			o.driver = name
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	o := options{driver: DriverCgo}
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver != DriverCgo && o.driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported driver %q", o.driver)
	}

	// Open database (creates file if doesn't exist)
	db, err := sql.Open(o.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// This also keeps :memory: databases on a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db, driver: o.driver, closed: abool.New()}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if s.closed != nil && !s.closed.SetToIf(false, true) {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string {
	return s.driver
}

// Dialect implements Conn.
func (s *Store) Dialect() querysql.Dialect {
	return querysql.SQLite
}

func (s *Store) usable() error {
	if s.db == nil || (s.closed != nil && s.closed.IsSet()) {
		return ErrClosed
	}
	return nil
}

// Query implements Conn. All rows are read before returning; []byte values
// are copied so they stay valid after the rows are closed.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Exec implements Conn.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.usable(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec: %w", err)
	}
	return res, nil
}

func scanRow(rows *sql.Rows, columns []string) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	row := make(Row, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			values[i] = append([]byte(nil), b...)
		}
		row[col] = values[i]
	}
	return row, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
