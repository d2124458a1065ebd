package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// queryTimeout bounds every single statement
const queryTimeout = 30 * time.Second

// ErrNotFound is returned by stores when a row does not exist
var ErrNotFound = errors.New("record not found")

// Database wraps sql.DB with additional functionality
type Database struct {
	*sql.DB
	logger *Logger
}

// NewDatabase creates a new database wrapper
func NewDatabase(db *sql.DB, logger *Logger) *Database {
	return &Database{
		DB:     db,
		logger: logger,
	}
}

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenSQLite opens a SQLite database at path with foreign keys enabled.
// ":memory:" databases are pinned to one connection so every statement sees the same schema.
func OpenSQLite(path string, logger *Logger) (*Database, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	wrapped := NewDatabase(db, logger)
	if err := wrapped.PingWithTimeout(5 * time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return wrapped, nil
}

// sqliteDSN appends the connection pragmas whether or not path already has a query
func sqliteDSN(path string) string {
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqlitePragmas
}

// Transaction executes a function within a database transaction
func (db *Database) Transaction(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}

// PingWithTimeout pings the database with a timeout
func (db *Database) PingWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return db.PingContext(ctx)
}

// QueryWithTimeout executes a query with a timeout.
// The context stays alive until the rows are closed.
func (db *Database) QueryWithTimeout(ctx context.Context, query string, args ...interface{}) (*sql.Rows, context.CancelFunc, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)

	rows, err := db.QueryContext(queryCtx, query, args...)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return rows, cancel, nil
}

// QueryRowWithTimeout executes a single-row query and scans it with a timeout
func (db *Database) QueryRowWithTimeout(ctx context.Context, query string, args []interface{}, dest ...interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := db.QueryRowContext(queryCtx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ExecWithTimeout executes a command with a timeout
func (db *Database) ExecWithTimeout(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return db.ExecContext(queryCtx, query, args...)
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Close closes the database connection
func (db *Database) Close() error {
	db.logger.Info("Closing database connection")
	return db.DB.Close()
}

// LogStats logs database statistics
func (db *Database) LogStats() {
	stats := db.Stats()
	db.logger.Info("Database stats",
		"max_open_connections", stats.MaxOpenConnections,
		"open_connections", stats.OpenConnections,
		"in_use", stats.InUse,
		"idle", stats.Idle,
		"wait_count", stats.WaitCount,
		"wait_duration", stats.WaitDuration,
	)
}
