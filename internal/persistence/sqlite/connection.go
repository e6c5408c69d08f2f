package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/speeddate-scheduler/internal/persistence"
)

// Config holds SQLite connection settings.
type Config struct {
	// DSN is the database file path or connection string.
	DSN string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// MaxOpenConns caps the connection pool size.
	MaxOpenConns int
}

// DefaultConfig returns connection settings suitable for a single-node
// deployment.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:          dsn,
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// ConnectionPool manages SQLite database connections with transaction support.
type ConnectionPool struct {
	db     *sql.DB
	config Config
}

// Open creates a connection pool and applies the SQLite pragmas the
// repositories rely on (foreign keys, WAL journaling, busy timeout).
func Open(config Config) (*ConnectionPool, error) {
	if strings.TrimSpace(config.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN is required")
	}

	db, err := sql.Open("sqlite", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	}
	if config.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds()))
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &ConnectionPool{db: db, config: config}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a transaction, rolling back when fn
// returns an error and committing otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// mapError translates SQLite driver errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return persistence.ErrNotFound
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(message, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(message, "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

// isRetryable reports whether the error is a transient lock/busy condition.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "database is locked") || strings.Contains(message, "database is busy")
}

// RetryConfig configures retry behavior for single-row writes.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns bounded retry settings for transient lock errors.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     1 * time.Second,
	}
}

// withRetry executes fn, retrying transient lock errors with exponential
// backoff. Constraint violations and missing rows are never retried.
func withRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
				if delay > config.MaxDelay {
					delay = config.MaxDelay
				}
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", config.MaxRetries, lastErr)
}
