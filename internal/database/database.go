package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// ErrNoDatabaseURL is returned when no connection string could be found.
var ErrNoDatabaseURL = errors.New("database URL not configured")

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions returns pool settings suited to a single archive process.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Open connects to Postgres and pings it before returning.
func Open(ctx context.Context, dbURL string, opts Options) (*sql.DB, error) {
	dbURL = strings.TrimSpace(dbURL)
	if dbURL == "" {
		return nil, ErrNoDatabaseURL
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return db, nil
}

// URLFromEnv returns the first non-empty value of the given environment
// variables, falling back to DATABASE_URL.
func URLFromEnv(keys ...string) (string, error) {
	for _, key := range append(keys, "DATABASE_URL") {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return strings.Trim(v, "\"'"), nil
		}
	}
	return "", ErrNoDatabaseURL
}
