package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrRetryable marks a transaction that lost a race or ran out of time.
// Nothing was committed; the caller may retry.
var ErrRetryable = errors.New("transaction conflict, retry")

// WithTx runs fn inside one transaction bounded by timeout. Any error from fn
// rolls everything back. Postgres transactions run SERIALIZABLE; SQLite
// pools hold a single connection, so writers are serialized by the pool.
func WithTx(ctx context.Context, db *sqlx.DB, timeout time.Duration, fn func(tx *sqlx.Tx) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	tx, err := db.BeginTxx(ctx, txOptions(db))
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

func txOptions(db *sqlx.DB) *sql.TxOptions {
	if db.DriverName() == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

func classify(err error) error {
	if err == nil || errors.Is(err, ErrRetryable) {
		return err
	}
	if IsRetryable(err) {
		return fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	return err
}

// IsRetryable reports serialization failures, deadlocks, busy/locked
// databases and transaction timeouts.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

// UniqueViolation reports whether err is a unique-constraint failure and,
// when it can tell, which users column caused it ("email" or "phone").
func UniqueViolation(err error) (column string, ok bool) {
	var detail string
	var pgErr *pgconn.PgError
	var sqErr *sqlite.Error
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		detail = pgErr.ConstraintName + " " + pgErr.Detail
	case errors.As(err, &sqErr) && sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), "UNIQUE"):
		detail = sqErr.Error()
	default:
		return "", false
	}
	for _, col := range []string{"email", "phone"} {
		if strings.Contains(detail, col) {
			return col, true
		}
	}
	return "", true
}
