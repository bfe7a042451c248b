package repos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	applog "vintagestore/internal/log"
	"vintagestore/internal/metrics"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
)

// DB wraps the pool: every statement is counted and retried on transient
// connection failures with exponential backoff (delay, 2*delay, ...).
type DB struct {
	X *sqlx.DB

	maxRetries uint
	retryDelay time.Duration
	queries    atomic.Int64
}

func NewDB(x *sqlx.DB) *DB {
	return &DB{X: x, maxRetries: DefaultMaxRetries, retryDelay: DefaultRetryDelay}
}

// WithRetry overrides the retry policy; a zero delay keeps the default.
func (d *DB) WithRetry(maxRetries uint, delay time.Duration) *DB {
	d.maxRetries = maxRetries
	if delay > 0 {
		d.retryDelay = delay
	}
	return d
}

// QueryCount is the number of statements issued (retries not included).
func (d *DB) QueryCount() int64 { return d.queries.Load() }

func (d *DB) Close() error { return d.X.Close() }

func (d *DB) Select(ctx context.Context, dest any, query string, args ...any) error {
	return d.do(ctx, "select", func() error { return d.X.SelectContext(ctx, dest, query, args...) })
}

func (d *DB) Get(ctx context.Context, dest any, query string, args ...any) error {
	return d.do(ctx, "get", func() error { return d.X.GetContext(ctx, dest, query, args...) })
}

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := d.do(ctx, "exec", func() error {
		var err error
		res, err = d.X.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// Begin starts a transaction. Statements inside it are not retried.
func (d *DB) Begin(ctx context.Context) (*sqlx.Tx, error) {
	var tx *sqlx.Tx
	err := d.do(ctx, "begin", func() error {
		var err error
		tx, err = d.X.BeginTxx(ctx, nil)
		return err
	})
	return tx, err
}

// In expands slice arguments for IN (?) clauses and rebinds for the driver.
func (d *DB) In(query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return d.X.Rebind(q), a, nil
}

func (d *DB) do(ctx context.Context, op string, fn func() error) error {
	d.queries.Add(1)
	metrics.DBQueries.WithLabelValues(op).Inc()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = d.retryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := fn()
		if err == nil {
			return struct{}{}, nil
		}
		if !IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		if uint(attempts) <= d.maxRetries {
			metrics.DBRetries.Inc()
			applog.Warn("db.retry", err, map[string]any{"op": op, "attempt": attempts, "code": ErrorCode(err)})
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.maxRetries+1))

	if err != nil && IsTransient(err) {
		return fmt.Errorf("db %s failed after %d attempts [%s]: %w", op, attempts, ErrorCode(err), err)
	}
	return err
}

// IsTransient reports connection-level failures worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection reset")
}

// ErrorCode renders a short code for logs and wrapped errors.
func ErrorCode(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return strconv.Itoa(int(me.Number))
	}
	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return "ECONNRESET"
	case errors.Is(err, syscall.EPIPE):
		return "EPIPE"
	case errors.Is(err, driver.ErrBadConn):
		return "ERR_BAD_CONN"
	case errors.Is(err, mysql.ErrInvalidConn):
		return "ERR_INVALID_CONN"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "UNEXPECTED_EOF"
	}
	return "UNKNOWN"
}
