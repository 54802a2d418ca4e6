package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

// Transient PostgreSQL error codes. Only these (plus driver-level
// connection and timeout failures) are eligible for automatic retry;
// everything else propagates to the caller on the first attempt.
const (
	// Class 08 - connection exceptions
	pgConnectionException        = "08000"
	pgConnectionDoesNotExist     = "08003"
	pgConnectionFailure          = "08006"
	pgCannotConnectNow           = "57P03"
	pgSQLClientUnableToEstablish = "08001"

	// adminShutdown is raised when an administrator terminates the backend.
	pgAdminShutdown = "57P01"

	// tooManyConnections is raised when the server-side limit is hit.
	pgTooManyConnections = "53300"
)

// RetryExecutor runs persistence operations with bounded retry and
// exponential backoff for transient failures. It is safe for concurrent use.
type RetryExecutor struct {
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetryExecutor creates a RetryExecutor with the given attempt bound and
// base backoff delay. The delay doubles after each failed attempt.
func NewRetryExecutor(maxAttempts int, baseDelay time.Duration) *RetryExecutor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryExecutor{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Execute runs op, retrying transient failures up to the configured attempt
// bound. Non-transient errors are returned immediately and unchanged. When
// all attempts fail on a transient error, the last error is returned
// wrapped in ErrTransactionFailed. Every retried attempt and the terminal
// failure are logged; name identifies the operation in those log lines.
func (e *RetryExecutor) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	log := logger.FromContext(ctx)

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(e.maxAttempts-1), retry.NewExponential(e.baseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		opErr := op(ctx)
		if opErr == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retry",
					"operation", name,
					"attempt", attempt)
			}
			return nil
		}

		if !IsTransient(opErr) {
			return opErr
		}

		log.Warn("transient persistence error, will retry",
			"operation", name,
			"attempt", attempt,
			"max_attempts", e.maxAttempts,
			"error", opErr)
		return retry.RetryableError(opErr)
	})
	if err == nil {
		return nil
	}

	if IsTransient(err) {
		log.Error("operation failed after exhausting retries",
			"operation", name,
			"attempts", attempt,
			"error", err)
		return NewStoreError("database", name, "retries exhausted",
			errors.Join(ErrTransactionFailed, err))
	}

	return err
}

// ExecuteTx runs fn inside a transaction via RunInTransaction, with the
// whole transaction as the retry unit: a transient failure rolls back and
// the next attempt begins a fresh transaction on a fresh connection.
func (e *RetryExecutor) ExecuteTx(ctx context.Context, name string, db *sql.DB, fn TxFn) error {
	return e.Execute(ctx, name, func(ctx context.Context) error {
		return RunInTransaction(ctx, db, fn)
	})
}

// IsTransient reports whether err is a retry-eligible transient failure:
// a connection-class or admin-shutdown PostgreSQL error, a driver-level bad
// connection, or a timeout acquiring a pool connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgConnectionException,
			pgConnectionDoesNotExist,
			pgConnectionFailure,
			pgCannotConnectNow,
			pgSQLClientUnableToEstablish,
			pgAdminShutdown,
			pgTooManyConnections:
			return true
		}
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	// Pool exhaustion surfaces as a deadline on connection acquisition.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
