package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	ierr "github.com/upbill/upbill/internal/errors"
)

// DefaultLockTimeout bounds how long a caller waits on a contended advisory
// lock before giving up.
const DefaultLockTimeout = 30 * time.Second

// LockRequest describes an advisory lock to acquire inside a transaction.
// Postgres hashes the key internally (hashtext), so any deterministic string
// works; see types.GenerateLockKey.
type LockRequest struct {
	Key     string
	Timeout *time.Duration
}

func (r LockRequest) GetTimeout() time.Duration {
	if r.Timeout == nil {
		return DefaultLockTimeout
	}
	return *r.Timeout
}

// LockKey acquires a transaction-scoped advisory lock for the request key.
// If Timeout is nil, defaults to 30 seconds. Zero or negative timeout means
// fail-fast. The lock is released automatically on commit or rollback.
// Must be called inside a transaction.
func (c *Client) LockKey(ctx context.Context, req LockRequest) error {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return ierr.NewError("LockKey must be called inside a transaction").
			Mark(ierr.ErrInternal)
	}

	timeout := req.GetTimeout()
	if timeout <= 0 {
		ok, err := c.TryLockKey(ctx, req.Key)
		if err != nil {
			return err
		}
		if !ok {
			return ierr.NewErrorf("lock already held on %s", req.Key).
				Mark(ierr.ErrVersionConflict)
		}
		return nil
	}

	// lock_timeout is transaction-local and reset automatically on
	// commit/rollback.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", int(timeout.Milliseconds()))); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to set lock timeout").
			Mark(ierr.ErrDatabase)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, req.Key); err != nil {
		if isLockTimeoutError(err) {
			return ierr.WithError(err).
				WithHintf("Failed to acquire lock within %v", timeout).
				Mark(ierr.ErrVersionConflict)
		}
		return ierr.WithError(err).
			WithHint("Failed to acquire advisory lock").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// TryLockKey tries acquiring the advisory lock immediately. Returns ok=false
// when the lock is already held. Must be called inside a transaction.
func (c *Client) TryLockKey(ctx context.Context, key string) (bool, error) {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return false, ierr.NewError("TryLockKey must be called inside a transaction").
			Mark(ierr.ErrInternal)
	}

	var ok bool
	if err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key).Scan(&ok); err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to try advisory lock").
			Mark(ierr.ErrDatabase)
	}

	return ok, nil
}

// isLockTimeoutError checks the postgres error code for a lock wait timeout.
func isLockTimeoutError(err error) bool {
	var pqErr *pq.Error
	if ierr.As(err, &pqErr) {
		// 55P03 = lock_not_available
		return pqErr.Code == "55P03"
	}
	return false
}
