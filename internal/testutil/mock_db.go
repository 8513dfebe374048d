package testutil

import (
	"context"
	"database/sql"

	"github.com/upbill/upbill/internal/postgres"
)

// MockDB satisfies postgres.IClient for service tests backed by in-memory
// stores. Transactions are pass-through and advisory locks always succeed;
// the stores provide their own consistency.
type MockDB struct {
	// LockHook, when set, runs when LockKey is called. Tests use it to
	// interleave a competing operation at the point where a real caller
	// would block on the advisory lock.
	LockHook func(ctx context.Context) error
}

func NewMockDB() *MockDB {
	return &MockDB{}
}

func (m *MockDB) Querier(ctx context.Context) postgres.Querier {
	return nil
}

func (m *MockDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *MockDB) TxFromContext(ctx context.Context) *sql.Tx {
	return nil
}

func (m *MockDB) LockKey(ctx context.Context, req postgres.LockRequest) error {
	if m.LockHook != nil {
		return m.LockHook(ctx)
	}
	return nil
}

func (m *MockDB) TryLockKey(ctx context.Context, key string) (bool, error) {
	return true, nil
}
