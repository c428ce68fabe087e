// Package tx carries a SQL transaction through context and defines the
// transaction boundary services run multi-store writes under.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// Manager runs fn as one unit. Nested calls join the outer transaction.
type Manager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DBTX is the query surface shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Executor returns the transaction in ctx, or db when no transaction is active.
func Executor(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

type memoryTxKey struct{}

// MemoryManager serializes transactional work for the in-memory backend.
// Stores keep their own locks; this lock only makes a multi-store sequence atomic
// with respect to other transactions.
//
// There is no rollback: writes made before fn returns an error stay applied.
// Callers that need all-or-nothing writes must order them so the fallible step
// runs first, or use the postgres manager.
type MemoryManager struct {
	mu sync.Mutex
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

func (m *MemoryManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}
