package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is the explicit unit-of-work handle threaded through repository
// methods.  Both *sql.DB and *sql.Tx satisfy it, so a method written once
// can run standalone or inside a caller's transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxManager runs functions inside READ COMMITTED transactions bounded by a
// statement timeout.
type TxManager struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxManager returns a TxManager.  A zero timeout leaves only the
// caller's deadline in effect.
func NewTxManager(db *sql.DB, timeout time.Duration) *TxManager {
	return &TxManager{db: db, timeout: timeout}
}

// InTx begins a transaction, runs fn with it and commits when fn returns
// nil.  Any error from fn, a panic or a context expiry rolls back.
func (m *TxManager) InTx(ctx context.Context, fn func(tx DBTX) error) (err error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
