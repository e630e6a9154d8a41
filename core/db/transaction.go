package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/fbz-tec/dbport/internal/logger"
	"github.com/fbz-tec/dbport/internal/metrics"
)

// TxState is the lifecycle position of a Transaction.
type TxState int

const (
	TxOpen TxState = iota
	TxCommitted
	TxAborted
)

func (s TxState) String() string {
	switch s {
	case TxOpen:
		return "open"
	case TxCommitted:
		return "committed"
	case TxAborted:
		return "aborted"
	}
	return "unknown"
}

// Transaction is a unit of work on a Handle. It ends exactly once: by Commit,
// Abort or the implicit abort in Close. Until then the handle refuses
// statements of its own.
//
//	tx, err := h.BeginTransaction(ctx)
//	if err != nil { ... }
//	defer tx.Close()
//	...
//	return tx.Commit(ctx)
type Transaction struct {
	id      string
	handle  *Handle
	backend Backend
	tx      Tx
	state   TxState
	err     error
}

func newTransaction(h *Handle, tx Tx) *Transaction {
	return &Transaction{
		id:      uuid.NewString(),
		handle:  h,
		backend: h.backend,
		tx:      tx,
		state:   TxOpen,
	}
}

func (t *Transaction) ID() string       { return t.id }
func (t *Transaction) State() TxState   { return t.state }
func (t *Transaction) Backend() Backend { return t.backend }

// Err returns the failure swallowed by Close's implicit abort, if any.
func (t *Transaction) Err() error { return t.err }

func (t *Transaction) checkOpen(op string) error {
	if t.state != TxOpen {
		return errorf(ErrInvalidState, op, "transaction %s is %s", t.id, t.state)
	}
	return nil
}

func (t *Transaction) Exec(ctx context.Context, sql string) (*ResultSet, error) {
	if err := t.checkOpen("exec"); err != nil {
		return nil, err
	}
	rs, err := t.tx.Exec(ctx, sql)
	metrics.ObserveQuery(backendType(t.backend), err)
	if err != nil {
		return nil, asQuery("exec", err)
	}
	return rs, nil
}

func (t *Transaction) ExecParams(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	if err := t.checkOpen("exec"); err != nil {
		return nil, err
	}
	rs, err := t.tx.ExecParams(ctx, sql, args...)
	metrics.ObserveQuery(backendType(t.backend), err)
	if err != nil {
		return nil, asQuery("exec", err)
	}
	return rs, nil
}

// Commit makes the transaction's work durable. A failing commit leaves the
// transaction aborted.
func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.checkOpen("commit"); err != nil {
		return err
	}
	err := t.tx.Commit(ctx)
	t.finish()
	if err != nil {
		t.state = TxAborted
		metrics.ObserveTransaction(metrics.OutcomeCommitFailed)
		return asQuery("commit", err)
	}
	t.state = TxCommitted
	metrics.ObserveTransaction(metrics.OutcomeCommitted)
	logger.Debug("Transaction %s committed", t.id)
	return nil
}

// Abort rolls the transaction back. It is a no-op once the transaction has
// ended. The state is Aborted even when the rollback itself fails.
func (t *Transaction) Abort(ctx context.Context) error {
	if t.state != TxOpen {
		return nil
	}
	if err := t.rollback(ctx); err != nil {
		return err
	}
	metrics.ObserveTransaction(metrics.OutcomeAborted)
	return nil
}

// Close aborts the transaction if it is still open. Rollback failures are
// logged and kept for Err, never returned.
func (t *Transaction) Close() {
	if t == nil || t.state != TxOpen {
		return
	}
	metrics.ObserveTransaction(metrics.OutcomeImplicitAbort)
	if err := t.rollback(context.Background()); err != nil {
		t.err = err
		logger.Warn("Implicit abort of transaction %s failed: %v", t.id, err)
		return
	}
	logger.Debug("Transaction %s aborted on close", t.id)
}

func (t *Transaction) rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	t.state = TxAborted
	t.finish()
	if err != nil {
		metrics.ObserveTransaction(metrics.OutcomeAbortFailed)
		return asQuery("abort", err)
	}
	return nil
}

// finish returns the handle to its owner.
func (t *Transaction) finish() {
	if t.handle != nil && t.handle.tx == t {
		t.handle.tx = nil
	}
	t.handle = nil
}

// Replies returns the replies of statements that the backend only runs at
// commit, such as commands queued in a Redis MULTI/EXEC block. It is nil
// before a successful commit and for backends that execute statements
// immediately.
func (t *Transaction) Replies() ([]*ResultSet, error) {
	if t.state != TxCommitted {
		return nil, nil
	}
	d, ok := t.tx.(DeferredTx)
	if !ok {
		return nil, nil
	}
	return d.Replies()
}

// Quote escapes value as a string literal for the transaction's backend.
func (t *Transaction) Quote(value string) string { return Quote(t.backend, value) }

// QuoteName quotes an identifier for the transaction's backend.
func (t *Transaction) QuoteName(name string) string { return QuoteName(t.backend, name) }

// WithTransaction runs fn inside a transaction on h, committing when fn
// returns nil and aborting otherwise.
func WithTransaction(ctx context.Context, h *Handle, fn func(tx *Transaction) error) error {
	tx, err := h.BeginTransaction(ctx)
	if err != nil {
		return err
	}
	defer tx.Close()

	if err := fn(tx); err != nil {
		if aerr := tx.Abort(ctx); aerr != nil {
			logger.Warn("Abort after failure of transaction %s: %v", tx.id, aerr)
		}
		return err
	}
	return tx.Commit(ctx)
}
