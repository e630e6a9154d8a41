package db

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbz-tec/dbport/internal/metrics"
)

func openFakeTx(t *testing.T) (*fakeTxBackend, *Handle, *Transaction) {
	t.Helper()
	b := newFakeTx()
	h, err := Open(b)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	tx, err := h.BeginTransaction(context.Background())
	require.NoError(t, err)
	return b, h, tx
}

func TestTransactionCommit(t *testing.T) {
	ctx := context.Background()
	b, _, tx := openFakeTx(t)

	assert.Equal(t, TxOpen, tx.State())
	assert.NotEmpty(t, tx.ID())

	_, err := tx.ExecParams(ctx, "INSERT INTO t VALUES ($1)", 1)
	require.NoError(t, err)
	assert.Empty(t, b.statements, "nothing is visible before commit")

	require.NoError(t, tx.Commit(ctx))
	assert.Equal(t, TxCommitted, tx.State())
	assert.Equal(t, []string{"INSERT INTO t VALUES ($1)"}, b.statements)

	err = tx.Commit(ctx)
	assert.ErrorIs(t, err, ErrInvalidState, "second commit")
	assert.NoError(t, tx.Abort(ctx), "abort after commit is a no-op")
	assert.Equal(t, TxCommitted, tx.State())
	assert.Equal(t, 0, b.rollbacks)

	_, err = tx.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransactionAbort(t *testing.T) {
	ctx := context.Background()
	b, _, tx := openFakeTx(t)

	_, err := tx.Exec(ctx, "DELETE FROM t")
	require.NoError(t, err)

	require.NoError(t, tx.Abort(ctx))
	require.NoError(t, tx.Abort(ctx))
	assert.Equal(t, TxAborted, tx.State())
	assert.Equal(t, 1, b.rollbacks)
	assert.Empty(t, b.statements)

	assert.ErrorIs(t, tx.Commit(ctx), ErrInvalidState)
	_, err = tx.ExecParams(ctx, "SELECT $1", 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestTransactionExecErrorsKeepItOpen(t *testing.T) {
	ctx := context.Background()
	b, _, tx := openFakeTx(t)

	_, err := tx.ExecParams(ctx, "SELECT $1, $2", 1)
	assert.ErrorIs(t, err, ErrParamMismatch)

	b.execErr = errBoom
	_, err = tx.Exec(ctx, "SELECT broken")
	assert.ErrorIs(t, err, ErrQuery)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, TxOpen, tx.State())

	b.execErr = nil
	require.NoError(t, tx.Commit(ctx))
}

func TestTransactionCommitFailure(t *testing.T) {
	ctx := context.Background()
	b, h, tx := openFakeTx(t)
	b.commitErr = errBoom

	err := tx.Commit(ctx)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Equal(t, TxAborted, tx.State())
	assert.False(t, h.InTransaction())
	assert.ErrorIs(t, tx.Commit(ctx), ErrInvalidState)
}

func TestTransactionRollbackFailure(t *testing.T) {
	ctx := context.Background()
	b, h, tx := openFakeTx(t)
	b.rollbackErr = errBoom

	err := tx.Abort(ctx)
	assert.ErrorIs(t, err, ErrQuery)
	assert.Equal(t, TxAborted, tx.State())
	assert.False(t, h.InTransaction())
}

func TestTransactionCloseImplicitAbort(t *testing.T) {
	before := testutil.ToFloat64(metrics.Transactions.WithLabelValues(metrics.OutcomeImplicitAbort))
	b, h, tx := openFakeTx(t)

	tx.Close()
	assert.Equal(t, TxAborted, tx.State())
	assert.Equal(t, 1, b.rollbacks)
	assert.NoError(t, tx.Err())
	assert.False(t, h.InTransaction())

	tx.Close()
	assert.Equal(t, 1, b.rollbacks, "close after end is a no-op")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Transactions.WithLabelValues(metrics.OutcomeImplicitAbort)))
}

func TestTransactionCloseSwallowsRollbackFailure(t *testing.T) {
	b, _, tx := openFakeTx(t)
	b.rollbackErr = errBoom

	assert.NotPanics(t, tx.Close)
	assert.Equal(t, TxAborted, tx.State())
	assert.ErrorIs(t, tx.Err(), errBoom)
}

func TestTransactionCloseAfterCommit(t *testing.T) {
	b, _, tx := openFakeTx(t)
	require.NoError(t, tx.Commit(context.Background()))
	tx.Close()
	assert.Equal(t, TxCommitted, tx.State())
	assert.Equal(t, 0, b.rollbacks)
}

func TestTransactionQuote(t *testing.T) {
	_, _, tx := openFakeTx(t)
	assert.Equal(t, `'O''Brien'`, tx.Quote("O'Brien"))
	assert.Equal(t, `"my ""col"""`, tx.QuoteName(`my "col"`))
	assert.Equal(t, `"s"."t"`, tx.QuoteName("s.t"))
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()
	b := newFakeTx()
	h, err := Open(b)
	require.NoError(t, err)
	defer h.Close()

	err = WithTransaction(ctx, h, func(tx *Transaction) error {
		_, err := tx.ExecParams(ctx, "INSERT INTO t VALUES ($1)", 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.commits)
	assert.Len(t, b.statements, 1)

	sentinel := errors.New("stop")
	err = WithTransaction(ctx, h, func(tx *Transaction) error {
		_, _ = tx.Exec(ctx, "INSERT INTO t VALUES (2)")
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, b.commits)
	assert.Equal(t, 1, b.rollbacks)
	assert.Len(t, b.statements, 1)
	assert.False(t, h.InTransaction())
}

func TestTxStateString(t *testing.T) {
	assert.Equal(t, "open", TxOpen.String())
	assert.Equal(t, "committed", TxCommitted.String())
	assert.Equal(t, "aborted", TxAborted.String())
	assert.Equal(t, "unknown", TxState(9).String())
}
