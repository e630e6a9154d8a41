package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	b := &fakeBackend{}
	h, err := Open(b)
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.Valid())
	assert.True(t, h.Connected())
	assert.Equal(t, "fake backend", h.Description())
	assert.Same(t, b, h.Backend())
	assert.Equal(t, 1, b.connects)
}

func TestOpenFailure(t *testing.T) {
	b := &fakeBackend{connectErr: newError(ErrConnection, "connect", errBoom)}
	h, err := Open(b)

	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, b.disconnects, "backend is disconnected after failed open")

	plain := &fakeBackend{connectErr: errBoom}
	_, err = Open(plain)
	assert.ErrorIs(t, err, ErrConnection, "untyped errors are reported as connection errors")

	_, err = Open(nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestHandleExec(t *testing.T) {
	b := &fakeBackend{}
	h, err := Open(b)
	require.NoError(t, err)
	defer h.Close()
	ctx := context.Background()

	rs, err := h.ExecParams(ctx, "SELECT $1, $2", 42, "x")
	require.NoError(t, err)
	row, err := rs.Front()
	require.NoError(t, err)
	n, err := Get[int](row, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = h.ExecParams(ctx, "SELECT $1", 1, 2)
	assert.ErrorIs(t, err, ErrParamMismatch)
	assert.Len(t, b.statements, 1, "mismatch is detected before reaching the backend")

	b.execErr = errBoom
	_, err = h.Exec(ctx, "SELECT broken")
	assert.ErrorIs(t, err, ErrQuery)
}

func TestHandleDisconnectAndReconnect(t *testing.T) {
	b := &fakeBackend{}
	h, err := Open(b)
	require.NoError(t, err)
	defer h.Close()
	ctx := context.Background()

	require.NoError(t, h.Disconnect())
	assert.False(t, h.Connected())
	assert.True(t, h.Valid())

	_, err = h.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrConnection)

	require.NoError(t, h.Connect())
	require.NoError(t, h.Connect(), "connect is a no-op when connected")
	assert.Equal(t, 2, b.connects)

	_, err = h.Exec(ctx, "SELECT 1")
	assert.NoError(t, err)
}

func TestHandleMove(t *testing.T) {
	b := &fakeBackend{}
	h, err := Open(b)
	require.NoError(t, err)

	moved, err := h.Move()
	require.NoError(t, err)
	defer moved.Close()

	assert.False(t, h.Valid())
	assert.True(t, moved.Connected())
	assert.Equal(t, "<empty handle>", h.Description())

	_, err = h.Exec(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, h.Connect(), ErrConnection)
	assert.ErrorIs(t, h.Disconnect(), ErrConnection)
	_, err = h.Move()
	assert.ErrorIs(t, err, ErrConnection)

	h.Close() // empty handle close is a no-op
	assert.Zero(t, b.disconnects)
}

func TestHandleReplace(t *testing.T) {
	first := &fakeBackend{}
	second := &fakeBackend{}
	dst, err := Open(first)
	require.NoError(t, err)
	src, err := Open(second)
	require.NoError(t, err)

	require.NoError(t, dst.Replace(src))
	defer dst.Close()

	assert.Equal(t, 1, first.disconnects, "previous backend is disconnected")
	assert.Same(t, second, dst.Backend())
	assert.False(t, src.Valid())

	require.NoError(t, dst.Replace(dst), "self replace is a no-op")
	assert.True(t, dst.Connected())
}

func TestHandleReplaceNilReceiver(t *testing.T) {
	src, err := Open(&fakeBackend{})
	require.NoError(t, err)
	defer src.Close()

	var h *Handle
	assert.NotPanics(t, func() {
		assert.ErrorIs(t, h.Replace(src), ErrConnection)
	})
	assert.True(t, src.Valid(), "source keeps its backend")
}

func TestHandleReplaceLogsDisconnectFailure(t *testing.T) {
	first := &fakeBackend{disconnectErr: errBoom}
	dst, err := Open(first)
	require.NoError(t, err)
	src, err := Open(&fakeBackend{})
	require.NoError(t, err)

	assert.NoError(t, dst.Replace(src))
	dst.Close()
}

func TestHandleClose(t *testing.T) {
	b := &fakeBackend{}
	h, err := Open(b)
	require.NoError(t, err)

	h.Close()
	h.Close()
	assert.Equal(t, 1, b.disconnects)
	assert.False(t, b.connected)
	assert.False(t, h.Valid())

	var nilHandle *Handle
	nilHandle.Close()
	assert.False(t, nilHandle.Valid())
}

func TestHandleCloseSwallowsDisconnectError(t *testing.T) {
	b := &fakeBackend{disconnectErr: errBoom}
	h, err := Open(b)
	require.NoError(t, err)
	assert.NotPanics(t, h.Close)
	assert.False(t, b.connected)
}

func TestBeginTransactionErrors(t *testing.T) {
	ctx := context.Background()

	plain, err := Open(&fakeBackend{})
	require.NoError(t, err)
	defer plain.Close()
	_, err = plain.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)

	b := newFakeTx()
	h, err := Open(b)
	require.NoError(t, err)
	defer h.Close()

	b.beginErr = errBoom
	_, err = h.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrQuery)
	assert.False(t, h.InTransaction())

	b.beginErr = nil
	require.NoError(t, h.Disconnect())
	_, err = h.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrConnection)

	var empty Handle
	_, err = empty.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestHandleBorrowedByTransaction(t *testing.T) {
	ctx := context.Background()
	b := newFakeTx()
	h, err := Open(b)
	require.NoError(t, err)
	defer h.Close()

	tx, err := h.BeginTransaction(ctx)
	require.NoError(t, err)
	assert.True(t, h.InTransaction())

	_, err = h.BeginTransaction(ctx)
	assert.ErrorIs(t, err, ErrInUse)
	_, err = h.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrInUse)
	_, err = h.ExecParams(ctx, "SELECT $1", 1)
	assert.ErrorIs(t, err, ErrInUse)
	assert.ErrorIs(t, h.Disconnect(), ErrInUse)
	_, err = h.Move()
	assert.ErrorIs(t, err, ErrInUse)

	other, err := Open(&fakeBackend{})
	require.NoError(t, err)
	defer other.Close()
	assert.ErrorIs(t, other.Replace(h), ErrInUse)
	assert.ErrorIs(t, h.Replace(other), ErrInUse)

	require.NoError(t, tx.Commit(ctx))
	assert.False(t, h.InTransaction())
	_, err = h.Exec(ctx, "SELECT 1")
	assert.NoError(t, err)
}

func TestHandleCloseAbortsOpenTransaction(t *testing.T) {
	b := newFakeTx()
	h, err := Open(b)
	require.NoError(t, err)

	tx, err := h.BeginTransaction(context.Background())
	require.NoError(t, err)

	h.Close()
	assert.Equal(t, TxAborted, tx.State())
	assert.Equal(t, 1, b.rollbacks)
	assert.False(t, b.connected)
}
