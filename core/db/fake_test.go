package db

import (
	"context"
	"errors"
)

// fakeBackend records calls and fails on demand. It does not support
// transactions; wrap it in fakeTxBackend for that.
type fakeBackend struct {
	connected     bool
	connectErr    error
	disconnectErr error
	execErr       error

	connects    int
	disconnects int
	statements  []string
}

func (f *fakeBackend) Type() string        { return "fake" }
func (f *fakeBackend) Description() string { return "fake backend" }
func (f *fakeBackend) IsConnected() bool   { return f.connected }

func (f *fakeBackend) Connect() error {
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeBackend) Disconnect() error {
	f.disconnects++
	f.connected = false
	return f.disconnectErr
}

func (f *fakeBackend) Exec(ctx context.Context, sql string) (*ResultSet, error) {
	return f.ExecParams(ctx, sql)
}

func (f *fakeBackend) ExecParams(_ context.Context, sql string, args ...any) (*ResultSet, error) {
	if !f.connected {
		return nil, errorf(ErrConnection, "exec", "not connected")
	}
	if err := CheckParams(sql, len(args)); err != nil {
		return nil, err
	}
	if f.execErr != nil {
		return nil, newError(ErrQuery, "exec", f.execErr)
	}
	f.statements = append(f.statements, sql)
	rows := make([][]Value, 0, 1)
	if len(args) > 0 {
		row := make([]Value, len(args))
		cols := make([]string, len(args))
		for i, a := range args {
			row[i] = ValueOf(a)
			cols[i] = "arg"
		}
		return NewResultSet(cols, append(rows, row), 1), nil
	}
	return NewResultSet(nil, nil, 0), nil
}

type fakeTxBackend struct {
	*fakeBackend
	beginErr    error
	commitErr   error
	rollbackErr error

	commits   int
	rollbacks int
}

func (f *fakeTxBackend) BeginTx(context.Context) (Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return &fakeTx{b: f}, nil
}

type fakeTx struct {
	b       *fakeTxBackend
	pending []string
}

func (t *fakeTx) Exec(ctx context.Context, sql string) (*ResultSet, error) {
	return t.ExecParams(ctx, sql)
}

func (t *fakeTx) ExecParams(ctx context.Context, sql string, args ...any) (*ResultSet, error) {
	if err := CheckParams(sql, len(args)); err != nil {
		return nil, err
	}
	if t.b.execErr != nil {
		return nil, t.b.execErr
	}
	t.pending = append(t.pending, sql)
	return emptyResult(), nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.b.commits++
	if t.b.commitErr != nil {
		return t.b.commitErr
	}
	t.b.statements = append(t.b.statements, t.pending...)
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.b.rollbacks++
	return t.b.rollbackErr
}

func newFakeTx() *fakeTxBackend { return &fakeTxBackend{fakeBackend: &fakeBackend{}} }

var errBoom = errors.New("boom")
