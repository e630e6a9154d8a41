package db

import (
	"context"
	"strings"
)

// Backend is the capability set every storage technology implements.
// An instance owns exactly one logical connection and is not safe for
// concurrent use.
type Backend interface {
	// Description identifies the backend for diagnostics. It does no I/O.
	Description() string
	IsConnected() bool
	// Connect opens the connection; it is a no-op when already connected.
	Connect() error
	// Disconnect always leaves the backend disconnected. The returned error
	// only reports a failing driver close.
	Disconnect() error
	Exec(ctx context.Context, sql string) (*ResultSet, error)
	// ExecParams binds args to the positional placeholders $1..$n of sql.
	ExecParams(ctx context.Context, sql string, args ...any) (*ResultSet, error)
}

// TxBeginner is implemented by backends that support transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is the driver-level transaction a Transaction drives.
type Tx interface {
	Exec(ctx context.Context, sql string) (*ResultSet, error)
	ExecParams(ctx context.Context, sql string, args ...any) (*ResultSet, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DeferredTx is implemented by a Tx whose statements are only queued until
// commit. Replies returns one ResultSet per queued statement, in order.
type DeferredTx interface {
	Replies() ([]*ResultSet, error)
}

// Quoter is implemented by backends with their own literal/identifier quoting.
type Quoter interface {
	Quote(value string) string
	QuoteName(name string) string
}

// Introspector answers schema questions in the backend's own dialect.
type Introspector interface {
	TableExists(ctx context.Context, table string) (bool, error)
	TableColumns(ctx context.Context, table string) ([]string, error)
}

// Execer is the statement subset shared by Backend, Handle, Tx and Transaction.
type Execer interface {
	Exec(ctx context.Context, sql string) (*ResultSet, error)
	ExecParams(ctx context.Context, sql string, args ...any) (*ResultSet, error)
}

// ansiQuoter doubles the quote character, which is valid for PostgreSQL,
// SQLite and MySQL in ANSI mode.
type ansiQuoter struct{}

func (ansiQuoter) Quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// QuoteName quotes each dot-separated part of name.
func (ansiQuoter) QuoteName(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// QuoterFor returns b's own Quoter or ANSI quoting.
func QuoterFor(b Backend) Quoter {
	if q, ok := b.(Quoter); ok {
		return q
	}
	return ansiQuoter{}
}

// Quote escapes value as a string literal in b's dialect.
func Quote(b Backend, value string) string { return QuoterFor(b).Quote(value) }

// QuoteName quotes name as an identifier in b's dialect.
func QuoteName(b Backend, name string) string { return QuoterFor(b).QuoteName(name) }
