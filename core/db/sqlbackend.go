package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fbz-tec/dbport/core/validation"
	"github.com/fbz-tec/dbport/internal/logger"
)

const (
	connectTimeout = 10 * time.Second
	closeTimeout   = 2 * time.Second
)

func plainValue(_ *sql.ColumnType, v any) Value { return ValueOf(v) }

// sqlDialect captures what differs between database/sql drivers.
type sqlDialect struct {
	typ    string
	driver string
	// syntax is the literal and identifier rules used to find $N.
	syntax syntax
	// rebind rewrites $N placeholders into the driver's own syntax.
	rebind func(query string, args []any) (string, []any)
	// normalize turns a scanned driver value into a Value.
	normalize func(ct *sql.ColumnType, v any) Value
	// setup statements run on every new connection.
	setup []string
}

// sqlQueryer is satisfied by both *sqlx.Conn and *sqlx.Tx.
type sqlQueryer interface {
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// sqlBackend keeps exactly one dedicated connection out of a database/sql
// pool capped at one, so state such as an in-memory SQLite database or a
// session variable survives between statements.
type sqlBackend struct {
	dialect     sqlDialect
	dsn         string
	safeDSN     string
	description string

	db   *sqlx.DB
	conn *sqlx.Conn
}

func (b *sqlBackend) Type() string        { return b.dialect.typ }
func (b *sqlBackend) Description() string { return b.description }
func (b *sqlBackend) IsConnected() bool   { return b.conn != nil }

func (b *sqlBackend) Connect() error {
	if b.conn != nil {
		return nil // already connected
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	logger.Debug("Connection timeout: %s", connectTimeout)
	logger.Debug("Attempting to connect: %s", b.safeDSN)

	db, err := sqlx.Open(b.dialect.driver, b.dsn)
	if err != nil {
		return newError(ErrConnection, "connect", fmt.Errorf("unable to open %s: %w", b.description, err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return newError(ErrConnection, "connect", fmt.Errorf("unable to connect to %s: %w", b.description, err))
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return newError(ErrConnection, "connect", fmt.Errorf("unable to ping %s: %w", b.description, err))
	}

	logger.Debug("Database ping successful")

	for _, stmt := range b.dialect.setup {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			_ = db.Close()
			return newError(ErrConnection, "connect", fmt.Errorf("apply connection setup %q: %w", stmt, err))
		}
	}

	b.db, b.conn = db, conn
	return nil
}

func (b *sqlBackend) Disconnect() error {
	if b.db == nil {
		return nil
	}
	logger.Debug("Closing database connection...")

	var errs []error
	if b.conn != nil {
		errs = append(errs, b.conn.Close())
	}
	errs = append(errs, b.db.Close())
	b.db, b.conn = nil, nil

	err := errors.Join(errs...)
	if err != nil {
		logger.Debug("Error closing database connection: %v", err)
	}
	return err
}

func (b *sqlBackend) Exec(ctx context.Context, query string) (*ResultSet, error) {
	return b.ExecParams(ctx, query)
}

func (b *sqlBackend) ExecParams(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	if b.conn == nil {
		return nil, errorf(ErrConnection, "exec", "%s is not connected", b.description)
	}
	return b.run(ctx, b.conn, query, args)
}

func (b *sqlBackend) run(ctx context.Context, q sqlQueryer, query string, args []any) (*ResultSet, error) {
	if err := checkParams(query, len(args), b.dialect.syntax); err != nil {
		return nil, err
	}
	bound, boundArgs := b.dialect.rebind(query, args)

	logger.Debug("Executing SQL statement...")
	logger.Debug("Query: %s", bound)

	startTime := time.Now()
	var (
		rs  *ResultSet
		err error
	)
	if validation.ReturnsRows(query) {
		rs, err = b.query(ctx, q, bound, boundArgs)
	} else {
		rs, err = b.exec(ctx, q, bound, boundArgs)
	}
	if err != nil {
		return nil, newError(ErrQuery, "exec", err)
	}

	logger.Debug("Statement executed successfully in %v", time.Since(startTime))
	return rs, nil
}

func (b *sqlBackend) query(ctx context.Context, q sqlQueryer, query string, args []any) (*ResultSet, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	var data [][]Value
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		row := make([]Value, len(raw))
		for i, v := range raw {
			row[i] = b.dialect.normalize(types[i], v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return NewResultSet(columns, data, int64(len(data))), nil
}

func (b *sqlBackend) exec(ctx context.Context, q sqlQueryer, query string, args []any) (*ResultSet, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// some statements (DDL) carry no count
		affected = 0
	}
	return NewResultSet(nil, nil, affected), nil
}

// BeginTx starts a transaction on the dedicated connection. The transaction
// outlives ctx's cancellation; it ends only through Commit or Rollback.
func (b *sqlBackend) BeginTx(ctx context.Context) (Tx, error) {
	if b.conn == nil {
		return nil, errorf(ErrConnection, "begin", "%s is not connected", b.description)
	}
	tx, err := b.conn.BeginTxx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, newError(ErrQuery, "begin", err)
	}
	return &sqlTx{backend: b, tx: tx}, nil
}

type sqlTx struct {
	backend *sqlBackend
	tx      *sqlx.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string) (*ResultSet, error) {
	return t.backend.run(ctx, t.tx, query, nil)
}

func (t *sqlTx) ExecParams(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	return t.backend.run(ctx, t.tx, query, args)
}

func (t *sqlTx) Commit(context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// names runs a catalogue query that returns names in its first column.
func (b *sqlBackend) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rs, err := b.ExecParams(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return Column[string](rs, 0)
}
