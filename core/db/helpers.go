package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TableExists reports whether table exists in the database h is connected to.
func TableExists(ctx context.Context, h *Handle, table string) (bool, error) {
	in, err := introspector(h, "table exists")
	if err != nil {
		return false, err
	}
	return in.TableExists(ctx, table)
}

// TableColumns returns the column names of table in declaration order.
func TableColumns(ctx context.Context, h *Handle, table string) ([]string, error) {
	in, err := introspector(h, "table columns")
	if err != nil {
		return nil, err
	}
	return in.TableColumns(ctx, table)
}

func introspector(h *Handle, op string) (Introspector, error) {
	if err := h.check(op, true); err != nil {
		return nil, err
	}
	if !h.backend.IsConnected() {
		return nil, newError(ErrConnection, op, errors.New("not connected"))
	}
	in, ok := h.backend.(Introspector)
	if !ok {
		return nil, errorf(ErrUnsupported, op, "%s has no schema catalogue", backendType(h.backend))
	}
	return in, nil
}

// Insert writes one row into table using bound parameters. quoter decides the
// identifier quoting; pass the Handle's backend or a Transaction.
func Insert(ctx context.Context, ex Execer, quoter Quoter, table string, columns []string, values ...any) (*ResultSet, error) {
	if len(columns) == 0 {
		return nil, errorf(ErrParamMismatch, "insert", "no columns given for %s", table)
	}
	if len(columns) != len(values) {
		return nil, errorf(ErrParamMismatch, "insert", "%d column(s) but %d value(s)", len(columns), len(values))
	}
	return ex.ExecParams(ctx, InsertStatement(quoter, table, columns), values...)
}

// InsertStatement builds INSERT INTO table (c1, ...) VALUES ($1, ...).
func InsertStatement(quoter Quoter, table string, columns []string) string {
	if quoter == nil {
		quoter = ansiQuoter{}
	}
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoter.QuoteName(c)
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoter.QuoteName(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
}
