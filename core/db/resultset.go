package db

import (
	"iter"
)

// ResultSet is the fully materialized outcome of one Exec/ExecParams call.
// It never touches the connection again and is safe to read from many
// goroutines.
type ResultSet struct {
	columns  []string
	index    map[string]int
	rows     [][]Value
	affected int64
}

// NewResultSet copies columns and rows into a new immutable ResultSet.
// Rows shorter than the column list are padded with NULL, longer rows are cut.
func NewResultSet(columns []string, rows [][]Value, affected int64) *ResultSet {
	rs := &ResultSet{
		columns:  append([]string{}, columns...),
		index:    make(map[string]int, len(columns)),
		rows:     make([][]Value, len(rows)),
		affected: affected,
	}
	for i, name := range rs.columns {
		// first occurrence wins for duplicate column names
		if _, dup := rs.index[name]; !dup {
			rs.index[name] = i
		}
	}
	for i, r := range rows {
		row := make([]Value, len(columns))
		copy(row, r)
		rs.rows[i] = row
	}
	return rs
}

// emptyResult is returned by statements that produce neither rows nor a count.
func emptyResult() *ResultSet { return NewResultSet(nil, nil, 0) }

func (rs *ResultSet) Len() int            { return len(rs.rows) }
func (rs *ResultSet) Empty() bool         { return len(rs.rows) == 0 }
func (rs *ResultSet) ColumnCount() int    { return len(rs.columns) }
func (rs *ResultSet) AffectedRows() int64 { return rs.affected }

// Columns returns a copy of the column names in result order.
func (rs *ResultSet) Columns() []string { return append([]string{}, rs.columns...) }

func (rs *ResultSet) ColumnName(i int) (string, error) {
	if i < 0 || i >= len(rs.columns) {
		return "", errorf(ErrOutOfRange, "column", "column index %d out of range [0,%d)", i, len(rs.columns))
	}
	return rs.columns[i], nil
}

func (rs *ResultSet) ColumnIndex(name string) (int, error) {
	i, ok := rs.index[name]
	if !ok {
		return -1, errorf(ErrColumnNotFound, "column", "no column named %q", name)
	}
	return i, nil
}

// Row returns the i-th row.
func (rs *ResultSet) Row(i int) (Row, error) {
	if i < 0 || i >= len(rs.rows) {
		return Row{}, errorf(ErrOutOfRange, "row", "row index %d out of range [0,%d)", i, len(rs.rows))
	}
	return Row{rs: rs, n: i}, nil
}

// Front returns the first row or ErrEmptyResult.
func (rs *ResultSet) Front() (Row, error) {
	if len(rs.rows) == 0 {
		return Row{}, newError(ErrEmptyResult, "front", nil)
	}
	return Row{rs: rs, n: 0}, nil
}

func (rs *ResultSet) FrontOptional() (Row, bool) {
	if len(rs.rows) == 0 {
		return Row{}, false
	}
	return Row{rs: rs, n: 0}, true
}

// All yields every row with its index. Each call starts a fresh pass.
func (rs *ResultSet) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := range rs.rows {
			if !yield(i, Row{rs: rs, n: i}) {
				return
			}
		}
	}
}

// Rows yields every row. Each call starts a fresh pass.
func (rs *ResultSet) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := range rs.rows {
			if !yield(Row{rs: rs, n: i}) {
				return
			}
		}
	}
}

// Iter returns a single-pass cursor positioned before the first row.
func (rs *ResultSet) Iter() *RowIterator { return &RowIterator{rs: rs, n: -1} }

// RowIterator walks a ResultSet once; start another with ResultSet.Iter.
type RowIterator struct {
	rs *ResultSet
	n  int
}

func (it *RowIterator) Next() bool {
	if it.n >= len(it.rs.rows) {
		return false
	}
	it.n++
	return it.n < len(it.rs.rows)
}

// Row returns the current row; only valid after Next reported true.
func (it *RowIterator) Row() Row { return Row{rs: it.rs, n: it.n} }

// Row is a view of one row of a ResultSet.
type Row struct {
	rs *ResultSet
	n  int
}

func (r Row) Index() int { return r.n }

func (r Row) Len() int {
	if r.rs == nil {
		return 0
	}
	return len(r.rs.columns)
}

func (r Row) Value(i int) (Value, error) {
	if r.rs == nil || i < 0 || i >= len(r.rs.columns) {
		return Value{}, errorf(ErrOutOfRange, "value", "column index %d out of range [0,%d)", i, r.Len())
	}
	return r.rs.rows[r.n][i], nil
}

func (r Row) Column(name string) (Value, error) {
	if r.rs == nil {
		return Value{}, errorf(ErrColumnNotFound, "value", "no column named %q", name)
	}
	i, err := r.rs.ColumnIndex(name)
	if err != nil {
		return Value{}, err
	}
	return r.rs.rows[r.n][i], nil
}

// IsNull reports whether column i is NULL; out-of-range columns report false.
func (r Row) IsNull(i int) bool {
	v, err := r.Value(i)
	return err == nil && v.IsNull()
}

// Values returns a copy of the row's fields.
func (r Row) Values() []Value {
	if r.rs == nil {
		return nil
	}
	return append([]Value{}, r.rs.rows[r.n]...)
}

// Get decodes column i of r as T.
func Get[T Scalar](r Row, i int) (T, error) {
	v, err := r.Value(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](v)
}

// GetNamed decodes the named column of r as T.
func GetNamed[T Scalar](r Row, name string) (T, error) {
	v, err := r.Column(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](v)
}

// GetOptional decodes column i of r, reporting NULL as ok=false.
func GetOptional[T Scalar](r Row, i int) (T, bool, error) {
	v, err := r.Value(i)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return DecodeOptional[T](v)
}

func GetOptionalNamed[T Scalar](r Row, name string) (T, bool, error) {
	v, err := r.Column(name)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return DecodeOptional[T](v)
}

// Collect converts every row with fn, stopping at the first error.
func Collect[T any](rs *ResultSet, fn func(Row) (T, error)) ([]T, error) {
	out := make([]T, 0, rs.Len())
	for r := range rs.Rows() {
		v, err := fn(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Column decodes column i of every row.
func Column[T Scalar](rs *ResultSet, i int) ([]T, error) {
	return Collect(rs, func(r Row) (T, error) { return Get[T](r, i) })
}
