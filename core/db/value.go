package db

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind identifies what a Value holds.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBytes
	KindTime
)

var kindNames = [...]string{
	KindNull:  "null",
	KindBool:  "bool",
	KindInt:   "int",
	KindFloat: "float",
	KindText:  "text",
	KindBytes: "bytes",
	KindTime:  "time",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single nullable field of a ResultSet.
// The zero Value is NULL.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
	t    time.Time
}

func Null() Value                { return Value{} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func TextValue(s string) Value   { return Value{kind: KindText, s: s} }
func TimeValue(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// BytesValue copies b; a nil slice yields NULL.
func BytesValue(b []byte) Value {
	if b == nil {
		return Null()
	}
	return Value{kind: KindBytes, raw: append([]byte{}, b...)}
}

// ValueOf normalizes a driver value into a Value.
// Types without a dedicated kind are rendered as text.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(int64(x))
	case int8:
		return IntValue(int64(x))
	case int16:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case uint:
		return uintValue(uint64(x))
	case uint8:
		return IntValue(int64(x))
	case uint16:
		return IntValue(int64(x))
	case uint32:
		return IntValue(int64(x))
	case uint64:
		return uintValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case string:
		return TextValue(x)
	case []byte:
		return BytesValue(x)
	case time.Time:
		return TimeValue(x)
	case *time.Time:
		if x == nil {
			return Null()
		}
		return TimeValue(*x)
	case fmt.Stringer:
		return TextValue(x.String())
	default:
		return TextValue(fmt.Sprint(x))
	}
}

// uint64 values above MaxInt64 cannot be an int; keep their digits instead.
func uintValue(u uint64) Value {
	if u > 1<<63-1 {
		return TextValue(strconv.FormatUint(u, 10))
	}
	return IntValue(int64(u))
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }

// Interface returns the native Go value held, or nil for NULL.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBytes:
		return append([]byte{}, v.raw...)
	case KindTime:
		return v.t
	}
	return nil
}

// String renders the value for diagnostics; NULL renders as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	case KindBytes:
		return string(v.raw)
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return ""
}
