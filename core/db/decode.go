package db

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Scalar lists the Go types a Value can be decoded into.
type Scalar interface {
	bool |
		int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64 |
		string | []byte | time.Time
}

// textTimeLayouts are tried in order when a text value is decoded as time.Time.
var textTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Decode converts v into T. It fails with ErrTypeMismatch when v is NULL or
// holds something T cannot represent.
func Decode[T Scalar](v Value) (T, error) {
	var out T
	if v.IsNull() {
		return out, mismatch(v, out)
	}

	var err error
	switch p := any(&out).(type) {
	case *bool:
		*p, err = decodeBool(v)
	case *int:
		*p, err = decodeSigned[int](v)
	case *int8:
		*p, err = decodeSigned[int8](v)
	case *int16:
		*p, err = decodeSigned[int16](v)
	case *int32:
		*p, err = decodeSigned[int32](v)
	case *int64:
		*p, err = decodeSigned[int64](v)
	case *uint:
		*p, err = decodeUnsigned[uint](v)
	case *uint8:
		*p, err = decodeUnsigned[uint8](v)
	case *uint16:
		*p, err = decodeUnsigned[uint16](v)
	case *uint32:
		*p, err = decodeUnsigned[uint32](v)
	case *uint64:
		*p, err = decodeUnsigned[uint64](v)
	case *float32:
		var f float64
		f, err = decodeFloat(v)
		if err == nil && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			err = errOverflow
		}
		*p = float32(f)
	case *float64:
		*p, err = decodeFloat(v)
	case *string:
		*p = v.String()
	case *[]byte:
		*p, err = decodeBytes(v)
	case *time.Time:
		*p, err = decodeTime(v)
	}
	if err != nil {
		var zero T
		return zero, mismatch(v, zero)
	}
	return out, nil
}

// DecodeOptional is Decode with NULL reported as ok=false instead of an error.
func DecodeOptional[T Scalar](v Value) (T, bool, error) {
	var zero T
	if v.IsNull() {
		return zero, false, nil
	}
	out, err := Decode[T](v)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

type decodeError string

func (e decodeError) Error() string { return string(e) }

const (
	errOverflow    decodeError = "value out of range"
	errUnsupported decodeError = "unsupported conversion"
)

func mismatch[T any](v Value, target T) error {
	return errorf(ErrTypeMismatch, "decode", "cannot decode %s value %q as %T", v.kind, truncate(v.String(), 64), target)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func decodeBool(v Value) (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		switch v.i {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, errOverflow
	case KindText:
		s := strings.TrimSpace(v.s)
		switch strings.ToLower(s) {
		case "t", "true", "y", "yes", "on", "1":
			return true, nil
		case "f", "false", "n", "no", "off", "0":
			return false, nil
		}
		return strconv.ParseBool(s)
	}
	return false, errUnsupported
}

func decodeInt64(v Value) (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindFloat:
		if v.f != math.Trunc(v.f) || v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, errOverflow
		}
		return int64(v.f), nil
	case KindText:
		return strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
	}
	return 0, errUnsupported
}

func decodeSigned[I int | int8 | int16 | int32 | int64](v Value) (I, error) {
	n, err := decodeInt64(v)
	if err != nil {
		return 0, err
	}
	if int64(I(n)) != n {
		return 0, errOverflow
	}
	return I(n), nil
}

func decodeUnsigned[U uint | uint8 | uint16 | uint32 | uint64](v Value) (U, error) {
	var n uint64
	if v.kind == KindText {
		u, err := strconv.ParseUint(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0, err
		}
		n = u
	} else {
		i, err := decodeInt64(v)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			return 0, errOverflow
		}
		n = uint64(i)
	}
	if uint64(U(n)) != n {
		return 0, errOverflow
	}
	return U(n), nil
}

func decodeFloat(v Value) (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	case KindText:
		return strconv.ParseFloat(strings.TrimSpace(v.s), 64)
	}
	return 0, errUnsupported
}

func decodeBytes(v Value) ([]byte, error) {
	switch v.kind {
	case KindBytes:
		return append([]byte{}, v.raw...), nil
	case KindText:
		return []byte(v.s), nil
	}
	return nil, errUnsupported
}

func decodeTime(v Value) (time.Time, error) {
	switch v.kind {
	case KindTime:
		return v.t, nil
	case KindInt:
		return time.Unix(v.i, 0).UTC(), nil
	case KindText, KindBytes:
		s := strings.TrimSpace(v.String())
		for _, layout := range textTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, errUnsupported
}
