package formatters

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fbz-tec/dbport/core/db"
	"github.com/fbz-tec/dbport/internal/logger"
)

var timeFormatReplacer = strings.NewReplacer(
	"yyyy", "2006",
	"yy", "06",
	"MM", "01",
	"dd", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
	"SSS", "000", // Milliseconds
	"S", "0", // Deciseconds
)

const sqlTimeLayout = "2006-01-02 15:04:05.999999"

// Formatter renders result cells for the export formats.
// Times are shifted into loc only when a time zone was requested.
type Formatter struct {
	layout string
	loc    *time.Location
}

// New builds a Formatter from a user time format (yyyy-MM-dd HH:mm:ss) and an
// optional IANA time zone name.
func New(userTimefmt, timeZone string) Formatter {
	f := Formatter{layout: time.RFC3339Nano}
	if userTimefmt != "" {
		f.layout = ConvertUserTimeFormat(userTimefmt)
	}
	if timeZone != "" {
		_, f.loc = UserTimeZoneFormat(userTimefmt, timeZone)
	}
	return f
}

func (f Formatter) formatTime(t time.Time) string {
	if f.loc != nil {
		t = t.In(f.loc)
	}
	return t.Format(f.layout)
}

// Text formats a value for text based formats (CSV, XML). NULL becomes "".
func (f Formatter) Text(v db.Value) string {
	switch v.Kind() {
	case db.KindNull:
		return ""
	case db.KindFloat:
		fv, _ := db.Decode[float64](v)
		return formatFloat(fv)
	case db.KindTime:
		t, _ := db.Decode[time.Time](v)
		return f.formatTime(t)
	default:
		return v.String()
	}
}

// Native returns a value ready for a structured encoder (JSON, YAML,
// templates): nil for NULL, times as formatted strings, bytes as strings.
func (f Formatter) Native(v db.Value) any {
	switch v.Kind() {
	case db.KindNull:
		return nil
	case db.KindTime:
		t, _ := db.Decode[time.Time](v)
		return f.formatTime(t)
	case db.KindBytes:
		return v.String()
	default:
		return v.Interface()
	}
}

// Spreadsheet keeps times as time.Time so excelize writes real date cells.
func (f Formatter) Spreadsheet(v db.Value) any {
	if v.Kind() == db.KindTime {
		t, _ := db.Decode[time.Time](v)
		if f.loc != nil {
			t = t.In(f.loc)
		}
		return t
	}
	return f.Native(v)
}

// SQLLiteral renders a value as a SQL literal. Strings are quoted with quote,
// or with ANSI single quotes when quote is nil.
func SQLLiteral(v db.Value, quote func(string) string) string {
	if quote == nil {
		quote = quoteLiteral
	}
	switch v.Kind() {
	case db.KindNull:
		return "NULL"
	case db.KindBool:
		b, _ := db.Decode[bool](v)
		if b {
			return "true"
		}
		return "false"
	case db.KindInt:
		i, _ := db.Decode[int64](v)
		return strconv.FormatInt(i, 10)
	case db.KindFloat:
		fv, _ := db.Decode[float64](v)
		return formatFloat(fv)
	case db.KindTime:
		t, _ := db.Decode[time.Time](v)
		return quote(t.Format(sqlTimeLayout))
	case db.KindBytes:
		b, _ := db.Decode[[]byte](v)
		return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
	default:
		return quote(v.String())
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.15g", f)
}

func QuoteIdent(s string) string {
	parts := strings.Split(s, ".")
	for i, part := range parts {
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func UserTimeZoneFormat(userTimefmt string, timeZone string) (string, *time.Location) {

	layout := ConvertUserTimeFormat(userTimefmt)

	if timeZone == "" {
		return layout, time.Local
	}

	loc, err := time.LoadLocation(timeZone)

	if err != nil {
		logger.Warn("Invalid timezone %q, using local time: %v", timeZone, err)
		return layout, time.Local
	}

	return layout, loc
}

func ConvertUserTimeFormat(userTimefmt string) string {
	return timeFormatReplacer.Replace(userTimefmt)
}
