package formatters

import (
	"fmt"
	"time"
)

// ValidateTimeZone checks that timezone can be loaded. Empty means local time.
func ValidateTimeZone(timezone string) error {
	if timezone == "" {
		return nil
	}

	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	return nil
}

// ValidateTimeFormat checks that a user time format survives a format and
// parse round trip.
func ValidateTimeFormat(format string) error {
	if format == "" {
		return fmt.Errorf("time format cannot be empty")
	}

	testTime := time.Date(2006, 1, 2, 15, 4, 5, 123456789, time.UTC)
	layout := ConvertUserTimeFormat(format)

	formatted := testTime.Format(layout)
	if _, err := time.Parse(layout, formatted); err != nil {
		return fmt.Errorf("invalid time format %q: %w", format, err)
	}

	return nil
}
