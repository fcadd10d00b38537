package mrz

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate reports a date field that is not a plausible YYMMDD value.
var ErrInvalidDate = errors.New("mrz: invalid date field")

// birthYearWindow resolves two-digit birth years: values at or below the
// current two-digit year land in the current century, everything else in
// the previous one. Expiry dates always resolve forward into the current
// century since documents do not stay valid for decades.
func resolveYear(yy int, birth bool, now time.Time) int {
	century := now.Year() / 100 * 100
	if birth && yy > now.Year()%100 {
		return century - 100 + yy
	}
	return century + yy
}

// ParseDate converts a raw YYMMDD MRZ date into a calendar date. The birth
// flag selects the century windowing: birth dates may fall in the previous
// century, expiry dates never do.
func ParseDate(raw string, birth bool) (time.Time, error) {
	return parseDateAt(raw, birth, time.Now().UTC())
}

func parseDateAt(raw string, birth bool, now time.Time) (time.Time, error) {
	if len(raw) != 6 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	t, err := time.Parse("060102", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	year := resolveYear(t.Year()%100, birth, now)
	return time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
