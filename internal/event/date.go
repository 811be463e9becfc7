package event

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the shop's numeric date format, also used when printing dates
const DateLayout = "02.01.2006"

// ErrUnparseableDate is returned when date or time text does not have the expected shape
var ErrUnparseableDate = errors.New("unparseable date")

// weekdayPrefix matches a leading weekday abbreviation such as "Mo. " or "Sa. "
var weekdayPrefix = regexp.MustCompile(`^\p{L}+\.\s*`)

// Date is a civil calendar date without time or zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "DD.MM.YYYY" string into a Date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}
	return DateOf(t), nil
}

// Tomorrow returns the date following now, as seen in loc
func Tomorrow(now time.Time, loc *time.Location) Date {
	return DateOf(now.In(loc)).AddDays(1)
}

// AddDays returns the date n days after d
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC))
}

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d == Date{}
}

// String formats d as "DD.MM.YYYY"
func (d Date) String() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDateTime combines the shop's date label ("Mo. 20.10.2026") and time label
// ("19:00") into an instant in loc. The wall clock is kept as printed; no conversion
// to UTC takes place.
func ParseDateTime(dateText, timeText string, loc *time.Location) (time.Time, error) {
	dateClean := weekdayPrefix.ReplaceAllString(strings.TrimSpace(dateText), "")

	dateParts := strings.Split(dateClean, ".")
	if len(dateParts) != 3 {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrUnparseableDate, dateText)
	}
	timeParts := strings.Split(strings.TrimSpace(timeText), ":")
	if len(timeParts) != 2 {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrUnparseableDate, timeText)
	}

	nums := make([]int, 0, 5)
	for _, p := range append(dateParts, timeParts...) {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q %q", ErrUnparseableDate, dateText, timeText)
		}
		nums = append(nums, n)
	}
	day, month, year, hour, minute := nums[0], nums[1], nums[2], nums[3], nums[4]

	if year < 1 || year > 9999 || month < 1 || month > 12 ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: out of range %q %q", ErrUnparseableDate, dateText, timeText)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes overflow such as 31.02., which must be rejected
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: out of range %q %q", ErrUnparseableDate, dateText, timeText)
	}

	return t, nil
}
