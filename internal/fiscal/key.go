// Package fiscal derives service-year ordering from "YYYY-M" period keys.
package fiscal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartMonth is the first month of a service year.
const StartMonth = time.September

// ErrMalformedKey indicates a period key that is not of the form YYYY-M.
var ErrMalformedKey = errors.New("fiscal: malformed period key")

// monthsBySortOrder maps a sort position to its calendar month.
var monthsBySortOrder = [12]time.Month{
	time.September, time.October, time.November, time.December,
	time.January, time.February, time.March, time.April,
	time.May, time.June, time.July, time.August,
}

// Key identifies a reporting period by calendar year and month.
type Key struct {
	Year  int
	Month time.Month
}

// ParseKey parses "YYYY-M" (or zero padded "YYYY-MM").
func ParseKey(s string) (Key, error) {
	year, month, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	return Key{Year: y, Month: time.Month(m)}, nil
}

// KeyOf returns the key of the calendar month containing t.
func KeyOf(t time.Time) Key {
	return Key{Year: t.Year(), Month: t.Month()}
}

// String renders the key without zero padding, e.g. "2024-9".
func (k Key) String() string {
	return strconv.Itoa(k.Year) + "-" + strconv.Itoa(int(k.Month))
}

// AddMonths shifts the key by n calendar months.
func (k Key) AddMonths(n int) Key {
	idx := k.Year*12 + int(k.Month) - 1 + n
	return Key{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// ServiceYear returns the service year the key belongs to.
func (k Key) ServiceYear() int {
	if int(k.Month)-int(StartMonth) >= 0 {
		return k.Year + 1
	}
	return k.Year
}

// SortOrder returns the position of the key within its service year, 0 through 11.
func (k Key) SortOrder() int {
	order := int(k.Month) - int(StartMonth)
	if order < 0 {
		order += 12
	}
	return order
}

// ServiceYear parses key and returns its service year.
func ServiceYear(key string) (int, error) {
	k, err := ParseKey(key)
	if err != nil {
		return 0, err
	}
	return k.ServiceYear(), nil
}

// SortOrder parses key and returns its position within the service year.
func SortOrder(key string) (int, error) {
	k, err := ParseKey(key)
	if err != nil {
		return 0, err
	}
	return k.SortOrder(), nil
}

// MonthAt returns the calendar month at the given sort position.
func MonthAt(sortOrder int) (time.Month, bool) {
	if sortOrder < 0 || sortOrder >= len(monthsBySortOrder) {
		return 0, false
	}
	return monthsBySortOrder[sortOrder], true
}

// KeyAt returns the period key at sortOrder within serviceYear.
func KeyAt(serviceYear, sortOrder int) (Key, bool) {
	month, ok := MonthAt(sortOrder)
	if !ok {
		return Key{}, false
	}
	year := serviceYear
	if month >= StartMonth {
		year--
	}
	return Key{Year: year, Month: month}, true
}
