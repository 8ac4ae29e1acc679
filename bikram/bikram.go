/*
Package bikram provides Bikram Sambat (BS) calendar conversion and arithmetic.

PURPOSE:
  Every dated business event in the system (form dates, signoff stamps,
  fiscal-year scoping, vaccination schedules) is recorded in the Nepali
  Bikram Sambat calendar. This package is the single authority for:
  - BS <-> AD (Gregorian) conversion
  - Month lengths (irregular, table-driven; see data.go)
  - Day arithmetic and ordering
  - Fiscal-year derivation (Shrawan 1 boundary)

KEY CONCEPTS:
  - Date: an immutable (year, month, day) BS triple
  - Era: the supported range BS 2000-2090; anything outside fails with
    ErrOutOfRange rather than producing a wrong date
  - Normalization: "2081-04-01" and "2081/04/01" parse identically

DESIGN PRINCIPLES:
  1. Totality: conversion either returns a correct date or a typed error -
     never a silently wrong one.
  2. Day arithmetic goes through AD. BS month boundaries are irregular, so
     "add n days" is only safe as an AD round-trip.
  3. Display is best-effort: FormatAd degrades to "" on failure; validated
     paths must use FromAd/ToAd and handle the error.

SEE ALSO:
  - data.go: the authoritative month-length table and epoch
  - docflow: stamps transition signoffs with these dates
  - vaccine: converts registration dates at the BS/AD boundary
*/
package bikram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// adEpoch is the Gregorian date of BS 2000-01-01.
var adEpoch = time.Date(1943, time.April, 14, 0, 0, 0, 0, time.UTC)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidDateFormat is returned when a date string cannot be parsed.
	// Recoverable: the caller re-prompts for input.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrOutOfRange is returned for dates outside the supported era
	// (BS 2000-2090). Recoverable: the caller re-prompts for input.
	ErrOutOfRange = errors.New("date out of supported range")
)

// =============================================================================
// DATE - Immutable BS calendar date
// =============================================================================

type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-32, bounded by the true month length
}

// New builds a Date and validates it against the month-length table.
func New(year, month, day int) (Date, error) {
	d := Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Parse accepts "YYYY-MM-DD" or "YYYY/MM/DD" (the two delimiter styles used
// across the forms) and returns a validated Date.
func Parse(s string) (Date, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	parts := strings.Split(normalized, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
		}
		nums[i] = n
	}
	return New(nums[0], nums[1], nums[2])
}

// Validate checks the date against the era and the true month length.
func (d Date) Validate() error {
	if d.Year < epochYear || d.Year > lastYear {
		return fmt.Errorf("%w: year %d", ErrOutOfRange, d.Year)
	}
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidDateFormat, d.Month)
	}
	length := monthLengths[d.Year-epochYear][d.Month-1]
	if d.Day < 1 || d.Day > length {
		return fmt.Errorf("%w: day %d exceeds %d-%02d (%d days)",
			ErrInvalidDateFormat, d.Day, d.Year, d.Month, length)
	}
	return nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// =============================================================================
// COMPARISON - Lexicographic on (year, month, day)
// =============================================================================

// Compare returns -1, 0 or 1. Used pervasively for "not before / not after"
// validation on form dates.
func Compare(a, b Date) int {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(a.Month - b.Month)
	default:
		return sign(a.Day - b.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func (d Date) Before(other Date) bool { return Compare(d, other) < 0 }
func (d Date) After(other Date) bool  { return Compare(d, other) > 0 }
func (d Date) Equal(other Date) bool  { return Compare(d, other) == 0 }

// CompareStrings parses and compares two delimited date strings, normalizing
// "-" and "/" forms before comparison.
func CompareStrings(a, b string) (int, error) {
	da, err := Parse(a)
	if err != nil {
		return 0, err
	}
	db, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return Compare(da, db), nil
}

// =============================================================================
// CONVERSION - BS <-> AD
// =============================================================================

// ToAd converts a BS date to its Gregorian equivalent (UTC midnight).
func ToAd(d Date) (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}
	offset := yearStartOffsets[d.Year-epochYear]
	months := monthLengths[d.Year-epochYear]
	for m := 0; m < d.Month-1; m++ {
		offset += months[m]
	}
	offset += d.Day - 1
	return adEpoch.AddDate(0, 0, offset), nil
}

// FromAd converts a Gregorian date to its BS equivalent.
func FromAd(t time.Time) (Date, error) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := int(day.Sub(adEpoch).Hours() / 24)
	if offset < 0 {
		return Date{}, fmt.Errorf("%w: %s precedes BS %d", ErrOutOfRange, day.Format("2006-01-02"), epochYear)
	}

	year := epochYear
	for i := 1; i < len(yearStartOffsets); i++ {
		if yearStartOffsets[i] > offset {
			break
		}
		year = epochYear + i
	}
	offset -= yearStartOffsets[year-epochYear]

	months := monthLengths[year-epochYear]
	month := 1
	for month <= 12 && offset >= months[month-1] {
		offset -= months[month-1]
		month++
	}
	if month > 12 {
		// Past the last tabulated day.
		return Date{}, fmt.Errorf("%w: %s exceeds BS %d", ErrOutOfRange, day.Format("2006-01-02"), lastYear)
	}
	return Date{Year: year, Month: month, Day: offset + 1}, nil
}

// MonthLength returns the number of days in a BS month (28-32, irregular).
func MonthLength(year, month int) (int, error) {
	if year < epochYear || year > lastYear {
		return 0, fmt.Errorf("%w: year %d", ErrOutOfRange, year)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: month %d", ErrInvalidDateFormat, month)
	}
	return monthLengths[year-epochYear][month-1], nil
}

// Weekday returns the day of week (time.Sunday == 0), derived via AD.
func Weekday(d Date) (time.Weekday, error) {
	ad, err := ToAd(d)
	if err != nil {
		return 0, err
	}
	return ad.Weekday(), nil
}

// AddDays adds n calendar days. Computed via AD because BS month boundaries
// are irregular.
func AddDays(d Date, n int) (Date, error) {
	ad, err := ToAd(d)
	if err != nil {
		return Date{}, err
	}
	return FromAd(ad.AddDate(0, 0, n))
}

// Today returns the current BS date. Outside the supported era (which cannot
// happen before AD 2034) it returns the zero Date.
func Today() Date {
	d, err := FromAd(time.Now().UTC())
	if err != nil {
		return Date{}
	}
	return d
}

// FormatAd renders an AD time as a BS date string for display. Display is
// best-effort: conversion failure degrades to "".
func FormatAd(t time.Time) string {
	d, err := FromAd(t)
	if err != nil {
		return ""
	}
	return d.String()
}

// =============================================================================
// FISCAL YEAR - Shrawan 1 boundary
// =============================================================================

// FiscalYear returns the Nepali fiscal-year label for a date, e.g. "2081/82".
// The fiscal year runs Shrawan 1 (month 4) through Ashadh end (month 3).
func FiscalYear(d Date) string {
	start := d.Year
	if d.Month < 4 {
		start = d.Year - 1
	}
	return fmt.Sprintf("%04d/%02d", start, (start+1)%100)
}
