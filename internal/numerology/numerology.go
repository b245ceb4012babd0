// Package numerology implements the date based number calculations.
package numerology

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted birth date format.
const DateLayout = "02.01.2006"

const (
	minYear = 1900
	maxYear = 2100
)

var (
	// ErrDateFormat reports input that is not DD.MM.YYYY.
	ErrDateFormat = errors.New("date must look like DD.MM.YYYY")
	// ErrDateRange reports a well-formed date that does not exist or is out of range.
	ErrDateRange = errors.New("date out of range")
)

// Date is a calendar day.
type Date struct {
	Day, Month, Year int
}

// String formats d as DD.MM.YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, d.Month, d.Year)
}

// Time returns d at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// FromTime returns the calendar day of t in its location.
func FromTime(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// ParseDate parses "DD.MM.YYYY". Day and month may omit the leading zero.
// The year must lie in 1900..2100 and the day must exist in that month.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 || len(parts[2]) != 4 {
		return Date{}, ErrDateFormat
	}
	var nums [3]int
	for i, p := range parts {
		if p == "" || len(p) > 4 || strings.TrimLeft(p, "0123456789") != "" {
			return Date{}, ErrDateFormat
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, ErrDateFormat
		}
		nums[i] = n
	}
	d := Date{Day: nums[0], Month: nums[1], Year: nums[2]}
	if d.Year < minYear || d.Year > maxYear || d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > daysIn(d.Month, d.Year) {
		return Date{}, fmt.Errorf("%w: %s", ErrDateRange, strings.TrimSpace(s))
	}
	return d, nil
}

func daysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsMaster reports whether n is one of the master numbers 11, 22 or 33.
func IsMaster(n int) bool {
	return n == 11 || n == 22 || n == 33
}

func digitSum(n int) int {
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

// Reduce sums digits until n is a single digit or a master number.
func Reduce(n int) int {
	for n > 9 && !IsMaster(n) {
		n = digitSum(n)
	}
	return n
}

// ReduceFull sums digits until n is a single digit.
func ReduceFull(n int) int {
	for n > 9 {
		n = digitSum(n)
	}
	return n
}

func dateDigitSum(d Date) int {
	return digitSum(d.Day) + digitSum(d.Month) + digitSum(d.Year)
}

// LifePath returns the life path (destiny) number of a birth date.
func LifePath(d Date) int {
	return Reduce(dateDigitSum(d))
}

// Soul returns the soul number: the day of birth reduced to a single digit.
// Master numbers are not kept.
func Soul(d Date) int {
	return ReduceFull(d.Day)
}

// Daily returns the single digit number of a calendar day.
func Daily(d Date) int {
	return ReduceFull(dateDigitSum(d))
}

// Level grades a compatibility score.
type Level string

// Compatibility levels from best to worst.
const (
	LevelPerfect Level = "perfect"
	LevelGood    Level = "good"
	LevelAverage Level = "average"
	LevelLow     Level = "low"
)

// Compatibility is the result of comparing two life path numbers.
type Compatibility struct {
	First, Second int
	Score         int
	Level         Level
}

// Compatible compares the life paths of two birth dates.
func Compatible(a, b Date) Compatibility {
	first, second := LifePath(a), LifePath(b)
	diff := first - second
	if diff < 0 {
		diff = -diff
	}
	c := Compatibility{First: first, Second: second}
	switch {
	case diff == 0:
		c.Score, c.Level = 9, LevelPerfect
	case diff <= 2:
		c.Score, c.Level = 7, LevelGood
	case diff <= 4:
		c.Score, c.Level = 5, LevelAverage
	default:
		c.Score, c.Level = 3, LevelLow
	}
	return c
}
