package app

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire and storage format of reservation dates
const DateLayout = "2006-01-02"

// CivilDate is a calendar date without time or location
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseCivilDate parses a strict YYYY-MM-DD string into a calendar date
func ParseCivilDate(s string) (CivilDate, error) {
	if len(s) != len(DateLayout) || s[4] != '-' || s[7] != '-' {
		return CivilDate{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}

	year, err := parseDigits(s[0:4])
	if err != nil {
		return CivilDate{}, fmt.Errorf("invalid year in %q", s)
	}
	month, err := parseDigits(s[5:7])
	if err != nil || month < 1 || month > 12 {
		return CivilDate{}, fmt.Errorf("invalid month in %q", s)
	}
	day, err := parseDigits(s[8:10])
	if err != nil || day < 1 || day > daysIn(year, time.Month(month)) {
		return CivilDate{}, fmt.Errorf("invalid day in %q", s)
	}

	return CivilDate{Year: year, Month: time.Month(month), Day: day}, nil
}

func parseDigits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if isLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// String formats the date as YYYY-MM-DD
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Weekday computes the day of week from the proleptic Gregorian calendar.
// Days are counted from 1970-01-01 (a Thursday) using the days-from-civil
// algorithm, so the result never depends on a time zone.
func (d CivilDate) Weekday() time.Weekday {
	days := daysFromCivil(d.Year, int(d.Month), d.Day)
	// 1970-01-01 is Thursday (4)
	wd := (days + 4) % 7
	if wd < 0 {
		wd += 7
	}
	return time.Weekday(wd)
}

// daysFromCivil returns the number of days since 1970-01-01
func daysFromCivil(y, m, d int) int {
	if m <= 2 {
		y--
	}
	era := y / 400
	if y < 0 && y%400 != 0 {
		era--
	}
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

// Time returns midnight UTC of the date, for formatting only
func (d CivilDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// civilFromDays is the inverse of daysFromCivil
func civilFromDays(z int) CivilDate {
	z += 719468
	era := z / 146097
	if z < 0 && z%146097 != 0 {
		era--
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return CivilDate{Year: y, Month: time.Month(m), Day: d}
}

// AddDays returns the date n days later (earlier for negative n)
func (d CivilDate) AddDays(n int) CivilDate {
	return civilFromDays(daysFromCivil(d.Year, int(d.Month), d.Day) + n)
}
