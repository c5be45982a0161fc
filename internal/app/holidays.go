package app

import (
	"time"
)

// Holidays returns the NRW public holidays of a year keyed by YYYY-MM-DD
func Holidays(year int) map[string]string {
	fixed := func(month time.Month, day int) string {
		return CivilDate{Year: year, Month: month, Day: day}.String()
	}

	holidays := map[string]string{
		fixed(time.January, 1):   "Neujahr",
		fixed(time.May, 1):       "Tag der Arbeit",
		fixed(time.October, 3):   "Tag der Deutschen Einheit",
		fixed(time.November, 1):  "Allerheiligen",
		fixed(time.December, 25): "1. Weihnachtstag",
		fixed(time.December, 26): "2. Weihnachtstag",
	}

	easter := Easter(year)
	holidays[easter.AddDays(-2).String()] = "Karfreitag"
	holidays[easter.AddDays(1).String()] = "Ostermontag"
	holidays[easter.AddDays(39).String()] = "Christi Himmelfahrt"
	holidays[easter.AddDays(50).String()] = "Pfingstmontag"
	holidays[easter.AddDays(60).String()] = "Fronleichnam"

	return holidays
}

// HolidaysOn returns the holidays of a year falling on weekday
func HolidaysOn(year int, weekday time.Weekday) map[string]string {
	out := make(map[string]string)
	for date, name := range Holidays(year) {
		d, err := ParseCivilDate(date)
		if err == nil && d.Weekday() == weekday {
			out[date] = name
		}
	}
	return out
}

// Easter calculates Easter Sunday using the Meeus/Jones/Butcher algorithm
func Easter(year int) CivilDate {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return CivilDate{Year: year, Month: time.Month(month), Day: day}
}
