package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// icsEscape escapes text values per RFC 5545
func icsEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}

// GenerateICS writes the reservations as an iCalendar file with an optional
// reminder the day before
func GenerateICS(w http.ResponseWriter, r *http.Request, reservations []Reservation) {
	reminder := r.URL.Query().Get("reminder")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=reservations.ics")

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintln(w, "X-WR-CALNAME:Routenreservierungen")
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", ICSTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")

	stamp := time.Now().UTC().Format("20060102T150405Z")
	for _, res := range reservations {
		date, err := ParseCivilDate(res.Date)
		if err != nil {
			continue
		}
		day := date.Time()

		// UID stays stable across edits of the same reservation
		uid := res.ID
		if uid == "" {
			uid = res.Date + "-" + res.Type
		}

		fmt.Fprintln(w, "BEGIN:VEVENT")
		fmt.Fprintf(w, "UID:%s@%s\n", uid, ICSDomain)
		fmt.Fprintf(w, "DTSTAMP:%s\n", stamp)
		fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", day.Format("20060102"))
		fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", day.AddDate(0, 0, 1).Format("20060102"))
		fmt.Fprintf(w, "SUMMARY:Route %s: %s\n", icsEscape(res.Type), icsEscape(res.Name))
		fmt.Fprintf(w, "DESCRIPTION:Reservierung Route %s für %s\n", icsEscape(res.Type), icsEscape(res.Name))

		if reminder != "" {
			AddAlarm(w, day, 1, reminder, res.Name)
		}

		fmt.Fprintln(w, "END:VEVENT")
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}

// AddAlarm adds a reminder at alarmTime (HH:MM) daysBefore the event day
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	parts := strings.Split(alarmTime, ":")
	if len(parts) != 2 {
		return
	}

	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return
	}

	alarmDate := eventDate.AddDate(0, 0, -daysBefore)
	alarmDateTime := time.Date(alarmDate.Year(), alarmDate.Month(), alarmDate.Day(), hour, minute, 0, 0, time.UTC)
	eventStart := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, time.UTC)

	totalMinutes := int(alarmDateTime.Sub(eventStart).Minutes())
	sign := ""
	if totalMinutes < 0 {
		sign = "-"
		totalMinutes = -totalMinutes
	}

	days := totalMinutes / (24 * 60)
	hours := (totalMinutes % (24 * 60)) / 60
	minutes := totalMinutes % 60

	fmt.Fprintln(w, "BEGIN:VALARM")
	fmt.Fprintln(w, "ACTION:DISPLAY")
	fmt.Fprintf(w, "DESCRIPTION:Erinnerung: %s\n", icsEscape(description))
	fmt.Fprintf(w, "TRIGGER:%sP%dDT%dH%dM\n", sign, days, hours, minutes)
	fmt.Fprintln(w, "END:VALARM")
}

// GenerateCSV writes the reservations as CSV
func GenerateCSV(w http.ResponseWriter, reservations []Reservation) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=reservations.csv")

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Datum", "Route", "Name"}); err != nil {
		return err
	}
	for _, res := range reservations {
		if err := cw.Write([]string{res.Date, res.Type, res.Name}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateJSON writes the reservations as a downloadable JSON document
func GenerateJSON(w http.ResponseWriter, rules Rules, reservations []Reservation) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=reservations.json")

	data := map[string]interface{}{
		"weekday":      strings.ToLower(rules.Weekday.String()),
		"route_types":  rules.RouteTypes,
		"reservations": reservations,
	}
	return json.NewEncoder(w).Encode(data)
}
