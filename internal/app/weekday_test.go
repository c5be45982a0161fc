package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCivilDate(t *testing.T) {
	tests := []struct {
		input   string
		want    CivilDate
		wantErr bool
	}{
		{input: "2024-01-05", want: CivilDate{2024, time.January, 5}},
		{input: "2024-02-29", want: CivilDate{2024, time.February, 29}},
		{input: "2000-02-29", want: CivilDate{2000, time.February, 29}},
		{input: "1900-02-29", wantErr: true},
		{input: "2023-02-29", wantErr: true},
		{input: "2024-04-31", wantErr: true},
		{input: "2024-13-01", wantErr: true},
		{input: "2024-00-10", wantErr: true},
		{input: "2024-1-05", wantErr: true},
		{input: "2024-01-05T00:00:00Z", wantErr: true},
		{input: "+024-01-05", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCivilDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestCivilWeekdayMatchesTimePackage(t *testing.T) {
	start := time.Date(1899, time.December, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 365*250; i += 3 {
		day := start.AddDate(0, 0, i)
		d := CivilDate{Year: day.Year(), Month: day.Month(), Day: day.Day()}
		if got := d.Weekday(); got != day.Weekday() {
			t.Fatalf("%s: Weekday() = %v, want %v", d, got, day.Weekday())
		}
	}
}

func TestCivilWeekdayKnownDates(t *testing.T) {
	tests := map[string]time.Weekday{
		"2024-01-05": time.Friday,
		"2024-01-06": time.Saturday,
		"1970-01-01": time.Thursday,
		"2000-01-01": time.Saturday,
		"2026-10-16": time.Friday,
	}
	for input, want := range tests {
		d, err := ParseCivilDate(input)
		require.NoError(t, err)
		assert.Equal(t, want, d.Weekday(), input)
	}
}

func TestAddDays(t *testing.T) {
	d := CivilDate{2024, time.February, 27}
	assert.Equal(t, "2024-03-01", d.AddDays(3).String())
	assert.Equal(t, "2023-12-31", CivilDate{2024, time.January, 1}.AddDays(-1).String())

	for _, n := range []int{-800, -1, 0, 1, 59, 366, 10000} {
		got := d.AddDays(n)
		want := d.Time().AddDate(0, 0, n).Format(DateLayout)
		assert.Equal(t, want, got.String(), "n=%d", n)
	}
}
