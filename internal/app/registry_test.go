package app

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry(DefaultRules())
	n := 0
	r.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return r
}

func TestRegistryInsert(t *testing.T) {
	r := newTestRegistry(t)

	res, err := r.Insert(Candidate{Name: "Ali", Date: "2024-01-05", Type: "A"})
	require.NoError(t, err)
	assert.Equal(t, Reservation{ID: "id-1", Name: "Ali", Date: "2024-01-05", Type: "A"}, res)
	assert.Equal(t, []Reservation{res}, r.List())

	pos, ok := r.Position("id-1")
	require.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestRegistryInsertRejections(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		kind      ErrorKind
		message   string
	}{
		{
			name:      "same date and type",
			candidate: Candidate{Name: "Omar", Date: "2024-01-05", Type: "A"},
			kind:      KindConflict,
			message:   ErrSlotTaken,
		},
		{
			name:      "saturday",
			candidate: Candidate{Name: "Ali", Date: "2024-01-06", Type: "A"},
			kind:      KindValidation,
			message:   "The date must be a Friday",
		},
		{
			name:      "malformed date",
			candidate: Candidate{Name: "Ali", Date: "05/01/2024", Type: "A"},
			kind:      KindValidation,
			message:   ErrInvalidDateFormat,
		},
		{
			name:      "impossible date",
			candidate: Candidate{Name: "Ali", Date: "2023-02-29", Type: "A"},
			kind:      KindValidation,
			message:   ErrInvalidDateFormat,
		},
		{
			name:      "unknown type",
			candidate: Candidate{Name: "Ali", Date: "2024-01-12", Type: "C"},
			kind:      KindValidation,
			message:   "Unknown route type (allowed: A, B)",
		},
		{
			name:      "empty name after sanitizing",
			candidate: Candidate{Name: " <> ", Date: "2024-01-12", Type: "A"},
			kind:      KindValidation,
			message:   "Name must be between 1 and 100 characters",
		},
		{
			name:      "name too long",
			candidate: Candidate{Name: strings.Repeat("x", MaxNameLength+1), Date: "2024-01-12", Type: "A"},
			kind:      KindValidation,
			message:   "Name must be between 1 and 100 characters",
		},
		{
			name:      "weekday checked before type",
			candidate: Candidate{Name: "", Date: "2024-01-06", Type: "C"},
			kind:      KindValidation,
			message:   "The date must be a Friday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t)
			_, err := r.Insert(Candidate{Name: "Ali", Date: "2024-01-05", Type: "A"})
			require.NoError(t, err)
			before := r.List()

			_, err = r.Insert(tt.candidate)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "kind of %v", err)
			assert.Equal(t, tt.message, err.Error())

			if diff := cmp.Diff(before, r.List()); diff != "" {
				t.Errorf("registry changed after rejected insert (-before +after):\n%s", diff)
			}
		})
	}
}

func TestRegistrySameDateOtherType(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Insert(Candidate{Name: "Ali", Date: "2024-01-05", Type: "A"})
	require.NoError(t, err)

	_, err = r.Insert(Candidate{Name: "Sara", Date: "2024-01-05", Type: "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryInsertSanitizesName(t *testing.T) {
	r := newTestRegistry(t)

	res, err := r.Insert(Candidate{Name: "  <b>Ali</b> & 'Co'  ", Date: "2024-01-05", Type: "A"})
	require.NoError(t, err)
	assert.Equal(t, "bAli/b  Co", res.Name)
}

func TestRegistryUpdate(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Insert(Candidate{Name: "Ali", Date: "2024-01-05", Type: "A"})
	require.NoError(t, err)
	_, err = r.Insert(Candidate{Name: "Sara", Date: "2024-01-12", Type: "B"})
	require.NoError(t, err)

	t.Run("keeps own slot", func(t *testing.T) {
		res, err := r.Update(0, Candidate{Name: "Ali Baba", Date: "2024-01-05", Type: "A"})
		require.NoError(t, err)
		assert.Equal(t, Reservation{ID: "id-1", Name: "Ali Baba", Date: "2024-01-05", Type: "A"}, res)
	})

	t.Run("conflict with other record", func(t *testing.T) {
		before := r.List()
		_, err := r.Update(0, Candidate{Name: "Ali", Date: "2024-01-12", Type: "B"})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConflict))
		assert.Equal(t, before, r.List())
	})

	t.Run("out of bounds", func(t *testing.T) {
		for _, pos := range []int{-1, 2, 5} {
			_, err := r.Update(pos, Candidate{Name: "X", Date: "2024-01-19", Type: "A"})
			require.Error(t, err)
			assert.True(t, IsKind(err, KindNotFound), "position %d", pos)
		}
	})

	t.Run("moves slot", func(t *testing.T) {
		res, err := r.Update(1, Candidate{Name: "Sara", Date: "2024-01-19", Type: "A"})
		require.NoError(t, err)
		assert.Equal(t, "id-2", res.ID)
		pos, ok := r.Position("id-2")
		require.True(t, ok)
		assert.Equal(t, 1, pos)
	})
}

func TestRegistryDelete(t *testing.T) {
	r := newTestRegistry(t)
	for _, date := range []string{"2024-01-05", "2024-01-12", "2024-01-19"} {
		_, err := r.Insert(Candidate{Name: "Ali", Date: date, Type: "A"})
		require.NoError(t, err)
	}

	t.Run("out of bounds", func(t *testing.T) {
		before := r.List()
		_, err := r.Delete(5)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
		assert.Equal(t, ErrReservationNotFound, err.Error())
		assert.Equal(t, before, r.List())
	})

	t.Run("shifts later positions", func(t *testing.T) {
		removed, err := r.Delete(0)
		require.NoError(t, err)
		assert.Equal(t, "id-1", removed.ID)

		_, ok := r.Position("id-1")
		assert.False(t, ok)

		pos, ok := r.Position("id-3")
		require.True(t, ok)
		assert.Equal(t, 1, pos)
		assert.Equal(t, "2024-01-12", r.List()[0].Date)
	})
}

func TestRegistryResetAssignsMissingIDs(t *testing.T) {
	r := newTestRegistry(t)
	r.Reset([]Reservation{
		{ID: "keep", Name: "Ali", Date: "2024-01-05", Type: "A"},
		{Name: "Sara", Date: "2024-01-05", Type: "B"},
	})

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "keep", list[0].ID)
	assert.Equal(t, "id-1", list[1].ID)

	pos, ok := r.Position("id-1")
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestRegistryListIsCopy(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Insert(Candidate{Name: "Ali", Date: "2024-01-05", Type: "A"})
	require.NoError(t, err)

	list := r.List()
	list[0].Name = "changed"
	assert.Equal(t, "Ali", r.List()[0].Name)
}

// Every accepted record is on the weekday and no (date, type) repeats,
// whatever sequence of operations is applied.
func TestRegistryInvariantsUnderChurn(t *testing.T) {
	r := NewRegistry(DefaultRules())
	start := CivilDate{Year: 2024, Month: time.January, Day: 1}
	types := []string{"A", "B", "C"}

	for i := 0; i < 400; i++ {
		c := Candidate{
			Name: fmt.Sprintf("n%d", i),
			Date: start.AddDays(i % 23).String(),
			Type: types[i%len(types)],
		}
		switch i % 5 {
		case 3:
			_, _ = r.Update(i%7, c)
		case 4:
			_, _ = r.Delete(i % 3)
		default:
			_, _ = r.Insert(c)
		}

		seen := make(map[slotKey]bool)
		for _, rec := range r.List() {
			d, err := ParseCivilDate(rec.Date)
			require.NoError(t, err)
			require.Equal(t, time.Friday, d.Weekday())
			require.False(t, seen[rec.key()], "duplicate slot %v", rec.key())
			seen[rec.key()] = true
		}
	}
}

func TestRegistryUpdateChecksRulesBeforePosition(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Insert(Candidate{Name: "Ali", Date: "2024-01-05", Type: "A"})
	require.NoError(t, err)

	tests := []struct {
		name string
		pos  int
		c    Candidate
		kind ErrorKind
	}{
		{name: "wrong weekday", pos: 99, c: Candidate{Name: "X", Date: "2024-01-06", Type: "A"}, kind: KindValidation},
		{name: "bad date", pos: 99, c: Candidate{Name: "X", Date: "2024-1-5", Type: "A"}, kind: KindValidation},
		{name: "unknown type", pos: 99, c: Candidate{Name: "X", Date: "2024-01-12", Type: "Z"}, kind: KindValidation},
		{name: "empty name", pos: 99, c: Candidate{Name: " ", Date: "2024-01-12", Type: "A"}, kind: KindValidation},
		{name: "taken slot", pos: 99, c: Candidate{Name: "X", Date: "2024-01-05", Type: "A"}, kind: KindNotFound},
		{name: "valid candidate", pos: 99, c: Candidate{Name: "X", Date: "2024-01-12", Type: "A"}, kind: KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Update(tt.pos, tt.c)
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
}

func TestRegistryLoadAdmitsStoredRecords(t *testing.T) {
	r := newTestRegistry(t)
	stored := []Reservation{
		{ID: "a", Name: "Ali", Date: "2024-01-05", Type: "A"},
		{ID: "b", Name: "Saturday", Date: "2024-01-06", Type: "A"},
		{ID: "c", Name: "Unknown", Date: "2024-01-12", Type: "Z"},
		{ID: "d", Name: "Twice", Date: "2024-01-05", Type: "A"},
		{ID: "a", Name: "Reused ID", Date: "2024-01-12", Type: "B"},
		{Name: "Legacy", Date: "2024-01-19", Type: "A"},
		{ID: "e", Name: "", Date: "2024-01-26", Type: "A"},
	}

	rejected := r.Load(stored)

	want := []Reservation{
		{ID: "a", Name: "Ali", Date: "2024-01-05", Type: "A"},
		{ID: "id-1", Name: "Reused ID", Date: "2024-01-12", Type: "B"},
		{ID: "id-2", Name: "Legacy", Date: "2024-01-19", Type: "A"},
	}
	if diff := cmp.Diff(want, r.List()); diff != "" {
		t.Errorf("loaded records mismatch (-want +got):\n%s", diff)
	}

	var rejectedIDs []string
	for _, rej := range rejected {
		rejectedIDs = append(rejectedIDs, rej.Record.ID)
	}
	assert.Equal(t, []string{"b", "c", "d", "e"}, rejectedIDs)
	assert.True(t, IsKind(rejected[0].Err, KindValidation))
	assert.True(t, IsKind(rejected[2].Err, KindConflict))

	for i, rec := range r.List() {
		pos, ok := r.Position(rec.ID)
		require.True(t, ok, rec.ID)
		assert.Equal(t, i, pos, rec.ID)
	}
}

func TestRegistryLoadFollowsRules(t *testing.T) {
	r := NewRegistry(Rules{Weekday: time.Saturday, RouteTypes: []string{"north", "south"}})
	rejected := r.Load([]Reservation{
		{ID: "a", Name: "Ali", Date: "2024-01-05", Type: "A"},
		{ID: "b", Name: "Sara", Date: "2024-01-06", Type: "north"},
	})

	assert.Len(t, rejected, 1)
	assert.Equal(t, []Reservation{{ID: "b", Name: "Sara", Date: "2024-01-06", Type: "north"}}, r.List())
}
