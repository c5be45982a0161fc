package app

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Rules are the admissibility rules applied to every candidate
type Rules struct {
	Weekday    time.Weekday
	RouteTypes []string
}

// DefaultRules returns the Friday / two route type rule set
func DefaultRules() Rules {
	return Rules{
		Weekday:    DefaultWeekday,
		RouteTypes: slices.Clone(DefaultRouteTypes),
	}
}

// Registry is the in-memory ordered collection of reservations. It is not
// safe for concurrent use; Service serializes access.
type Registry struct {
	rules   Rules
	records []Reservation
	index   map[string]int
	newID   func() string
}

// NewRegistry creates an empty registry enforcing rules
func NewRegistry(rules Rules) *Registry {
	return &Registry{
		rules: rules,
		index: make(map[string]int),
		newID: uuid.NewString,
	}
}

// Rules returns the rule set of the registry
func (r *Registry) Rules() Rules {
	return r.rules
}

// Len returns the number of stored reservations
func (r *Registry) Len() int {
	return len(r.records)
}

// List returns a copy of all reservations in insertion order
func (r *Registry) List() []Reservation {
	out := make([]Reservation, len(r.records))
	copy(out, r.records)
	return out
}

// Reset replaces the contents of the registry. Records without an ID get a
// generated one. Records are not re-admitted.
func (r *Registry) Reset(records []Reservation) {
	r.records = make([]Reservation, len(records))
	copy(r.records, records)
	for i := range r.records {
		if r.records[i].ID == "" {
			r.records[i].ID = r.newID()
		}
	}
	r.reindex()
}

// Position returns the current position of the reservation with the given ID
func (r *Registry) Position(id string) (int, bool) {
	pos, ok := r.index[id]
	return pos, ok
}

// Insert admits the candidate and appends it
func (r *Registry) Insert(c Candidate) (Reservation, error) {
	res, err := r.admit("insert", c, -1)
	if err != nil {
		return Reservation{}, err
	}

	res.ID = r.newID()
	r.records = append(r.records, res)
	r.index[res.ID] = len(r.records) - 1
	return res, nil
}

// Update admits the candidate and replaces the reservation at pos, keeping
// its ID. Rule violations are reported before an invalid position.
func (r *Registry) Update(pos int, c Candidate) (Reservation, error) {
	res, err := r.check("update", c)
	if err != nil {
		return Reservation{}, err
	}
	if !r.inBounds(pos) {
		return Reservation{}, notFoundError("update")
	}
	if r.taken(res, pos) {
		return Reservation{}, conflictError("update")
	}

	res.ID = r.records[pos].ID
	r.records[pos] = res
	return res, nil
}

// Rejected is a stored record that Load refused
type Rejected struct {
	Record Reservation
	Err    error
}

// Load replaces the contents of the registry with stored records, admitting
// each one in order. Records that break a rule or repeat an earlier
// (date, type) slot are left out and returned. Missing or repeated IDs are
// replaced with fresh ones.
func (r *Registry) Load(records []Reservation) []Rejected {
	r.records = make([]Reservation, 0, len(records))
	clear(r.index)

	var rejected []Rejected
	for _, rec := range records {
		res, err := r.admit("load", Candidate{Name: rec.Name, Date: rec.Date, Type: rec.Type}, -1)
		if err != nil {
			rejected = append(rejected, Rejected{Record: rec, Err: err})
			continue
		}

		res.ID = rec.ID
		if _, dup := r.index[res.ID]; res.ID == "" || dup {
			res.ID = r.newID()
		}
		r.records = append(r.records, res)
		r.index[res.ID] = len(r.records) - 1
	}
	return rejected
}

// Delete removes the reservation at pos
func (r *Registry) Delete(pos int) (Reservation, error) {
	if !r.inBounds(pos) {
		return Reservation{}, notFoundError("delete")
	}

	removed := r.records[pos]
	r.records = slices.Delete(r.records, pos, pos+1)
	r.reindex()
	return removed, nil
}

func (r *Registry) inBounds(pos int) bool {
	return pos >= 0 && pos < len(r.records)
}

func (r *Registry) reindex() {
	clear(r.index)
	for i, rec := range r.records {
		r.index[rec.ID] = i
	}
}

// admit checks the candidate in order: weekday, route type, name, uniqueness.
// exclude is the position ignored by the uniqueness scan (-1 for none).
func (r *Registry) admit(op string, c Candidate, exclude int) (Reservation, error) {
	res, err := r.check(op, c)
	if err != nil {
		return Reservation{}, err
	}
	if r.taken(res, exclude) {
		return Reservation{}, conflictError(op)
	}
	return res, nil
}

// check applies the per-record rules and returns the normalized reservation
func (r *Registry) check(op string, c Candidate) (Reservation, error) {
	date, err := ParseCivilDate(strings.TrimSpace(c.Date))
	if err != nil {
		return Reservation{}, validationError(op, ErrInvalidDateFormat)
	}
	if date.Weekday() != r.rules.Weekday {
		return Reservation{}, validationError(op, fmt.Sprintf(ErrWrongWeekday, r.rules.Weekday))
	}

	if !slices.Contains(r.rules.RouteTypes, c.Type) {
		return Reservation{}, validationError(op, fmt.Sprintf(ErrUnknownRouteType, strings.Join(r.rules.RouteTypes, ", ")))
	}

	name := SanitizeName(c.Name)
	if !validName(name) {
		return Reservation{}, validationError(op, fmt.Sprintf(ErrInvalidName, MaxNameLength))
	}

	return Reservation{Name: name, Date: date.String(), Type: c.Type}, nil
}

// taken reports whether another record than the one at exclude holds the slot
func (r *Registry) taken(res Reservation, exclude int) bool {
	for i, existing := range r.records {
		if i != exclude && existing.key() == res.key() {
			return true
		}
	}
	return false
}
