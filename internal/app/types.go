package app

// Reservation represents a single route reservation on the reservation weekday
type Reservation struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"`
	Type string `json:"type"`
}

// Candidate is a requested reservation before admission
type Candidate struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Type string `json:"type"`
}

// key returns the uniqueness key of a reservation
func (r Reservation) key() slotKey {
	return slotKey{date: r.Date, routeType: r.Type}
}

type slotKey struct {
	date      string
	routeType string
}
