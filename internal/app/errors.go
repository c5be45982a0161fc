package app

import (
	"errors"
)

// ErrorKind is a coarse-grained categorization for reservation errors
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindConflict    ErrorKind = "conflict"
	KindNotFound    ErrorKind = "not_found"
	KindPersistence ErrorKind = "persistence"
)

// ReservationError carries a human-readable message for API clients plus the
// operation and kind for logging and status mapping.
type ReservationError struct {
	Op      string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ReservationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ReservationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is a ReservationError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var re *ReservationError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

// PublicMessage returns the message safe to send to clients
func PublicMessage(err error) string {
	var re *ReservationError
	if errors.As(err, &re) {
		if re.Kind == KindPersistence {
			return ErrFailedToSave
		}
		return re.Message
	}
	return ErrInternalServer
}

func validationError(op, msg string) error {
	return &ReservationError{Op: op, Kind: KindValidation, Message: msg}
}

func conflictError(op string) error {
	return &ReservationError{Op: op, Kind: KindConflict, Message: ErrSlotTaken}
}

func notFoundError(op string) error {
	return &ReservationError{Op: op, Kind: KindNotFound, Message: ErrReservationNotFound}
}
