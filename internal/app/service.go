package app

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Ref addresses a reservation either by position or by ID
type Ref struct {
	Position int
	ID       string
}

// ParseRef parses a path segment holding a decimal position (digits only,
// no sign) or a UUID
func ParseRef(s string) (Ref, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, false
	}
	if pos, err := parseDigits(s); err == nil {
		return Ref{Position: pos}, true
	}
	if id, err := uuid.Parse(s); err == nil {
		return Ref{ID: id.String()}, true
	}
	return Ref{}, false
}

func (r Ref) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Position)
}

// Service owns the registry, store and broadcaster of one server instance.
// Every mutation is admitted, saved and broadcast while holding mu.
type Service struct {
	mu          sync.Mutex
	registry    *Registry
	store       *Store
	broadcaster *Broadcaster
	log         *slog.Logger
}

// NewService loads the store into a new registry. Stored records that no
// longer satisfy rules are dropped and disappear from the file on the next
// save.
func NewService(rules Rules, store *Store, broadcaster *Broadcaster, logger *slog.Logger) *Service {
	registry := NewRegistry(rules)
	for _, rej := range registry.Load(store.Load()) {
		logger.Warn("stored reservation rejected, dropping it",
			"path", store.Path(),
			"id", rej.Record.ID,
			"date", rej.Record.Date,
			"type", rej.Record.Type,
			"error", rej.Err)
	}

	return &Service{
		registry:    registry,
		store:       store,
		broadcaster: broadcaster,
		log:         logger,
	}
}

// Rules returns the admissibility rules in effect
func (s *Service) Rules() Rules {
	return s.registry.Rules()
}

// Broadcaster returns the broadcaster notified on every change
func (s *Service) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// List returns all reservations
func (s *Service) List() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.List()
}

// Create admits and stores a new reservation
func (s *Service) Create(c Candidate) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.registry.List()
	res, err := s.registry.Insert(c)
	if err != nil {
		return Reservation{}, err
	}
	if err := s.commit(before); err != nil {
		return Reservation{}, err
	}

	s.log.Info("reservation created", "id", res.ID, "date", res.Date, "type", res.Type)
	return res, nil
}

// Update replaces the reservation addressed by ref
func (s *Service) Update(ref Ref, c Candidate) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.resolve("update", ref)
	if err != nil {
		return Reservation{}, err
	}

	before := s.registry.List()
	res, err := s.registry.Update(pos, c)
	if err != nil {
		return Reservation{}, err
	}
	if err := s.commit(before); err != nil {
		return Reservation{}, err
	}

	s.log.Info("reservation updated", "id", res.ID, "position", pos, "date", res.Date, "type", res.Type)
	return res, nil
}

// Delete removes the reservation addressed by ref
func (s *Service) Delete(ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.resolve("delete", ref)
	if err != nil {
		s.log.Info("delete rejected", "ref", ref.String(), "reservations", s.registry.Len())
		return err
	}

	before := s.registry.List()
	removed, err := s.registry.Delete(pos)
	if err != nil {
		return err
	}
	if err := s.commit(before); err != nil {
		return err
	}

	s.log.Info("reservation deleted", "id", removed.ID, "position", pos)
	return nil
}

func (s *Service) resolve(op string, ref Ref) (int, error) {
	if ref.ID == "" {
		return ref.Position, nil
	}
	pos, ok := s.registry.Position(ref.ID)
	if !ok {
		return 0, notFoundError(op)
	}
	return pos, nil
}

// commit saves the registry and notifies subscribers. On save failure the
// registry is restored to before.
func (s *Service) commit(before []Reservation) error {
	current := s.registry.List()
	if err := s.store.Save(current); err != nil {
		s.registry.Reset(before)
		s.log.Error("failed to save reservations, change rolled back", "error", err)
		return err
	}

	if err := s.broadcaster.NotifyAll(current); err != nil {
		s.log.Error("failed to broadcast reservations", "error", err)
	}
	return nil
}
