package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Store persists the full reservation list in a single JSON file
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore creates a store backed by the file at path
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, log: logger}
}

// Path returns the data file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the reservations from the data file. A missing or unreadable
// file yields an empty list.
func (s *Store) Load() []Reservation {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Info("data file not found, starting empty", "path", s.path)
		} else {
			s.log.Warn("failed to open data file, starting empty", "path", s.path, "error", err)
		}
		return []Reservation{}
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.log.Warn("failed to close data file", "path", s.path, "error", err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		s.log.Warn("failed to read data file, starting empty", "path", s.path, "error", err)
		return []Reservation{}
	}

	var records []Reservation
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn("failed to parse data file, starting empty", "path", s.path, "error", err)
		return []Reservation{}
	}
	if records == nil {
		records = []Reservation{}
	}

	s.log.Info("reservations loaded", "path", s.path, "count", len(records))
	return records
}

// Save writes all reservations to a temp file in the data directory and
// renames it over the data file.
func (s *Store) Save(records []Reservation) error {
	if records == nil {
		records = []Reservation{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return s.writeError("marshal", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, TmpPattern)
	if err != nil {
		return s.writeError("create temp file", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("failed to remove temp file", "path", tmpName, "error", err)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return s.writeError("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return s.writeError("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return s.writeError("close temp file", err)
	}
	if err := os.Chmod(tmpName, FilePermissions); err != nil {
		cleanup()
		return s.writeError("chmod temp file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return s.writeError("rename temp file", err)
	}

	s.log.Debug("reservations saved", "path", s.path, "count", len(records))
	return nil
}

func (s *Store) writeError(step string, err error) error {
	return &ReservationError{
		Op:      "save",
		Kind:    KindPersistence,
		Message: ErrFailedToSave,
		Err:     fmt.Errorf("%s %s: %w", step, s.path, err),
	}
}
