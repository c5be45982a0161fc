package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

// writeError sends {"error": msg}
func writeError(w http.ResponseWriter, log *slog.Logger, status int, msg string) {
	writeJSON(w, log, status, map[string]string{"error": msg})
}

// statusFor maps a reservation error to an HTTP status
func statusFor(err error) int {
	switch {
	case IsKind(err, KindValidation), IsKind(err, KindConflict):
		return http.StatusBadRequest
	case IsKind(err, KindNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// SortByDate sorts reservations by date, then route type
func SortByDate(reservations []Reservation) {
	sort.SliceStable(reservations, func(i, j int) bool {
		if reservations[i].Date != reservations[j].Date {
			return reservations[i].Date < reservations[j].Date
		}
		return reservations[i].Type < reservations[j].Type
	})
}
