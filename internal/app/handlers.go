package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// HandleReservations lists (GET) or creates (POST) reservations
func (s *Server) HandleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.log, http.StatusOK, s.svc.List())
	case http.MethodPost:
		c, ok := s.decodeCandidate(w, r)
		if !ok {
			return
		}
		res, err := s.svc.Create(c)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, s.log, http.StatusCreated, res)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleReservation updates (PUT) or deletes (DELETE) one reservation
// URL: /reservations/{position or id}
func (s *Server) HandleReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodDelete {
		w.Header().Set("Allow", "PUT, DELETE")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ref, ok := ParseRef(r.URL.Path[len("/reservations/"):])
	if !ok {
		writeError(w, s.log, http.StatusNotFound, ErrReservationNotFound)
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.svc.Delete(ref); err != nil {
			s.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	c, ok := s.decodeCandidate(w, r)
	if !ok {
		return
	}
	res, err := s.svc.Update(ref, c)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, s.log, http.StatusOK, res)
}

func (s *Server) decodeCandidate(w http.ResponseWriter, r *http.Request) (Candidate, bool) {
	var c Candidate
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&c); err != nil {
		writeError(w, s.log, http.StatusBadRequest, ErrInvalidBody)
		return Candidate{}, false
	}
	return c, true
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeError(w, s.log, status, PublicMessage(err))
}

// HandleEvents streams every change as a Server-Sent Event. No snapshot is
// sent on connect.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, ErrStreamingUnsupported, http.StatusInternalServerError)
		return
	}

	// Registered before the headers go out, so a client that has seen the
	// response misses no change
	broadcaster := s.svc.Broadcaster()
	sub := broadcaster.Subscribe("sse")
	defer broadcaster.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, ok := <-sub.C:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				s.log.Debug("event stream write failed", "id", sub.ID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// HandleWebSocket streams every change as a text frame. Incoming frames are
// read only to detect disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	broadcaster := s.svc.Broadcaster()
	sub := broadcaster.Subscribe("websocket")
	defer broadcaster.Unsubscribe(sub)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		s.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case payload, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.log.Debug("websocket write failed", "id", sub.ID, "error", err)
				return
			}
		}
	}
}

// HandleAdminLogin checks the submitted admin password
func (s *Server) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	body := http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, s.log, http.StatusBadRequest, ErrInvalidBody)
		return
	}

	ok, err := s.secret.Verify(req.Password)
	if err != nil {
		s.log.Error("failed to verify admin secret", "error", err)
	}
	if !ok {
		s.log.Warn("failed admin login", "remote", r.RemoteAddr)
		writeError(w, s.log, http.StatusUnauthorized, ErrWrongPassword)
		return
	}

	writeJSON(w, s.log, http.StatusOK, map[string]bool{"success": true})
}

// HandleDownload exports reservations as ICS, CSV or JSON
// Query params: format (ics|csv|json), type (optional route type filter)
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	reservations := s.svc.List()

	if typeFilter := r.URL.Query().Get("type"); typeFilter != "" {
		wanted := make(map[string]bool)
		for _, t := range strings.Split(typeFilter, ",") {
			wanted[strings.TrimSpace(t)] = true
		}
		filtered := reservations[:0]
		for _, res := range reservations {
			if wanted[res.Type] {
				filtered = append(filtered, res)
			}
		}
		reservations = filtered
	}
	SortByDate(reservations)

	var err error
	switch r.URL.Query().Get("format") {
	case "ics":
		GenerateICS(w, r, reservations)
	case "csv":
		err = GenerateCSV(w, reservations)
	case "json":
		err = GenerateJSON(w, s.svc.Rules(), reservations)
	default:
		writeError(w, s.log, http.StatusBadRequest, ErrInvalidFormat)
		return
	}
	if err != nil {
		s.log.Error("failed to write export", "error", err)
	}
}

// HandleConfig returns the reservation rules for clients, plus the public
// holidays falling on the reservation weekday
// Query param: year (optional, defaults to current year)
func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	year := time.Now().Year()
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		var err error
		year, err = strconv.Atoi(yearStr)
		if err != nil || year < 1 || year > 9999 {
			writeError(w, s.log, http.StatusBadRequest, ErrInvalidYear)
			return
		}
	}

	rules := s.svc.Rules()
	writeJSON(w, s.log, http.StatusOK, map[string]interface{}{
		"weekday":       strings.ToLower(rules.Weekday.String()),
		"routeTypes":    rules.RouteTypes,
		"maxNameLength": MaxNameLength,
		"adminEnabled":  s.secret.Configured(),
		"year":          year,
		"holidays":      HolidaysOn(year, rules.Weekday),
	})
}

// HandleHealth reports liveness and basic counters
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, s.log, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"reservations": len(s.svc.List()),
		"subscribers":  s.svc.Broadcaster().Count(),
	})
}
