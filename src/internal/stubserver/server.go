// Package stubserver is an in-memory reference backend implementing the
// REST contracts the client consumes. It backs the package tests and the
// demo binary, and enforces the server-side rules the client only
// pre-checks: capacity, cutoff date and one registration per viewer per
// event.
package stubserver

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"eventora/src/internal/authz"
	"eventora/src/internal/core"
	"eventora/src/pkg/response"
)

// DefaultEventTypes is the category set the stub serves.
var DefaultEventTypes = []core.EventTypeOption{
	{Value: 0, Label: "Conference"},
	{Value: 1, Label: "Workshop"},
	{Value: 2, Label: "Seminar"},
	{Value: 3, Label: "Networking"},
	{Value: 4, Label: "Social"},
}

type Server struct {
	now func() time.Time

	mu            sync.Mutex
	events        map[string]core.Event
	registrations map[string]core.Registration
	images        map[string][]byte
	types         []core.EventTypeOption
}

func New() *Server {
	return &Server{
		now:           time.Now,
		events:        make(map[string]core.Event),
		registrations: make(map[string]core.Registration),
		images:        make(map[string][]byte),
		types:         DefaultEventTypes,
	}
}

// SetNow overrides the clock, for tests.
func (s *Server) SetNow(now func() time.Time) { s.now = now }

// AddEvent seeds an event and returns its id.
func (s *Server) AddEvent(e core.Event) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.events[e.ID] = e
	return e.ID
}

// Router builds the HTTP surface. Every route requires a bearer token;
// admin-only routes additionally require the Admin role.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authenticate)

	r.Route("/events", func(r chi.Router) {
		r.Get("/filtered", s.filteredEvents)
		r.Get("/event-types", s.eventTypes)
		r.With(requireRole(authz.RoleAdmin)).Post("/", s.createEvent)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getEvent)
			r.With(requireRole(authz.RoleAdmin)).Put("/", s.updateEvent)
			r.With(requireRole(authz.RoleAdmin)).Delete("/", s.deleteEvent)
			r.With(requireRole(authz.RoleAdmin)).Post("/upload-image", s.uploadImage)
			r.With(requireRole(authz.RoleAdmin)).Get("/registrations", s.eventRegistrations)
		})
	})
	r.Route("/registrations", func(r chi.Router) {
		r.With(requireRole(authz.RolePublicUser)).Post("/", s.register)
		r.With(requireRole(authz.RolePublicUser)).Delete("/{id}", s.cancelRegistration)
	})
	r.With(requireRole(authz.RolePublicUser)).Get("/user/registrations", s.userRegistrations)

	return r
}

// registeredCount counts registrations for one event. Callers hold s.mu.
func (s *Server) registeredCount(eventID string) int {
	count := 0
	for _, reg := range s.registrations {
		if reg.EventID == eventID {
			count++
		}
	}
	return count
}

// withRemaining fills the derived remainingSpots field. Callers hold s.mu.
func (s *Server) withRemaining(e core.Event) core.Event {
	e.RemainingSpots = e.Capacity - s.registeredCount(e.ID)
	return e
}

func (s *Server) filteredEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 6
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var matched []core.Event
	for _, e := range s.events {
		if !s.matches(e, q, now) {
			continue
		}
		matched = append(matched, s.withRemaining(e))
	}
	// Stable ordering so pages are deterministic.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].EventDate.Equal(matched[j].EventDate) {
			return matched[i].EventDate.Before(matched[j].EventDate)
		}
		return matched[i].Title < matched[j].Title
	})

	totalPages := (len(matched) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	items := matched[start:end]
	if items == nil {
		items = []core.Event{}
	}
	response.WriteJSON(w, http.StatusOK, core.EventPage{Items: items, TotalPages: totalPages})
}

func (s *Server) matches(e core.Event, q map[string][]string, now time.Time) bool {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	if search := get("search"); search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) {
			return false
		}
	}
	if category := get("category"); category != "" {
		if strconv.Itoa(e.Type) != category {
			return false
		}
	}
	if location := get("location"); location != "" {
		if !strings.Contains(strings.ToLower(e.Location), strings.ToLower(location)) {
			return false
		}
	}
	if from := get("dateFrom"); from != "" {
		if d, err := time.ParseInLocation("2006-01-02", from, now.Location()); err == nil && e.EventDate.Before(d) {
			return false
		}
	}
	if to := get("dateTo"); to != "" {
		if d, err := time.ParseInLocation("2006-01-02", to, now.Location()); err == nil && e.EventDate.After(d) {
			return false
		}
	}
	if status := get("status"); status != "" {
		if string(core.ClassifyStatus(e.EventDate, e.EventTime, now)) != status {
			return false
		}
	}
	return true
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		response.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, s.withRemaining(e))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NewEventDto core.EventFormData `json:"newEventDto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	form := body.NewEventDto
	if form.Capacity < 1 {
		response.WriteError(w, http.StatusBadRequest, "Capacity must be at least 1")
		return
	}
	if !form.CutoffDate.Before(form.EventDate) {
		response.WriteError(w, http.StatusBadRequest, "Cutoff date must be before the event date")
		return
	}

	e := core.Event{
		ID:            uuid.NewString(),
		Title:         form.Title,
		Description:   form.Description,
		Location:      form.Location,
		Organizer:     form.Organization,
		Type:          form.Type,
		Capacity:      form.Capacity,
		EventDate:     form.EventDate,
		EventTime:     form.EventTime,
		CutoffDate:    form.CutoffDate,
		EventImageURL: form.ImageURL,
	}

	s.mu.Lock()
	s.events[e.ID] = e
	s.mu.Unlock()
	response.WriteJSON(w, http.StatusCreated, map[string]string{"id": e.ID})
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		UpdateEventDto core.EventFormData `json:"updateEventDto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	form := body.UpdateEventDto

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		response.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	// Full replace, not patch.
	e.Title = form.Title
	e.Description = form.Description
	e.Location = form.Location
	e.Organizer = form.Organization
	e.Type = form.Type
	e.Capacity = form.Capacity
	e.EventDate = form.EventDate
	e.EventTime = form.EventTime
	e.CutoffDate = form.CutoffDate
	if form.ImageURL != "" {
		e.EventImageURL = form.ImageURL
	}
	s.events[id] = e
	response.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		response.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	delete(s.events, id)
	for regID, reg := range s.registrations {
		if reg.EventID == id {
			delete(s.registrations, regID)
		}
	}
	response.WriteJSON(w, http.StatusNoContent, nil)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, _, err := r.FormFile("file")
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "Unreadable file")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		response.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	s.images[id] = data
	e.EventImageURL = "/events/" + id + "/event-image"
	s.events[id] = e
	response.WriteJSON(w, http.StatusOK, nil)
}

func (s *Server) eventTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	types := append([]core.EventTypeOption(nil), s.types...)
	s.mu.Unlock()
	response.WriteJSON(w, http.StatusOK, map[string][]core.EventTypeOption{"value": types})
}

func (s *Server) eventRegistrations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		response.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	regs := []core.Registration{}
	for _, reg := range s.registrations {
		if reg.EventID == id {
			regs = append(regs, reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].RegisteredAt.Before(regs[j].RegisteredAt) })
	response.WriteJSON(w, http.StatusOK, regs)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	subject := subjectFrom(r)
	var body struct {
		NewRegistrationDto core.Registration `json:"newRegistrationDto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	reg := body.NewRegistrationDto

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[reg.EventID]
	if !ok {
		response.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	now := s.now()
	if !core.RegistrationOpen(e.CutoffDate, now) {
		response.WriteError(w, http.StatusConflict, "Registration for this event has closed")
		return
	}
	if s.registeredCount(e.ID) >= e.Capacity {
		response.WriteError(w, http.StatusConflict, "Event is at capacity")
		return
	}
	for _, existing := range s.registrations {
		if existing.EventID == reg.EventID && existing.PublicUserID == subject {
			response.WriteError(w, http.StatusConflict, "Already registered for this event")
			return
		}
	}

	reg.ID = uuid.NewString()
	reg.PublicUserID = subject
	reg.RegisteredAt = now
	s.registrations[reg.ID] = reg
	response.WriteJSON(w, http.StatusCreated, reg)
}

func (s *Server) cancelRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registrations[id]; !ok {
		response.WriteError(w, http.StatusNotFound, "Registration not found")
		return
	}
	delete(s.registrations, id)
	response.WriteJSON(w, http.StatusNoContent, nil)
}

func (s *Server) userRegistrations(w http.ResponseWriter, r *http.Request) {
	subject := subjectFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	regs := []core.Registration{}
	for _, reg := range s.registrations {
		if reg.PublicUserID == subject {
			regs = append(regs, reg)
		}
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].RegisteredAt.Before(regs[j].RegisteredAt) })
	response.WriteJSON(w, http.StatusOK, regs)
}
