// Package event implements the query/filter engine over the backend event
// listing, plus the admin lifecycle operations (create, update, delete,
// image upload). The engine is a small state machine: Idle -> Loading ->
// {Loaded | Failed}; every issued query carries a monotonic sequence number
// and stale responses are discarded rather than applied.
package event

import (
	"context"
	"io"
	"sync"
	"time"

	"eventora/src/internal/authz"
	"eventora/src/internal/core"
	"eventora/src/internal/session"
	"eventora/src/internal/validation"
	"eventora/src/pkg/apperror"
)

// State is the engine's position in the query lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// EventView is a display-ready event: the raw record plus everything the
// classifier, availability calculator and authorization table derive.
type EventView struct {
	core.Event
	Status           core.EventStatus
	Availability     core.Availability
	Band             core.CapacityBand
	RegistrationOpen bool
	Actions          []authz.Action
}

// Snapshot is a point-in-time copy of the engine state for rendering.
type Snapshot struct {
	State      State
	Items      []EventView
	Page       int
	TotalPages int
	Filters    core.FilterOptions
	Err        error
}

// Service is the query/filter engine.
type Service struct {
	api     core.EventAPI
	session session.Session
	now     func() time.Time

	pageSize int

	mu         sync.Mutex
	state      State
	page       int
	totalPages int
	filters    core.FilterOptions
	items      []EventView
	err        error
	seq        uint64
	cancel     context.CancelFunc
	closed     bool
	types      []core.EventTypeOption
}

func NewService(api core.EventAPI, sess session.Session, pageSize int) *Service {
	if pageSize < 1 {
		pageSize = 6
	}
	return &Service{
		api:        api,
		session:    sess,
		now:        time.Now,
		pageSize:   pageSize,
		state:      StateIdle,
		page:       1,
		totalPages: 1,
	}
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

func (s *Service) roles() []string {
	claims, err := s.session.Claims()
	if err != nil {
		return nil
	}
	return claims.Roles
}

func (s *Service) buildView(e core.Event, roles []string, now time.Time) EventView {
	view := EventView{
		Event:            e,
		Status:           core.ClassifyStatus(e.EventDate, e.EventTime, now),
		RegistrationOpen: core.RegistrationOpen(e.CutoffDate, now),
		Actions:          authz.PermittedActions(roles),
	}
	if avail, err := core.ComputeAvailability(e.Capacity, e.RemainingSpots); err == nil {
		view.Availability = avail
		view.Band = avail.Band()
	}
	return view
}

// Refresh issues the query for the current page and filters. An in-flight
// query is superseded: its context is cancelled and its result, should it
// still arrive, is discarded by the sequence check.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperror.Wrap(apperror.ErrUnknown, "engine closed")
	}
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.state = StateLoading
	page, pageSize, filters := s.page, s.pageSize, s.filters
	s.mu.Unlock()

	result, err := s.api.FilteredEvents(ctx, page, pageSize, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq {
		// A newer query owns the state now.
		return nil
	}
	if err != nil {
		// Failure clears prior results instead of showing stale data next
		// to the error. The page is kept so a retry lands where the viewer
		// was; the post-success clamp corrects it if the result set shrank.
		s.state = StateFailed
		s.items = nil
		s.totalPages = 1
		s.err = err
		return err
	}

	now := s.now()
	roles := s.roles()
	views := make([]EventView, 0, len(result.Items))
	for _, e := range result.Items {
		views = append(views, s.buildView(e, roles, now))
	}

	s.state = StateLoaded
	s.err = nil
	s.items = views
	s.totalPages = result.TotalPages
	if s.totalPages < 1 {
		s.totalPages = 1
	}
	if s.page > s.totalPages {
		s.page = s.totalPages
	}
	return nil
}

// SetPage moves to the given page, clamped to [1, totalPages], and
// re-queries.
func (s *Service) SetPage(ctx context.Context, page int) error {
	s.mu.Lock()
	if page < 1 {
		page = 1
	}
	if page > s.totalPages {
		page = s.totalPages
	}
	s.page = page
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *Service) NextPage(ctx context.Context) error {
	s.mu.Lock()
	page := s.page + 1
	s.mu.Unlock()
	return s.SetPage(ctx, page)
}

func (s *Service) PrevPage(ctx context.Context) error {
	s.mu.Lock()
	page := s.page - 1
	s.mu.Unlock()
	return s.SetPage(ctx, page)
}

// CanPrev reports whether a previous page exists; the control is disabled
// at the boundary.
func (s *Service) CanPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page > 1
}

// CanNext reports whether a next page exists.
func (s *Service) CanNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page < s.totalPages
}

// ApplyFilters installs a new filter state, resets to page 1 and
// re-queries. Changing filters must never silently show a deep page of a
// now-different result set.
func (s *Service) ApplyFilters(ctx context.Context, filters core.FilterOptions) error {
	s.mu.Lock()
	s.filters = filters
	s.page = 1
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// ClearFilters resets every filter field and the search term to their
// empty defaults, resets to page 1 and re-queries.
func (s *Service) ClearFilters(ctx context.Context) error {
	return s.ApplyFilters(ctx, core.FilterOptions{})
}

// Snapshot returns a copy of the current engine state.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:      s.state,
		Items:      append([]EventView(nil), s.items...),
		Page:       s.page,
		TotalPages: s.totalPages,
		Filters:    s.filters,
		Err:        s.err,
	}
}

// Close cancels any in-flight query and stops all further state updates,
// the unmount path of the view this engine backs.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.closed = true
}

// EventTypes returns the backend's category set, fetched once and cached.
func (s *Service) EventTypes(ctx context.Context) ([]core.EventTypeOption, error) {
	s.mu.Lock()
	if s.types != nil {
		types := append([]core.EventTypeOption(nil), s.types...)
		s.mu.Unlock()
		return types, nil
	}
	s.mu.Unlock()

	types, err := s.api.EventTypes(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.types = types
	s.mu.Unlock()
	return append([]core.EventTypeOption(nil), types...), nil
}

// InvalidateTypes drops the cached category set so the next read
// re-fetches it, for sessions that outlive backend category changes.
func (s *Service) InvalidateTypes() {
	s.mu.Lock()
	s.types = nil
	s.mu.Unlock()
}

// GetEvent fetches one event and wraps it as a view model.
func (s *Service) GetEvent(ctx context.Context, id string) (*EventView, error) {
	e, err := s.api.EventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.buildView(*e, s.roles(), s.now())
	return &view, nil
}

// CreateEvent validates the form and submits it. Admin only.
func (s *Service) CreateEvent(ctx context.Context, form core.EventFormData) (string, error) {
	if !authz.CanPerform(authz.ActionCreate, s.roles()) {
		return "", apperror.Wrap(apperror.ErrAuth, "creating events requires the Admin role")
	}
	types, err := s.EventTypes(ctx)
	if err != nil {
		return "", err
	}
	if fe := validation.ValidateEventForm(form, types, s.now()); len(fe) > 0 {
		return "", fe
	}
	return s.api.CreateEvent(ctx, form)
}

// UpdateEvent validates the form and replaces the stored event wholesale.
// Admin only.
func (s *Service) UpdateEvent(ctx context.Context, id string, form core.EventFormData) (string, error) {
	if !authz.CanPerform(authz.ActionUpdate, s.roles()) {
		return "", apperror.Wrap(apperror.ErrAuth, "updating events requires the Admin role")
	}
	types, err := s.EventTypes(ctx)
	if err != nil {
		return "", err
	}
	if fe := validation.ValidateEventForm(form, types, s.now()); len(fe) > 0 {
		return "", fe
	}
	return s.api.UpdateEvent(ctx, id, form)
}

// DeleteEvent removes an event. Hard removal, delegated to the backend.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if !authz.CanPerform(authz.ActionDelete, s.roles()) {
		return apperror.Wrap(apperror.ErrAuth, "deleting events requires the Admin role")
	}
	return s.api.DeleteEvent(ctx, id)
}

// UploadImage attaches an image to an event. Admin only.
func (s *Service) UploadImage(ctx context.Context, id, filename string, file io.Reader) error {
	if !authz.CanPerform(authz.ActionUpdate, s.roles()) {
		return apperror.Wrap(apperror.ErrAuth, "updating events requires the Admin role")
	}
	return s.api.UploadEventImage(ctx, id, filename, file)
}
