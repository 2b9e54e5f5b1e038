// Package registration reconciles the viewer's registration set with the
// backend. One shared cache serves every view that needs membership checks
// (event details, my-registrations); it is invalidated by the register and
// cancel events themselves, never by a timer.
package registration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventora/src/internal/authz"
	"eventora/src/internal/core"
	"eventora/src/internal/session"
	"eventora/src/internal/validation"
	"eventora/src/pkg/apperror"
)

// Service mediates registration state between views and the backend.
type Service struct {
	api     core.RegistrationAPI
	events  core.EventAPI
	session session.Session
	now     func() time.Time

	mu     sync.Mutex
	loaded bool
	regs   []core.Registration
}

func NewService(api core.RegistrationAPI, events core.EventAPI, sess session.Session) *Service {
	return &Service{
		api:     api,
		events:  events,
		session: sess,
		now:     time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// Refresh re-fetches the viewer's registration set, replacing the cache.
func (s *Service) Refresh(ctx context.Context) error {
	regs, err := s.api.UserRegistrations(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.regs = regs
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Invalidate drops the cache so the next read re-fetches.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.regs = nil
	s.mu.Unlock()
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

// Registrations returns the viewer's registration set.
func (s *Service) Registrations(ctx context.Context) ([]core.Registration, error) {
	if !authz.CanPerform(authz.ActionViewOwnRegistrations, s.roles()) {
		return nil, apperror.Wrap(apperror.ErrAuth, "viewing registrations requires the Public User role")
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Registration(nil), s.regs...), nil
}

// IsRegistered reports whether the viewer holds a registration for the
// event, by exact eventId match against the cached set.
func (s *Service) IsRegistered(ctx context.Context, eventID string) (bool, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) roles() []string {
	claims, err := s.session.Claims()
	if err != nil {
		return nil
	}
	return claims.Roles
}

// Register submits a registration for the event. The cutoff and membership
// checks here are soft pre-checks; the backend enforces them
// authoritatively. On success the returned registration joins the cache;
// on failure local state is untouched. A conflict from the backend means
// the cache has drifted, so it is refreshed instead of trusted.
func (s *Service) Register(ctx context.Context, eventID string, form core.Registration) (*core.Registration, error) {
	claims, err := s.session.Claims()
	if err != nil {
		return nil, err
	}
	if !authz.CanPerform(authz.ActionRegister, claims.Roles) {
		return nil, apperror.Wrap(apperror.ErrAuth, "registering requires the Public User role")
	}

	registered, err := s.IsRegistered(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if registered {
		return nil, apperror.ErrAlreadyRegistered
	}

	event, err := s.events.EventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !core.RegistrationOpen(event.CutoffDate, s.now()) {
		return nil, apperror.Wrap(apperror.ErrConflict, "Registration for this event has closed")
	}

	form.EventID = eventID
	form.PublicUserID = claims.Subject
	form.RegisteredAt = s.now()
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	if fe := validation.ValidateRegistration(form); len(fe) > 0 {
		return nil, fe
	}

	created, err := s.api.Register(ctx, form)
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyRegistered) {
			// The local set missed a registration made elsewhere.
			if refreshErr := s.Refresh(ctx); refreshErr == nil {
				return nil, apperror.ErrAlreadyRegistered
			}
		}
		return nil, err
	}

	s.mu.Lock()
	if s.loaded {
		s.regs = append(s.regs, *created)
	}
	s.mu.Unlock()
	return created, nil
}

// Cancel removes the registration after server confirmation. There is no
// optimistic removal and no automatic retry: on failure the cache is
// unchanged and the caller re-attempts.
func (s *Service) Cancel(ctx context.Context, registrationID string) error {
	if !authz.CanPerform(authz.ActionCancel, s.roles()) {
		return apperror.Wrap(apperror.ErrAuth, "cancelling requires the Public User role")
	}
	if err := s.api.CancelRegistration(ctx, registrationID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, reg := range s.regs {
		if reg.ID == registrationID {
			s.regs = append(s.regs[:i], s.regs[i+1:]...)
			break
		}
	}
	return nil
}

// EventRegistrants lists everyone registered for an event. Admin only.
func (s *Service) EventRegistrants(ctx context.Context, eventID string) ([]core.Registration, error) {
	if !authz.CanPerform(authz.ActionViewRegistrants, s.roles()) {
		return nil, apperror.Wrap(apperror.ErrAuth, "viewing registrants requires the Admin role")
	}
	return s.events.EventRegistrations(ctx, eventID)
}
