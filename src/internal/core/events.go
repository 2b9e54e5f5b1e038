package core

import (
	"context"
	"io"
	"time"
)

// Event represents an event as returned by the backend. RemainingSpots is
// derived server-side and trusted as authoritative; the client never
// recomputes it from a possibly-partial registration list.
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location"`
	Organizer      string    `json:"organizer"`
	Type           int       `json:"type"`
	Capacity       int       `json:"capacity"`
	EventDate      time.Time `json:"eventDate"`  // calendar date
	EventTime      string    `json:"eventTime"`  // HH:MM, local
	CutoffDate     time.Time `json:"cutoffDate"` // registration deadline
	EventImageURL  string    `json:"eventImageUrl,omitempty"`
	RemainingSpots int       `json:"remainingSpots"`
}

// EventFormData is the payload for creating or updating an event. Updates
// use full-replace semantics, not patch.
type EventFormData struct {
	Title        string    `json:"title" validate:"required,min=3"`
	Description  string    `json:"description" validate:"required,min=10"`
	Location     string    `json:"location" validate:"required,min=3"`
	Organization string    `json:"organization" validate:"required,min=3"`
	Type         int       `json:"type"`
	Capacity     int       `json:"capacity" validate:"required,min=1"`
	EventDate    time.Time `json:"eventDate"`
	EventTime    string    `json:"eventTime" validate:"required"`
	CutoffDate   time.Time `json:"cutoffDate"`
	ImageURL     string    `json:"imageUrl,omitempty"`
}

// Registration binds one viewer to one event.
type Registration struct {
	ID                 string    `json:"id"`
	EventID            string    `json:"eventId" validate:"required"`
	PublicUserID       string    `json:"publicUserId" validate:"required"`
	RegisteredUserName string    `json:"registeredUserName" validate:"required"`
	Email              string    `json:"email" validate:"required,email"`
	PhoneNumber        string    `json:"phoneNumber" validate:"required,max=10"`
	RegisteredAt       time.Time `json:"registeredAt"`
}

// EventTypeOption is one member of the backend's closed category set.
type EventTypeOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// FilterOptions is the immutable filter state for one query. Each change
// produces a new result page; a previous page is never mutated in place.
type FilterOptions struct {
	Search   string
	Category string
	Location string
	DateFrom time.Time
	DateTo   time.Time
	Status   string
}

// IsZero reports whether no filter field is set.
func (f FilterOptions) IsZero() bool {
	return f.Search == "" && f.Category == "" && f.Location == "" &&
		f.DateFrom.IsZero() && f.DateTo.IsZero() && f.Status == ""
}

// EventPage is one page of a filtered query result.
type EventPage struct {
	Items      []Event `json:"items"`
	TotalPages int     `json:"totalPages"`
}

// Claims is the viewer identity derived from the session. The role set is
// opaque to this core beyond membership tests.
type Claims struct {
	Subject     string
	Name        string
	Email       string
	PhoneNumber string
	Roles       []string
}

// EventAPI is the backend contract for event storage and listing.
type EventAPI interface {
	FilteredEvents(ctx context.Context, page, pageSize int, filters FilterOptions) (*EventPage, error)
	EventByID(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, form EventFormData) (string, error)
	UpdateEvent(ctx context.Context, id string, form EventFormData) (string, error)
	DeleteEvent(ctx context.Context, id string) error
	UploadEventImage(ctx context.Context, id, filename string, file io.Reader) error
	EventTypes(ctx context.Context) ([]EventTypeOption, error)
	EventRegistrations(ctx context.Context, eventID string) ([]Registration, error)
}

// RegistrationAPI is the backend contract for the viewer's registrations.
type RegistrationAPI interface {
	Register(ctx context.Context, reg Registration) (*Registration, error)
	CancelRegistration(ctx context.Context, id string) error
	UserRegistrations(ctx context.Context) ([]Registration, error)
}
