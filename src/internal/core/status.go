package core

import (
	"fmt"
	"time"
)

// EventStatus is an event's lifecycle phase relative to wall-clock time.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	// StatusCancelled is supplied externally by the backend, never derived
	// from date/time here.
	StatusCancelled EventStatus = "cancelled"
)

// CombineDateTime merges a calendar date with an "HH:MM" time-of-day into a
// single instant in loc. A missing or malformed time counts as 00:00.
func CombineDateTime(eventDate time.Time, eventTime string, loc *time.Location) time.Time {
	hour, minute := 0, 0
	if t, err := time.Parse("15:04", eventTime); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}
	return time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), hour, minute, 0, 0, loc)
}

// ClassifyStatus derives the lifecycle phase of an event from its date and
// time against now. An event on today's calendar date is ongoing for the
// whole day, regardless of whether its start time has passed. Must be
// re-evaluated on every render since now advances.
func ClassifyStatus(eventDate time.Time, eventTime string, now time.Time) EventStatus {
	at := CombineDateTime(eventDate, eventTime, now.Location())

	ny, nm, nd := now.Date()
	ey, em, ed := at.Date()
	if ny == ey && nm == em && nd == ed {
		return StatusOngoing
	}
	if at.After(now) {
		return StatusUpcoming
	}
	return StatusCompleted
}

// CapacityBand is the presentation threshold for how full an event is.
type CapacityBand string

const (
	BandNormal   CapacityBand = "normal"
	BandWarning  CapacityBand = "warning"  // >= 70% full
	BandCritical CapacityBand = "critical" // >= 90% full
)

// Availability is the registration load derived from capacity and the
// server-authoritative remaining-spot count.
type Availability struct {
	RegisteredCount int
	PercentFull     float64
}

// Band maps the fill percentage onto its display band.
func (a Availability) Band() CapacityBand {
	switch {
	case a.PercentFull >= 90:
		return BandCritical
	case a.PercentFull >= 70:
		return BandWarning
	default:
		return BandNormal
	}
}

// ComputeAvailability derives the registered count and fill percentage.
// Inconsistent inputs (remaining above capacity or below zero) are clamped
// as data anomalies rather than raised; a non-positive capacity is an input
// error because validation guarantees capacity >= 1.
func ComputeAvailability(capacity, remainingSpots int) (Availability, error) {
	if capacity <= 0 {
		return Availability{}, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	registered := capacity - remainingSpots
	if registered < 0 {
		registered = 0
	}
	if registered > capacity {
		registered = capacity
	}
	return Availability{
		RegisteredCount: registered,
		PercentFull:     100 * float64(registered) / float64(capacity),
	}, nil
}

// RegistrationOpen reports whether registrations are still accepted: open
// while the cutoff instant has not passed, boundary inclusive. Cutoff dates
// are midnight-stamped, so a cutoff of today closes as soon as the day
// begins. This is a UI gating signal only; authoritative enforcement is
// server-side.
func RegistrationOpen(cutoffDate, now time.Time) bool {
	return !cutoffDate.Before(now)
}
