// Package validation implements the form validation pipeline. Structural
// rules come from the validate tags on the core types; cross-field rules
// are applied on top. Failures are field-scoped and never reach the
// backend.
package validation

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"eventora/src/internal/core"
	"eventora/src/pkg/apperror"
)

// FieldErrors maps a field name (json name) to its first failure message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets callers branch with errors.Is(err, apperror.ErrValidation).
func (fe FieldErrors) Is(target error) bool {
	return target == apperror.ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report failures under the json field name, matching how the forms
	// address their inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Messages for structural failures, keyed by field then rule.
var fieldMessages = map[string]map[string]string{
	"title":              {"required": "Title is required", "min": "Title is required"},
	"description":        {"required": "Description too short", "min": "Description too short"},
	"location":           {"required": "Location is required", "min": "Location is required"},
	"organization":       {"required": "Organization is required", "min": "Organization is required"},
	"capacity":           {"required": "Capacity must be greater than 0", "min": "Capacity must be greater than 0"},
	"eventTime":          {"required": "Event time is required"},
	"eventId":            {"required": "ID is required"},
	"publicUserId":       {"required": "ID is required"},
	"registeredUserName": {"required": "Name is required"},
	"email":              {"required": "Invalid email", "email": "Invalid email"},
	"phoneNumber":        {"required": "Phone number is required", "max": "Phone number must be at most 10 digits"},
}

func structural(v any) FieldErrors {
	fe := FieldErrors{}
	err := validate.Struct(v)
	if err == nil {
		return fe
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fe["_"] = err.Error()
		return fe
	}
	for _, e := range verrs {
		field := e.Field()
		if _, dup := fe[field]; dup {
			continue
		}
		if msg, ok := fieldMessages[field][e.Tag()]; ok {
			fe[field] = msg
		} else {
			fe[field] = "Invalid value"
		}
	}
	return fe
}

// ValidateEventForm checks an event create/update form against the
// structural rules and the cross-field date rules. knownTypes is the
// category set currently known from the backend; membership is checked
// against it rather than a hardcoded range.
func ValidateEventForm(form core.EventFormData, knownTypes []core.EventTypeOption, now time.Time) FieldErrors {
	fe := structural(form)

	known := false
	for _, opt := range knownTypes {
		if opt.Value == form.Type {
			known = true
			break
		}
	}
	if !known {
		fe["type"] = "Invalid event type"
	}

	if form.EventDate.IsZero() {
		fe["eventDate"] = "Valid event date is required"
	}
	if form.CutoffDate.IsZero() {
		fe["cutoffDate"] = "Valid cutoff date is required"
	}
	if _, ok := fe["eventTime"]; !ok {
		if _, err := time.Parse("15:04", form.EventTime); err != nil {
			fe["eventTime"] = "Event time must be HH:MM"
		}
	}

	if !form.EventDate.IsZero() && !form.CutoffDate.IsZero() {
		if !form.CutoffDate.Before(form.EventDate) {
			fe["cutoffDate"] = "Cutoff date must be before the event date"
		}
	}
	if _, ok := fe["eventDate"]; !ok {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if form.EventDate.Before(today) {
			fe["eventDate"] = "Event date cannot be in the past"
		}
	}

	return fe
}

// ValidateRegistration checks a registration submission. The 10-character
// phone cap mirrors the backend's constraint; it is isolated in phoneValid
// so a locale-aware validator can replace it.
func ValidateRegistration(reg core.Registration) FieldErrors {
	fe := structural(reg)
	if _, ok := fe["phoneNumber"]; !ok && !phoneValid(reg.PhoneNumber) {
		fe["phoneNumber"] = "Phone number must contain digits only"
	}
	return fe
}

func phoneValid(phone string) bool {
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return phone != ""
}
