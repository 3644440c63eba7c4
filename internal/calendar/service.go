package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Service is the calendar backend events are written to.
type Service interface {
	// TimeZone returns the IANA zone declared by the calendar.
	TimeZone(ctx context.Context, calendarID string) (string, error)
	// Upsert creates ev, or updates it in place when an event with ev.ID exists.
	Upsert(ctx context.Context, calendarID string, ev Event) (Event, error)
	List(ctx context.Context, calendarID string, q ListQuery) ([]Event, error)
	Delete(ctx context.Context, calendarID, eventID string) error
}

// ListQuery selects events overlapping [From, To). An empty Title matches all events.
type ListQuery struct {
	Title string
	From  time.Time
	To    time.Time
}

// APIError is a rejection by the calendar backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar api: %d %s", e.Status, e.Message)
}

// ErrorClass buckets per-record failures for reporting.
type ErrorClass string

const (
	ClassNone       ErrorClass = ""
	ClassNotFound   ErrorClass = "not_found"
	ClassForbidden  ErrorClass = "forbidden"
	ClassBadRequest ErrorClass = "bad_request"
	ClassInvalid    ErrorClass = "invalid_record"
	ClassOther      ErrorClass = "other"
)

// Classify maps err onto an ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	var ie *InvalidRecordError
	if errors.As(err, &ie) {
		return ClassInvalid
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		return ClassOther
	}
	switch ae.Status {
	case http.StatusNotFound:
		return ClassNotFound
	case http.StatusForbidden:
		return ClassForbidden
	case http.StatusBadRequest:
		return ClassBadRequest
	}
	return ClassOther
}

// Hint is an operator-facing explanation of a failure class.
func (c ErrorClass) Hint(calendarID string) string {
	switch c {
	case ClassNotFound:
		return fmt.Sprintf("calendar %q not found; check the calendar id", calendarID)
	case ClassForbidden:
		return "permission denied; the authenticated user needs write access to the calendar"
	case ClassBadRequest:
		return "bad request; check the event data"
	case ClassInvalid:
		return "record could not be turned into an event"
	}
	return ""
}

// InvalidRecordError wraps a record that cannot be converted into an event.
type InvalidRecordError struct {
	SegmentID string
	Err       error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %v", e.SegmentID, e.Err)
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }
