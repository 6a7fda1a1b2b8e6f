package appointment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSlotAlreadyBooked = errors.New("slot already has an upcoming appointment")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("appointment not found")
	ErrStoreUnavailable  = errors.New("appointment store unavailable")
)

// ErrSlotBeingBooked is returned when another booking holds the slot lock.
// It matches ErrSlotAlreadyBooked so callers re-prompt the same way.
var ErrSlotBeingBooked = fmt.Errorf("%w: slot is currently being booked, please retry", ErrSlotAlreadyBooked)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasField reports whether any error concerns field.
func (v ValidationErrors) HasField(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

func invalid(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// StoreError wraps a persistence failure. It matches ErrStoreUnavailable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// storeFailure passes domain errors through and wraps everything else.
func storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrSlotAlreadyBooked),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStoreUnavailable):
		return err
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// RescheduleError reports a reschedule whose new booking failed after the
// original appointment was already canceled. The cancellation is not undone.
type RescheduleError struct {
	Canceled *Appointment
	Err      error
}

func (e *RescheduleError) Error() string {
	return fmt.Sprintf("reschedule: appointment %s was canceled but the new booking failed: %v", e.Canceled.ID, e.Err)
}

func (e *RescheduleError) Unwrap() error { return e.Err }
