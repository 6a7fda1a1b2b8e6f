package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventAppointmentBooked      = "APPOINTMENT_BOOKED"
	EventAppointmentCanceled    = "APPOINTMENT_CANCELED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

type Event struct {
	Type          string      `json:"type"`
	AppointmentID uuid.UUID   `json:"appointment_id"`
	Appointment   Appointment `json:"appointment"`
	// PreviousID is set on reschedule and names the canceled appointment.
	PreviousID *uuid.UUID `json:"previous_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Publisher receives lifecycle events after a transition has been stored.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
