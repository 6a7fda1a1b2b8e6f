package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// ParseStatus accepts the canonical names plus the patient-facing vocabulary:
// "confirmed" and "pending" both mean upcoming, "cancelled" means canceled.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upcoming", "confirmed", "pending":
		return StatusUpcoming, nil
	case "completed":
		return StatusCompleted, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CanTransition holds the whole state machine: upcoming -> completed | canceled.
func (s Status) CanTransition(to Status) bool {
	return s == StatusUpcoming && to.IsTerminal()
}

// DisplayName is the label shown to patients.
func (s Status) DisplayName() string {
	switch s {
	case StatusUpcoming:
		return "Confirmed"
	case StatusCompleted:
		return "Completed"
	case StatusCanceled:
		return "Cancelled"
	default:
		return string(s)
	}
}

type Appointment struct {
	ID           uuid.UUID        `json:"id"`
	ClinicID     string           `json:"clinic_id"`
	Date         calendar.Date    `json:"calendar_date"`
	Slot         catalog.TimeSlot `json:"time_slot"`
	PatientName  string           `json:"patient_name"`
	PatientPhone string           `json:"patient_phone"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (a Appointment) Key() SlotKey {
	return SlotKey{ClinicID: a.ClinicID, Date: a.Date, Slot: a.Slot}
}

// SlotKey is a bookable instance: a slot template bound to a clinic and date.
type SlotKey struct {
	ClinicID string
	Date     calendar.Date
	Slot     catalog.TimeSlot
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.ClinicID, k.Date, k.Slot)
}

type BookingRequest struct {
	ClinicID     string           `json:"clinic_id" validate:"notblank"`
	Date         calendar.Date    `json:"calendar_date" validate:"required"`
	Slot         catalog.TimeSlot `json:"time_slot" validate:"notblank"`
	PatientName  string           `json:"patient_name" validate:"notblank,max=100"`
	PatientPhone string           `json:"patient_phone" validate:"notblank,max=32"`
}

func (r BookingRequest) Key() SlotKey {
	return SlotKey{ClinicID: r.ClinicID, Date: r.Date, Slot: r.Slot}
}

func (r BookingRequest) normalized() BookingRequest {
	r.ClinicID = strings.TrimSpace(r.ClinicID)
	r.Slot = catalog.TimeSlot(strings.TrimSpace(string(r.Slot)))
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.PatientPhone = strings.TrimSpace(r.PatientPhone)
	return r
}

type RescheduleRequest struct {
	AppointmentID uuid.UUID
	NewDate       calendar.Date
	NewSlot       catalog.TimeSlot
}

// SlotAvailability is one row of the morning/afternoon slot grid.
type SlotAvailability struct {
	Slot   catalog.TimeSlot  `json:"slot"`
	Part   catalog.PartOfDay `json:"part_of_day"`
	Booked bool              `json:"booked"`
}
