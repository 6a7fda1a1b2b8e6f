package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/calendar"
)

type BookAppointmentRequest struct {
	ClinicID     string `json:"clinic_id" validate:"notblank"`
	CalendarDate string `json:"calendar_date" validate:"notblank"`
	TimeSlot     string `json:"time_slot" validate:"notblank"`
	PatientName  string `json:"patient_name" validate:"notblank,max=100"`
	PatientPhone string `json:"patient_phone" validate:"notblank,max=32"`
}

type RescheduleRequest struct {
	NewDate string `json:"new_date" validate:"notblank"`
	NewSlot string `json:"new_slot" validate:"notblank"`
}

type AppointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	ClinicID      string    `json:"clinic_id"`
	CalendarDate  string    `json:"calendar_date"`
	TimeSlot      string    `json:"time_slot"`
	PatientName   string    `json:"patient_name"`
	PatientPhone  string    `json:"patient_phone"`
	Status        string    `json:"status"`
	DisplayStatus string    `json:"display_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		ClinicID:      a.ClinicID,
		CalendarDate:  a.Date.String(),
		TimeSlot:      string(a.Slot),
		PatientName:   a.PatientName,
		PatientPhone:  a.PatientPhone,
		Status:        string(a.Status),
		DisplayStatus: a.Status.DisplayName(),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Count        int                   `json:"count"`
}

type SlotView struct {
	Slot   string `json:"slot"`
	Booked bool   `json:"booked"`
}

// SlotsResponse groups a clinic's slots for one date, morning first.
type SlotsResponse struct {
	ClinicID  string     `json:"clinic_id"`
	Date      string     `json:"date,omitempty"`
	Morning   []SlotView `json:"morning"`
	Afternoon []SlotView `json:"afternoon"`
}

type CalendarResponse struct {
	Month string           `json:"month"`
	Prev  string           `json:"prev"`
	Next  string           `json:"next"`
	Today string           `json:"today"`
	Cells []*calendar.Cell `json:"cells"`
}

type ErrorResponse struct {
	Error   string                        `json:"error"`
	Details string                        `json:"details,omitempty"`
	Fields  []appointment.ValidationError `json:"fields,omitempty"`
}
