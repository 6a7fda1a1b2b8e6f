package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

func listClinicsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Clinics())
	}
}

func calendarHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := svc.Today()
		ym := today.YearMonth()
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := calendar.ParseYearMonth(raw)
			if err != nil {
				writeValidation(w, appointment.ValidationErrors{{Field: "month", Message: "must be YYYY-MM"}})
				return
			}
			ym = parsed
		}

		writeJSON(w, http.StatusOK, CalendarResponse{
			Month: ym.String(),
			Prev:  ym.Prev().String(),
			Next:  ym.Next().String(),
			Today: today.String(),
			Cells: svc.Calendar(ym),
		})
	}
}

func listSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinicID := chi.URLParam(r, "clinicID")

		var date calendar.Date
		if raw := r.URL.Query().Get("date"); raw != "" {
			d, err := calendar.ParseDate(raw)
			if err != nil {
				writeValidation(w, appointment.ValidationErrors{{Field: "date", Message: "must be YYYY-MM-DD"}})
				return
			}
			date = d
		}

		slots, err := svc.ListAvailableSlots(r.Context(), clinicID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := SlotsResponse{
			ClinicID:  clinicID,
			Morning:   []SlotView{},
			Afternoon: []SlotView{},
		}
		if !date.IsZero() {
			resp.Date = date.String()
		}
		for _, s := range slots {
			view := SlotView{Slot: string(s.Slot), Booked: s.Booked}
			if s.Part == catalog.Afternoon {
				resp.Afternoon = append(resp.Afternoon, view)
			} else {
				resp.Morning = append(resp.Morning, view)
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := requestValidator.Struct(req); err != nil {
			handleServiceError(w, err)
			return
		}

		date, ok := parseOptionalDate(w, "calendar_date", req.CalendarDate)
		if !ok {
			return
		}

		appt, err := svc.Book(r.Context(), appointment.BookingRequest{
			ClinicID:     req.ClinicID,
			Date:         date,
			Slot:         catalog.TimeSlot(req.TimeSlot),
			PatientName:  req.PatientName,
			PatientPhone: req.PatientPhone,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var status appointment.Status
		if raw := q.Get("status"); raw != "" {
			s, err := appointment.ParseStatus(raw)
			if err != nil {
				writeValidation(w, appointment.ValidationErrors{{Field: "status", Message: err.Error()}})
				return
			}
			status = s
		}

		appts, err := svc.ListByFilter(r.Context(), q.Get("clinic_id"), status)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := AppointmentListResponse{Appointments: make([]AppointmentResponse, 0, len(appts))}
		for i := range appts {
			resp.Appointments = append(resp.Appointments, toAppointmentResponse(&appts[i]))
		}
		resp.Count = len(resp.Appointments)

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return transitionHandler(svc.Cancel)
}

func completeAppointmentHandler(svc BookingService) http.HandlerFunc {
	return transitionHandler(svc.Complete)
}

type transitionFunc func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)

func transitionHandler(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := fn(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := requestValidator.Struct(req); err != nil {
			handleServiceError(w, err)
			return
		}

		date, ok := parseOptionalDate(w, "new_date", req.NewDate)
		if !ok {
			return
		}

		appt, err := svc.Reschedule(r.Context(), appointment.RescheduleRequest{
			AppointmentID: id,
			NewDate:       date,
			NewSlot:       catalog.TimeSlot(req.NewSlot),
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalDate leaves a blank date zero so the service reports it as
// missing, and rejects a malformed one here.
func parseOptionalDate(w http.ResponseWriter, field, raw string) (calendar.Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.Date{}, true
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		writeValidation(w, appointment.ValidationErrors{{Field: field, Message: "must be YYYY-MM-DD"}})
		return calendar.Date{}, false
	}
	return d, true
}
