package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

// BookingService is what the HTTP layer needs from appointment.Service.
type BookingService interface {
	Clinics() []catalog.Clinic
	Today() calendar.Date
	Calendar(ym calendar.YearMonth) []*calendar.Cell
	ListAvailableSlots(ctx context.Context, clinicID string, date calendar.Date) ([]appointment.SlotAvailability, error)
	Book(ctx context.Context, req appointment.BookingRequest) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, req appointment.RescheduleRequest) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListByFilter(ctx context.Context, clinicID string, status appointment.Status) ([]appointment.Appointment, error)
}

type RouterConfig struct {
	Service BookingService
	Logger  zerolog.Logger
	Checks  []DependencyCheck
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/clinics", listClinicsHandler(cfg.Service))
	r.Get("/clinics/{clinicID}/slots", listSlotsHandler(cfg.Service))
	r.Get("/calendar", calendarHandler(cfg.Service))

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(cfg.Service))
		r.Get("/", listAppointmentsHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
	})

	return r
}
