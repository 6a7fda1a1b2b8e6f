package appointment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

// Service is the booking surface used by the HTTP API, the CLI and workers.
// It holds no state beyond its collaborators.
type Service struct {
	lifecycle *Lifecycle
	store     Store
	clinics   Clinics
	publisher Publisher
	logger    zerolog.Logger
	clock     calendar.Clock
}

type Option func(*Service)

// WithLocker guards bookings with a distributed slot lock.
func WithLocker(l redisclient.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.lifecycle.locker = l
		}
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l.With().Str("component", "booking").Logger()
	}
}

func WithClock(c calendar.Clock) Option {
	return func(s *Service) {
		s.clock = c
		s.lifecycle.clock = c
	}
}

func NewService(store Store, clinics Clinics, opts ...Option) *Service {
	s := &Service{
		lifecycle: NewLifecycle(store, clinics),
		store:     store,
		clinics:   clinics,
		publisher: nopPublisher{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Clinics() []catalog.Clinic {
	return s.clinics.Clinics()
}

func (s *Service) Today() calendar.Date {
	return s.clock.Today()
}

// Calendar lays out ym relative to today.
func (s *Service) Calendar(ym calendar.YearMonth) []*calendar.Cell {
	return calendar.Layout(ym, s.Today())
}

// ListAvailableSlots returns every catalog slot of the clinic with its booked
// flag. With no clinic or no date chosen every slot reports unbooked.
func (s *Service) ListAvailableSlots(ctx context.Context, clinicID string, date calendar.Date) ([]SlotAvailability, error) {
	clinicID = strings.TrimSpace(clinicID)
	if clinicID == "" || date.IsZero() {
		return Availability(s.clinics.CatalogFor(clinicID), clinicID, date, nil), nil
	}
	if _, ok := s.clinics.Clinic(clinicID); !ok {
		return nil, invalid("clinic_id", "unknown clinic "+clinicID)
	}

	appts, err := s.store.Query(ctx, Filter{ClinicID: clinicID, Date: &date, Status: StatusUpcoming})
	if err != nil {
		s.logger.Error().Err(err).Str("clinic_id", clinicID).Str("date", date.String()).Msg("query availability")
		return nil, storeFailure("query", err)
	}

	return Availability(s.clinics.CatalogFor(clinicID), clinicID, date, appts), nil
}

func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	a, err := s.lifecycle.Create(ctx, req)
	if err != nil {
		s.logFailure(err, "book").
			Str("clinic_id", req.ClinicID).
			Str("date", req.Date.String()).
			Str("slot", string(req.Slot)).
			Msg("booking rejected")
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("slot_key", a.Key().String()).
		Msg("appointment booked")
	s.publish(ctx, EventAppointmentBooked, a, nil)

	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.lifecycle.Cancel(ctx, id)
	if err != nil {
		s.logFailure(err, "cancel").Str("appointment_id", id.String()).Msg("cancel rejected")
		return nil, err
	}

	s.logger.Info().Str("appointment_id", a.ID.String()).Msg("appointment canceled")
	s.publish(ctx, EventAppointmentCanceled, a, nil)
	return a, nil
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.lifecycle.Complete(ctx, id)
	if err != nil {
		s.logFailure(err, "complete").Str("appointment_id", id.String()).Msg("complete rejected")
		return nil, err
	}

	s.logger.Info().Str("appointment_id", a.ID.String()).Msg("appointment completed")
	s.publish(ctx, EventAppointmentCompleted, a, nil)
	return a, nil
}

// Reschedule moves an upcoming appointment to a new date and slot. The new
// date and slot are validated before anything is canceled, so a validation
// error leaves the original upcoming. On a transactional store the cancel
// and the new booking commit together. Otherwise a failed booking leaves the
// original canceled and returns a *RescheduleError carrying it.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (*Appointment, error) {
	canceled, booked, err := s.lifecycle.Reschedule(ctx, req.AppointmentID, req.NewDate, req.NewSlot)
	if err != nil {
		var rerr *RescheduleError
		if errors.As(err, &rerr) {
			s.logger.Warn().
				Err(rerr.Err).
				Str("appointment_id", rerr.Canceled.ID.String()).
				Msg("reschedule left original appointment canceled")
			s.publish(ctx, EventAppointmentCanceled, rerr.Canceled, nil)
			return nil, err
		}
		s.logFailure(err, "reschedule").Str("appointment_id", req.AppointmentID.String()).Msg("reschedule rejected")
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", booked.ID.String()).
		Str("previous_id", canceled.ID.String()).
		Str("slot_key", booked.Key().String()).
		Msg("appointment rescheduled")
	prev := canceled.ID
	s.publish(ctx, EventAppointmentRescheduled, booked, &prev)

	return booked, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return getByID(ctx, s.store, id)
}

// ListByFilter returns appointments in insertion order. An empty clinicID
// means all clinics; an empty status means all statuses.
func (s *Service) ListByFilter(ctx context.Context, clinicID string, status Status) ([]Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("status", "unknown status "+string(status))
	}

	out, err := s.store.Query(ctx, Filter{ClinicID: strings.TrimSpace(clinicID), Status: status})
	if err != nil {
		s.logger.Error().Err(err).Msg("list appointments")
		return nil, storeFailure("query", err)
	}
	return out, nil
}

// CompletePast marks every upcoming appointment dated before today as
// completed and returns how many were moved.
func (s *Service) CompletePast(ctx context.Context) (int, error) {
	today := s.Today()
	due, err := s.store.Query(ctx, Filter{Status: StatusUpcoming, Before: &today})
	if err != nil {
		return 0, storeFailure("query", err)
	}

	completed := 0
	for _, a := range due {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		if _, err := s.Complete(ctx, a.ID); err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
				continue
			}
			return completed, err
		}
		completed++
	}

	return completed, nil
}

func (s *Service) publish(ctx context.Context, eventType string, a *Appointment, previous *uuid.UUID) {
	ev := Event{
		Type:          eventType,
		AppointmentID: a.ID,
		Appointment:   *a,
		PreviousID:    previous,
		OccurredAt:    s.clock.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("appointment_id", a.ID.String()).Msg("publish event")
	}
}

func (s *Service) logFailure(err error, op string) *zerolog.Event {
	var evt *zerolog.Event
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		evt = s.logger.Error()
	case errors.Is(err, ErrInvalidTransition):
		evt = s.logger.Warn()
	default:
		evt = s.logger.Debug()
	}
	return evt.Err(err).Str("op", op)
}
