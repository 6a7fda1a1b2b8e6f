package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

// Clinics resolves clinic ids and their slot catalogs.
type Clinics interface {
	Clinics() []catalog.Clinic
	Clinic(id string) (catalog.Clinic, bool)
	CatalogFor(clinicID string) catalog.Slots
}

// Lifecycle owns the appointment state machine:
//
//	upcoming --cancel--> canceled
//	upcoming --complete--> completed
//
// Both targets are terminal. Reschedule is cancel followed by a new booking.
type Lifecycle struct {
	store     Store
	clinics   Clinics
	validator *Validator
	locker    redisclient.Locker
	clock     calendar.Clock
	newID     func() uuid.UUID
}

func NewLifecycle(store Store, clinics Clinics) *Lifecycle {
	return &Lifecycle{
		store:     store,
		clinics:   clinics,
		validator: NewValidator(),
		locker:    redisclient.NoopLocker{},
		newID:     uuid.New,
	}
}

// Create books a new upcoming appointment. Availability is re-checked at
// commit time under the slot lock; the store's uniqueness guarantee decides
// races the lock does not cover.
func (l *Lifecycle) Create(ctx context.Context, req BookingRequest) (*Appointment, error) {
	req = req.normalized()
	if err := l.validateBooking(req); err != nil {
		return nil, err
	}

	a := l.mint(req)
	err := l.withSlotLock(ctx, req.Key(), func(lockCtx context.Context) error {
		return l.commit(lockCtx, l.store, a)
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (l *Lifecycle) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return l.transition(ctx, l.store, id, StatusCanceled)
}

func (l *Lifecycle) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return l.transition(ctx, l.store, id, StatusCompleted)
}

// Reschedule cancels id and books the same patient on (newDate, newSlot).
//
// The new date and slot are validated before anything is canceled. When the
// store implements Transactor both steps run in one transaction and a failed
// booking leaves the original untouched. Otherwise the steps are separate: if
// the booking fails the original stays canceled and the error is a
// *RescheduleError carrying it.
func (l *Lifecycle) Reschedule(ctx context.Context, id uuid.UUID, newDate calendar.Date, newSlot catalog.TimeSlot) (canceled, booked *Appointment, err error) {
	current, err := getByID(ctx, l.store, id)
	if err != nil {
		return nil, nil, err
	}
	if current.Status != StatusUpcoming {
		return nil, nil, ErrInvalidTransition
	}

	req := BookingRequest{
		ClinicID:     current.ClinicID,
		Date:         newDate,
		Slot:         newSlot,
		PatientName:  current.PatientName,
		PatientPhone: current.PatientPhone,
	}.normalized()
	if err := l.validateBooking(req); err != nil {
		return nil, nil, err
	}

	if tx, ok := l.store.(Transactor); ok {
		err = l.withSlotLock(ctx, req.Key(), func(lockCtx context.Context) error {
			return tx.InTx(lockCtx, func(txCtx context.Context, st Store) error {
				c, err := l.transition(txCtx, st, id, StatusCanceled)
				if err != nil {
					return err
				}
				a := l.mint(req)
				if err := l.commit(txCtx, st, a); err != nil {
					return err
				}
				canceled, booked = c, a
				return nil
			})
		})
		if err != nil {
			return nil, nil, storeFailure("reschedule", err)
		}
		return canceled, booked, nil
	}

	canceled, err = l.transition(ctx, l.store, id, StatusCanceled)
	if err != nil {
		return nil, nil, err
	}

	booked, err = l.Create(ctx, req)
	if err != nil {
		return canceled, nil, &RescheduleError{Canceled: canceled, Err: err}
	}

	return canceled, booked, nil
}

func (l *Lifecycle) validateBooking(req BookingRequest) error {
	var verrs ValidationErrors
	if err := l.validator.Struct(req); err != nil {
		if !errors.As(err, &verrs) {
			return err
		}
	}

	clinicKnown := false
	if req.ClinicID != "" {
		if _, ok := l.clinics.Clinic(req.ClinicID); ok {
			clinicKnown = true
		} else {
			verrs = append(verrs, ValidationError{Field: "clinic_id", Message: "unknown clinic " + req.ClinicID})
		}
	}

	if !req.Date.IsZero() && calendar.IsPast(req.Date, l.clock.Today()) {
		verrs = append(verrs, ValidationError{Field: "calendar_date", Message: "calendar_date must not be in the past"})
	}

	if clinicKnown && req.Slot != "" && !l.clinics.CatalogFor(req.ClinicID).IsValidSlot(req.Slot) {
		verrs = append(verrs, ValidationError{Field: "time_slot", Message: "time_slot " + string(req.Slot) + " is not offered"})
	}

	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

func (l *Lifecycle) mint(req BookingRequest) *Appointment {
	now := l.clock.Now()
	return &Appointment{
		ID:           l.newID(),
		ClinicID:     req.ClinicID,
		Date:         req.Date,
		Slot:         req.Slot,
		PatientName:  req.PatientName,
		PatientPhone: req.PatientPhone,
		Status:       StatusUpcoming,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// commit is the race-closing step: re-read the slot, then insert.
func (l *Lifecycle) commit(ctx context.Context, st Store, a *Appointment) error {
	existing, err := st.Query(ctx, slotFilter(a.Key()))
	if err != nil {
		return storeFailure("query", err)
	}
	if IsBooked(a.ClinicID, a.Date, a.Slot, existing) {
		return ErrSlotAlreadyBooked
	}

	if err := st.Insert(ctx, a); err != nil {
		return storeFailure("insert", err)
	}
	return nil
}

func (l *Lifecycle) transition(ctx context.Context, st Store, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.IsTerminal() {
		return nil, ErrInvalidTransition
	}

	updated, err := st.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, storeFailure("update status", err)
	}
	return updated, nil
}

func (l *Lifecycle) withSlotLock(ctx context.Context, key SlotKey, fn func(ctx context.Context) error) error {
	err := l.locker.WithSlotLock(ctx, key.String(), fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBeingBooked
	}
	return storeFailure("slot lock", err)
}
