package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

// Store is the persistence port. Implementations must make Insert reject a
// second upcoming appointment for the same SlotKey atomically.
type Store interface {
	// Insert returns ErrSlotAlreadyBooked when the slot is occupied.
	Insert(ctx context.Context, a *Appointment) error

	// UpdateStatus moves an upcoming appointment to a terminal status.
	// Returns ErrNotFound or ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error)

	// Query returns matches in insertion order.
	Query(ctx context.Context, f Filter) ([]Appointment, error)
}

// Transactor is implemented by stores that can run several operations
// atomically. fn receives a Store bound to the transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Filter is a conjunction; zero fields match everything.
type Filter struct {
	ID       *uuid.UUID
	ClinicID string
	Date     *calendar.Date
	Slot     catalog.TimeSlot
	Status   Status
	// Before matches dates strictly before the given date.
	Before *calendar.Date
}

func (f Filter) Matches(a Appointment) bool {
	if f.ID != nil && a.ID != *f.ID {
		return false
	}
	if f.ClinicID != "" && a.ClinicID != f.ClinicID {
		return false
	}
	if f.Date != nil && a.Date != *f.Date {
		return false
	}
	if f.Slot != "" && a.Slot != f.Slot {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Before != nil && !a.Date.Before(*f.Before) {
		return false
	}
	return true
}

func slotFilter(k SlotKey) Filter {
	d := k.Date
	return Filter{ClinicID: k.ClinicID, Date: &d, Slot: k.Slot, Status: StatusUpcoming}
}

func getByID(ctx context.Context, s Store, id uuid.UUID) (*Appointment, error) {
	found, err := s.Query(ctx, Filter{ID: &id})
	if err != nil {
		return nil, storeFailure("query", err)
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	a := found[0]
	return &a, nil
}
