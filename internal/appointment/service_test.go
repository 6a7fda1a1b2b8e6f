package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

var (
	testNow  = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.Local)
	march10  = calendar.Date{Year: 2025, Month: time.March, Day: 10}
	march11  = calendar.Date{Year: 2025, Month: time.March, Day: 11}
	february = calendar.Date{Year: 2025, Month: time.February, Day: 28}
)

type fakeStore struct {
	insertFn func(ctx context.Context, a *Appointment) error
	updateFn func(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error)
	queryFn  func(ctx context.Context, f Filter) ([]Appointment, error)
}

func (f *fakeStore) Insert(ctx context.Context, a *Appointment) error {
	if f.insertFn == nil {
		return nil
	}
	return f.insertFn(ctx, a)
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if f.updateFn == nil {
		return nil, ErrNotFound
	}
	return f.updateFn(ctx, id, to)
}

func (f *fakeStore) Query(ctx context.Context, filter Filter) ([]Appointment, error) {
	if f.queryFn == nil {
		return nil, nil
	}
	return f.queryFn(ctx, filter)
}

type fakeTxStore struct {
	fakeStore
	committed  bool
	rolledBack bool
}

func (f *fakeTxStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if err := fn(ctx, &f.fakeStore); err != nil {
		f.rolledBack = true
		return err
	}
	f.committed = true
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type lockerFunc func(ctx context.Context, key string, fn func(ctx context.Context) error) error

func (f lockerFunc) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return f(ctx, key, fn)
}

func newTestService(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(calendar.Fixed(testNow))}, opts...)
	return NewService(store, catalog.DefaultDirectory(), opts...)
}

func bookingFor(patient string, date calendar.Date, slot catalog.TimeSlot) BookingRequest {
	return BookingRequest{
		ClinicID:     "sz",
		Date:         date,
		Slot:         slot,
		PatientName:  patient,
		PatientPhone: "13800000000",
	}
}

func TestBookConflictCancelRebook(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())

	a, err := svc.Book(ctx, bookingFor("Patient A", march10, "09:00"))
	if err != nil {
		t.Fatalf("book A: %v", err)
	}
	if a.Status != StatusUpcoming {
		t.Fatalf("expected upcoming, got %s", a.Status)
	}

	_, err = svc.Book(ctx, bookingFor("Patient B", march10, "09:00"))
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked for B, got %v", err)
	}

	if _, err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("cancel A: %v", err)
	}

	b, err := svc.Book(ctx, bookingFor("Patient B", march10, "09:00"))
	if err != nil {
		t.Fatalf("book B after cancel: %v", err)
	}
	if b.PatientName != "Patient B" || b.Status != StatusUpcoming {
		t.Fatalf("unexpected appointment %+v", b)
	}
}

func TestConcurrentBookingsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(t, store)

	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Book(ctx, bookingFor("Patient", march10, "10:30"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotAlreadyBooked):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 win and %d conflicts, got %d and %d", n-1, wins, conflicts)
	}

	upcoming, err := svc.ListByFilter(ctx, "sz", StatusUpcoming)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(upcoming) != 1 {
		t.Fatalf("expected one upcoming appointment, got %d", len(upcoming))
	}
}

func TestListAvailableSlotsTracksBookings(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())

	a, err := svc.Book(ctx, bookingFor("Patient A", march10, "2:30"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.Book(ctx, BookingRequest{ClinicID: "gz", Date: march10, Slot: "09:00", PatientName: "C", PatientPhone: "1"}); err != nil {
		t.Fatalf("book gz: %v", err)
	}

	slots, err := svc.ListAvailableSlots(ctx, "sz", march10)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	for _, s := range slots {
		want := s.Slot == "2:30"
		if s.Booked != want {
			t.Errorf("slot %s booked=%v, want %v", s.Slot, s.Booked, want)
		}
	}
	if slots[0].Part != catalog.Morning || slots[14].Part != catalog.Afternoon {
		t.Errorf("unexpected part of day grouping")
	}

	other, err := svc.ListAvailableSlots(ctx, "sz", march11)
	if err != nil {
		t.Fatalf("list other date: %v", err)
	}
	for _, s := range other {
		if s.Booked {
			t.Errorf("slot %s should be free on another date", s.Slot)
		}
	}

	if _, err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	slots, err = svc.ListAvailableSlots(ctx, "sz", march10)
	if err != nil {
		t.Fatalf("list slots after cancel: %v", err)
	}
	for _, s := range slots {
		if s.Booked {
			t.Errorf("slot %s should be free after cancel", s.Slot)
		}
	}
}

func TestListAvailableSlotsWithoutSelection(t *testing.T) {
	ctx := context.Background()
	queried := false
	store := &fakeStore{queryFn: func(context.Context, Filter) ([]Appointment, error) {
		queried = true
		return nil, errors.New("should not be called")
	}}
	svc := newTestService(t, store)

	for _, tc := range []struct {
		clinic string
		date   calendar.Date
	}{
		{"", march10},
		{"sz", calendar.Date{}},
	} {
		slots, err := svc.ListAvailableSlots(ctx, tc.clinic, tc.date)
		if err != nil {
			t.Fatalf("clinic=%q date=%s: %v", tc.clinic, tc.date, err)
		}
		for _, s := range slots {
			if s.Booked {
				t.Fatalf("nothing should be booked without a selection")
			}
		}
	}
	if queried {
		t.Fatalf("store should not be queried without a selection")
	}

	if _, err := svc.ListAvailableSlots(ctx, "nowhere", march10); err == nil {
		t.Fatalf("expected error for unknown clinic")
	}
}

func TestBookRejectsPastDates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := newTestService(t, store)

	for _, slot := range catalog.Default().AllSlots() {
		_, err := svc.Book(ctx, bookingFor("Patient", february, slot))
		var verrs ValidationErrors
		if !errors.As(err, &verrs) || !verrs.HasField("calendar_date") {
			t.Fatalf("slot %s: expected calendar_date validation error, got %v", slot, err)
		}
	}
	if store.Len() != 0 {
		t.Fatalf("nothing should be stored")
	}

	today := calendar.DateOf(testNow)
	if _, err := svc.Book(ctx, bookingFor("Patient", today, "5:00")); err != nil {
		t.Fatalf("today must be bookable: %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())

	tests := []struct {
		name  string
		req   BookingRequest
		field string
	}{
		{"missing name", BookingRequest{ClinicID: "sz", Date: march10, Slot: "09:00", PatientPhone: "1"}, "patient_name"},
		{"blank phone", BookingRequest{ClinicID: "sz", Date: march10, Slot: "09:00", PatientName: "A", PatientPhone: "  "}, "patient_phone"},
		{"missing clinic", BookingRequest{Date: march10, Slot: "09:00", PatientName: "A", PatientPhone: "1"}, "clinic_id"},
		{"unknown clinic", BookingRequest{ClinicID: "bj", Date: march10, Slot: "09:00", PatientName: "A", PatientPhone: "1"}, "clinic_id"},
		{"missing date", BookingRequest{ClinicID: "sz", Slot: "09:00", PatientName: "A", PatientPhone: "1"}, "calendar_date"},
		{"missing slot", BookingRequest{ClinicID: "sz", Date: march10, PatientName: "A", PatientPhone: "1"}, "time_slot"},
		{"slot not offered", BookingRequest{ClinicID: "sz", Date: march10, Slot: "13:30", PatientName: "A", PatientPhone: "1"}, "time_slot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(ctx, tt.req)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if !verrs.HasField(tt.field) {
				t.Fatalf("expected error on %s, got %v", tt.field, verrs)
			}
		})
	}
}

func TestTerminalTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())

	a, err := svc.Book(ctx, bookingFor("A", march10, "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Complete(ctx, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete after cancel: expected ErrInvalidTransition, got %v", err)
	}

	b, err := svc.Book(ctx, bookingFor("B", march10, "09:30"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	done, err := svc.Complete(ctx, b.ID)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if _, err := svc.Complete(ctx, b.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second complete: expected ErrInvalidTransition, got %v", err)
	}
}

func TestUnknownAppointment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())
	id := uuid.New()

	if _, err := svc.Cancel(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancel: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Complete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("complete: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Reschedule(ctx, RescheduleRequest{AppointmentID: id, NewDate: march11, NewSlot: "09:00"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reschedule: expected ErrNotFound, got %v", err)
	}
}

func TestRescheduleFailureLeavesOriginalCanceled(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	pub := &recordingPublisher{}
	svc := newTestService(t, store, WithPublisher(pub))

	original, err := svc.Book(ctx, bookingFor("Patient A", march10, "09:00"))
	if err != nil {
		t.Fatalf("book A: %v", err)
	}
	if _, err := svc.Book(ctx, bookingFor("Patient B", march11, "11:00")); err != nil {
		t.Fatalf("book B: %v", err)
	}

	_, err = svc.Reschedule(ctx, RescheduleRequest{AppointmentID: original.ID, NewDate: march11, NewSlot: "11:00"})
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
	var rerr *RescheduleError
	if !errors.As(err, &rerr) || rerr.Canceled.ID != original.ID {
		t.Fatalf("expected RescheduleError carrying the original, got %v", err)
	}

	got, err := svc.Get(ctx, original.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if got.Status != StatusCanceled {
		t.Fatalf("original should stay canceled, got %s", got.Status)
	}

	all, err := svc.ListByFilter(ctx, "", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("no new appointment should exist, got %d appointments", len(all))
	}
	for _, a := range all {
		if a.PatientName == "Patient A" && a.ID != original.ID {
			t.Fatalf("unexpected new appointment for A: %+v", a)
		}
	}

	types := pub.types()
	if types[len(types)-1] != EventAppointmentCanceled {
		t.Fatalf("expected canceled event after failed reschedule, got %v", types)
	}
}

func TestRescheduleMovesAppointment(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := newTestService(t, NewMemoryStore(), WithPublisher(pub))

	original, err := svc.Book(ctx, bookingFor("Patient A", march10, "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	moved, err := svc.Reschedule(ctx, RescheduleRequest{AppointmentID: original.ID, NewDate: march11, NewSlot: "3:00"})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.ID == original.ID {
		t.Fatalf("reschedule must mint a new appointment")
	}
	if moved.PatientName != "Patient A" || moved.Date != march11 || moved.Slot != "3:00" {
		t.Fatalf("unexpected rescheduled appointment %+v", moved)
	}

	old, _ := svc.Get(ctx, original.ID)
	if old.Status != StatusCanceled {
		t.Fatalf("original should be canceled, got %s", old.Status)
	}

	slots, _ := svc.ListAvailableSlots(ctx, "sz", march10)
	for _, s := range slots {
		if s.Booked {
			t.Fatalf("old slot should be free")
		}
	}

	last := pub.events[len(pub.events)-1]
	if last.Type != EventAppointmentRescheduled || last.PreviousID == nil || *last.PreviousID != original.ID {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestRescheduleValidatesBeforeCanceling(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())

	original, err := svc.Book(ctx, bookingFor("Patient A", march10, "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = svc.Reschedule(ctx, RescheduleRequest{AppointmentID: original.ID, NewDate: february, NewSlot: "09:00"})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, _ := svc.Get(ctx, original.ID)
	if got.Status != StatusUpcoming {
		t.Fatalf("original must stay upcoming after rejected reschedule, got %s", got.Status)
	}
}

func TestRescheduleInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	original := Appointment{
		ID: uuid.New(), ClinicID: "sz", Date: march10, Slot: "09:00",
		PatientName: "A", PatientPhone: "1", Status: StatusUpcoming,
	}

	store := &fakeTxStore{}
	store.queryFn = func(_ context.Context, f Filter) ([]Appointment, error) {
		if f.ID != nil {
			return []Appointment{original}, nil
		}
		return nil, nil
	}
	store.updateFn = func(_ context.Context, id uuid.UUID, to Status) (*Appointment, error) {
		canceled := original
		canceled.Status = to
		return &canceled, nil
	}
	store.insertFn = func(context.Context, *Appointment) error {
		return ErrSlotAlreadyBooked
	}

	svc := newTestService(t, store)
	_, err := svc.Reschedule(ctx, RescheduleRequest{AppointmentID: original.ID, NewDate: march11, NewSlot: "09:00"})
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
	var rerr *RescheduleError
	if errors.As(err, &rerr) {
		t.Fatalf("transactional reschedule must not report a lingering cancel")
	}
	if !store.rolledBack || store.committed {
		t.Fatalf("expected rollback, committed=%v rolledBack=%v", store.committed, store.rolledBack)
	}
}

func TestListByFilterViews(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryStore())

	book := func(clinic, patient string, slot catalog.TimeSlot) *Appointment {
		t.Helper()
		a, err := svc.Book(ctx, BookingRequest{ClinicID: clinic, Date: march10, Slot: slot, PatientName: patient, PatientPhone: "1"})
		if err != nil {
			t.Fatalf("book %s: %v", patient, err)
		}
		return a
	}

	sz1 := book("sz", "sz-1", "09:00")
	gz1 := book("gz", "gz-1", "09:00")
	sz2 := book("sz", "sz-2", "09:30")
	sz3 := book("sz", "sz-3", "10:00")
	gz2 := book("gz", "gz-2", "10:00")
	sz4 := book("sz", "sz-4", "10:30")

	if _, err := svc.Complete(ctx, sz2.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := svc.Cancel(ctx, sz3.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, gz2.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	assertIDs := func(name string, got []Appointment, want ...*Appointment) {
		t.Helper()
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d, got %d", name, len(want), len(got))
		}
		for i := range want {
			if got[i].ID != want[i].ID {
				t.Fatalf("%s: position %d: expected %s, got %s", name, i, want[i].PatientName, got[i].PatientName)
			}
		}
	}

	got, _ := svc.ListByFilter(ctx, "sz", StatusUpcoming)
	assertIDs("sz upcoming", got, sz1, sz4)

	got, _ = svc.ListByFilter(ctx, "", StatusUpcoming)
	assertIDs("all upcoming", got, sz1, gz1, sz4)

	got, _ = svc.ListByFilter(ctx, "", StatusCanceled)
	assertIDs("all canceled", got, sz3, gz2)

	got, _ = svc.ListByFilter(ctx, "sz", StatusCompleted)
	assertIDs("sz completed", got, sz2)

	if _, err := svc.ListByFilter(ctx, "sz", Status("pending")); err == nil {
		t.Fatalf("expected validation error for non-canonical status")
	}
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	store := &fakeStore{
		queryFn:  func(context.Context, Filter) ([]Appointment, error) { return nil, boom },
		updateFn: func(context.Context, uuid.UUID, Status) (*Appointment, error) { return nil, boom },
	}
	svc := newTestService(t, store)

	if _, err := svc.Book(ctx, bookingFor("A", march10, "09:00")); !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("book: expected ErrStoreUnavailable wrapping cause, got %v", err)
	}
	if _, err := svc.Cancel(ctx, uuid.New()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("cancel: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := svc.ListAvailableSlots(ctx, "sz", march10); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("slots: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestInsertConflictAtCommit(t *testing.T) {
	// the pre-check sees a free slot but the store rejects the insert
	store := &fakeStore{insertFn: func(context.Context, *Appointment) error { return ErrSlotAlreadyBooked }}
	svc := newTestService(t, store)

	if _, err := svc.Book(context.Background(), bookingFor("A", march10, "09:00")); !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
}

func TestSlotLockHeldElsewhere(t *testing.T) {
	busy := lockerFunc(func(context.Context, string, func(context.Context) error) error {
		return redisclient.ErrLockNotAcquired
	})
	svc := newTestService(t, NewMemoryStore(), WithLocker(busy))

	_, err := svc.Book(context.Background(), bookingFor("A", march10, "09:00"))
	if !errors.Is(err, ErrSlotBeingBooked) || !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotBeingBooked, got %v", err)
	}
}

func TestSlotLockKey(t *testing.T) {
	var keys []string
	rec := lockerFunc(func(ctx context.Context, key string, fn func(context.Context) error) error {
		keys = append(keys, key)
		return fn(ctx)
	})
	svc := newTestService(t, NewMemoryStore(), WithLocker(rec))

	if _, err := svc.Book(context.Background(), bookingFor("A", march10, "1:30")); err != nil {
		t.Fatalf("book: %v", err)
	}
	if len(keys) != 1 || keys[0] != "sz/2025-03-10/1:30" {
		t.Fatalf("unexpected lock keys %v", keys)
	}
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, NewMemoryStore(), WithPublisher(pub))

	a, err := svc.Book(context.Background(), bookingFor("A", march10, "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].AppointmentID != a.ID {
		t.Fatalf("expected one booked event, got %+v", pub.events)
	}
}

func TestCompletePast(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// book while "today" is March 1st, then move the clock past the dates
	early := newTestService(t, store)
	past, err := early.Book(ctx, bookingFor("past", march10, "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	future, err := early.Book(ctx, bookingFor("future", march11, "09:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	later := NewService(store, catalog.DefaultDirectory(),
		WithClock(calendar.Fixed(time.Date(2025, time.March, 11, 8, 0, 0, 0, time.Local))))

	n, err := later.CompletePast(ctx)
	if err != nil {
		t.Fatalf("complete past: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 completed, got %d", n)
	}

	got, _ := later.Get(ctx, past.ID)
	if got.Status != StatusCompleted {
		t.Fatalf("past appointment should be completed, got %s", got.Status)
	}
	got, _ = later.Get(ctx, future.ID)
	if got.Status != StatusUpcoming {
		t.Fatalf("today's appointment should stay upcoming, got %s", got.Status)
	}
}
