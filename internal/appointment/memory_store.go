package appointment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a single-writer in-process Store. A mutex around the
// insertion-ordered slice and the active-slot index makes Insert atomic.
// It does not implement Transactor.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []Appointment
	byID   map[uuid.UUID]int
	active map[SlotKey]uuid.UUID
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]int),
		active: make(map[SlotKey]uuid.UUID),
		now:    time.Now,
	}
}

func (m *MemoryStore) Insert(ctx context.Context, a *Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[a.ID]; exists {
		return fmt.Errorf("duplicate appointment id %s", a.ID)
	}
	key := a.Key()
	if a.Status == StatusUpcoming {
		if _, taken := m.active[key]; taken {
			return ErrSlotAlreadyBooked
		}
		m.active[key] = a.ID
	}

	m.byID[a.ID] = len(m.items)
	m.items = append(m.items, *a)
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	a := &m.items[idx]
	if !a.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	delete(m.active, a.Key())
	a.Status = to
	a.UpdatedAt = m.now()

	out := *a
	return &out, nil
}

func (m *MemoryStore) Query(ctx context.Context, f Filter) ([]Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if f.ID != nil {
		idx, ok := m.byID[*f.ID]
		if !ok || !f.Matches(m.items[idx]) {
			return nil, nil
		}
		return []Appointment{m.items[idx]}, nil
	}

	var out []Appointment
	for _, a := range m.items {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
