package catalog

import (
	"errors"
	"fmt"
	"strings"
)

type PartOfDay string

const (
	Morning   PartOfDay = "morning"
	Afternoon PartOfDay = "afternoon"
)

func ParsePartOfDay(s string) (PartOfDay, error) {
	switch PartOfDay(strings.ToLower(strings.TrimSpace(s))) {
	case Morning:
		return Morning, nil
	case Afternoon:
		return Afternoon, nil
	default:
		return "", fmt.Errorf("unknown part of day %q", s)
	}
}

// TimeSlot is a time-of-day template such as "09:00" or "1:30", not bound to a date.
type TimeSlot string

var (
	DefaultMorning = []TimeSlot{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00"}

	DefaultAfternoon = []TimeSlot{"1:30", "2:00", "2:30", "3:00", "3:30", "4:00", "4:30", "5:00"}
)

var ErrEmptyCatalog = errors.New("catalog has no slots")

// Slots is the read side of a slot catalog.
type Slots interface {
	SlotsFor(part PartOfDay) []TimeSlot
	AllSlots() []TimeSlot
	IsValidSlot(slot TimeSlot) bool
}

// Catalog is an immutable ordered set of morning and afternoon slots.
type Catalog struct {
	morning   []TimeSlot
	afternoon []TimeSlot
	parts     map[TimeSlot]PartOfDay
}

func New(morning, afternoon []TimeSlot) (*Catalog, error) {
	if len(morning)+len(afternoon) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		morning:   make([]TimeSlot, 0, len(morning)),
		afternoon: make([]TimeSlot, 0, len(afternoon)),
		parts:     make(map[TimeSlot]PartOfDay, len(morning)+len(afternoon)),
	}

	add := func(part PartOfDay, slots []TimeSlot, dst *[]TimeSlot) error {
		for _, s := range slots {
			s = TimeSlot(strings.TrimSpace(string(s)))
			if s == "" {
				return fmt.Errorf("%s: empty slot value", part)
			}
			if _, dup := c.parts[s]; dup {
				return fmt.Errorf("%s: duplicate slot %q", part, s)
			}
			c.parts[s] = part
			*dst = append(*dst, s)
		}
		return nil
	}

	if err := add(Morning, morning, &c.morning); err != nil {
		return nil, err
	}
	if err := add(Afternoon, afternoon, &c.afternoon); err != nil {
		return nil, err
	}

	return c, nil
}

// Default returns the 7 morning + 8 afternoon catalog.
func Default() *Catalog {
	c, err := New(DefaultMorning, DefaultAfternoon)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) SlotsFor(part PartOfDay) []TimeSlot {
	switch part {
	case Morning:
		return append([]TimeSlot(nil), c.morning...)
	case Afternoon:
		return append([]TimeSlot(nil), c.afternoon...)
	default:
		return nil
	}
}

// AllSlots returns morning followed by afternoon.
func (c *Catalog) AllSlots() []TimeSlot {
	out := make([]TimeSlot, 0, len(c.morning)+len(c.afternoon))
	out = append(out, c.morning...)
	return append(out, c.afternoon...)
}

func (c *Catalog) IsValidSlot(slot TimeSlot) bool {
	_, ok := c.parts[slot]
	return ok
}

func (c *Catalog) PartOf(slot TimeSlot) (PartOfDay, bool) {
	p, ok := c.parts[slot]
	return p, ok
}

// PartOf looks up the part of day for slot when s is a *Catalog, and
// falls back to membership in SlotsFor otherwise.
func PartOf(s Slots, slot TimeSlot) PartOfDay {
	if c, ok := s.(*Catalog); ok {
		p, _ := c.PartOf(slot)
		return p
	}
	for _, m := range s.SlotsFor(Morning) {
		if m == slot {
			return Morning
		}
	}
	return Afternoon
}
