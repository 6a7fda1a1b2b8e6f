package appointment

import (
	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

// IsBooked reports whether appts holds an upcoming appointment on exactly
// (clinicID, date, slot). Nothing is booked until both clinic and date are set.
func IsBooked(clinicID string, date calendar.Date, slot catalog.TimeSlot, appts []Appointment) bool {
	if clinicID == "" || date.IsZero() {
		return false
	}
	for _, a := range appts {
		if a.Status == StatusUpcoming && a.ClinicID == clinicID && a.Date == date && a.Slot == slot {
			return true
		}
	}
	return false
}

// Availability merges a catalog with the appointment set, morning first.
func Availability(slots catalog.Slots, clinicID string, date calendar.Date, appts []Appointment) []SlotAvailability {
	out := make([]SlotAvailability, 0, len(slots.AllSlots()))
	for _, part := range []catalog.PartOfDay{catalog.Morning, catalog.Afternoon} {
		for _, s := range slots.SlotsFor(part) {
			out = append(out, SlotAvailability{
				Slot:   s,
				Part:   part,
				Booked: IsBooked(clinicID, date, s, appts),
			})
		}
	}
	return out
}
