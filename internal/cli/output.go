package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/hackgods/clinic-booking/internal/api"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, header ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
	t.row(header...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.tw, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func renderCalendar(w io.Writer, cal *api.CalendarResponse) error {
	fmt.Fprintf(w, "%s  (prev %s, next %s)\n", cal.Month, cal.Prev, cal.Next)
	fmt.Fprintln(w, "  Su   Mo   Tu   We   Th   Fr   Sa")

	for row := 0; row*7 < len(cal.Cells); row++ {
		var b strings.Builder
		for _, c := range cal.Cells[row*7 : row*7+7] {
			switch {
			case c == nil:
				b.WriteString("     ")
			case c.IsPast:
				fmt.Fprintf(&b, " (%2d)", c.Day)
			default:
				fmt.Fprintf(&b, "  %2d ", c.Day)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	return nil
}

func renderSlots(w io.Writer, slots *api.SlotsResponse) error {
	date := slots.Date
	if date == "" {
		date = "no date selected"
	}
	fmt.Fprintf(w, "%s, %s\n", slots.ClinicID, date)

	for _, group := range []struct {
		name  string
		slots []api.SlotView
	}{
		{"Morning", slots.Morning},
		{"Afternoon", slots.Afternoon},
	} {
		parts := make([]string, 0, len(group.slots))
		for _, s := range group.slots {
			if s.Booked {
				parts = append(parts, s.Slot+" (booked)")
			} else {
				parts = append(parts, s.Slot)
			}
		}
		fmt.Fprintf(w, "%-10s %s\n", group.name+":", strings.Join(parts, "  "))
	}
	return nil
}

func renderAppointment(w io.Writer, a *api.AppointmentResponse) error {
	t := newTable(w, "FIELD", "VALUE")
	t.row("id", a.ID.String())
	t.row("clinic", a.ClinicID)
	t.row("date", a.CalendarDate)
	t.row("slot", a.TimeSlot)
	t.row("patient", a.PatientName)
	t.row("phone", a.PatientPhone)
	t.row("status", a.DisplayStatus)
	t.row("booked", humanize.Time(a.CreatedAt))
	t.row("updated", humanize.Time(a.UpdatedAt))
	return t.flush()
}

func renderAppointments(w io.Writer, appts []api.AppointmentResponse) error {
	if len(appts) == 0 {
		fmt.Fprintln(w, "no appointments")
		return nil
	}
	t := newTable(w, "ID", "CLINIC", "DATE", "SLOT", "PATIENT", "STATUS", "BOOKED")
	for _, a := range appts {
		t.row(a.ID.String(), a.ClinicID, a.CalendarDate, a.TimeSlot, a.PatientName, a.DisplayStatus, humanize.Time(a.CreatedAt))
	}
	if err := t.flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s appointments\n", humanize.Comma(int64(len(appts))))
	return nil
}
