package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/client"
)

func newClinicsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clinics",
		Short: "List clinics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			clinics, err := opts.client().Clinics(ctx)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), clinics)
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "ADDRESS")
			for _, c := range clinics {
				tw.row(c.ID, c.Name, c.Address)
			}
			return tw.flush()
		},
	}
}

func newCalendarCmd(opts *globalOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month grid; past days are in parentheses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			cal, err := opts.client().Calendar(ctx, month)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), cal)
			}
			return renderCalendar(cmd.OutOrStdout(), cal)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")
	return cmd
}

func newSlotsCmd(opts *globalOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "slots <clinic-id>",
		Short: "Show morning and afternoon slots for a clinic and date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			slots, err := opts.client().Slots(ctx, args[0], date)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), slots)
			}
			return renderSlots(cmd.OutOrStdout(), slots)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD")
	return cmd
}

func newBookCmd(opts *globalOptions) *cobra.Command {
	var req api.BookAppointmentRequest
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			appt, err := opts.client().Book(ctx, req)
			if err != nil {
				return err
			}
			return printAppointment(cmd, opts, appt)
		},
	}
	cmd.Flags().StringVar(&req.ClinicID, "clinic", "", "Clinic ID")
	cmd.Flags().StringVar(&req.CalendarDate, "date", "", "Date as YYYY-MM-DD")
	cmd.Flags().StringVar(&req.TimeSlot, "slot", "", "Time slot, e.g. 09:00 or 1:30")
	cmd.Flags().StringVar(&req.PatientName, "name", "", "Patient name")
	cmd.Flags().StringVar(&req.PatientPhone, "phone", "", "Patient phone")
	return cmd
}

func newGetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <appointment-id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			appt, err := opts.client().Get(ctx, id)
			if err != nil {
				return err
			}
			return printAppointment(cmd, opts, appt)
		},
	}
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var clinicID, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments",
		Long:  "List appointments in booking order. --status accepts upcoming, completed, canceled and the synonyms confirmed, pending and cancelled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			appts, err := opts.client().List(ctx, clinicID, status)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), appts)
			}
			return renderAppointments(cmd.OutOrStdout(), appts)
		},
	}
	cmd.Flags().StringVar(&clinicID, "clinic", "", "Only this clinic")
	cmd.Flags().StringVar(&status, "status", "", "Only this status")
	return cmd
}

type transitionCall func(ctx context.Context, id uuid.UUID) (*api.AppointmentResponse, error)

func newCancelCmd(opts *globalOptions) *cobra.Command {
	return newTransitionCmd(opts, "cancel", "Cancel an upcoming appointment",
		func(c *client.Client) transitionCall { return c.Cancel })
}

func newCompleteCmd(opts *globalOptions) *cobra.Command {
	return newTransitionCmd(opts, "complete", "Mark an upcoming appointment completed",
		func(c *client.Client) transitionCall { return c.Complete })
}

func newTransitionCmd(opts *globalOptions, use, short string, pick func(*client.Client) transitionCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <appointment-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			appt, err := pick(opts.client())(ctx, id)
			if err != nil {
				return err
			}
			return printAppointment(cmd, opts, appt)
		},
	}
}

func newRescheduleCmd(opts *globalOptions) *cobra.Command {
	var date, slot string
	cmd := &cobra.Command{
		Use:   "reschedule <appointment-id>",
		Short: "Move an upcoming appointment to a new date and slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := opts.context(cmd)
			defer cancel()

			appt, err := opts.client().Reschedule(ctx, id, date, slot)
			if err != nil {
				return err
			}
			return printAppointment(cmd, opts, appt)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "New date as YYYY-MM-DD")
	cmd.Flags().StringVar(&slot, "slot", "", "New time slot")
	return cmd
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid appointment id %q", raw)
	}
	return id, nil
}

func printAppointment(cmd *cobra.Command, opts *globalOptions, appt *api.AppointmentResponse) error {
	if opts.JSON {
		return writeJSON(cmd.OutOrStdout(), appt)
	}
	return renderAppointment(cmd.OutOrStdout(), appt)
}
