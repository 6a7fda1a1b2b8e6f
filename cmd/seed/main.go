package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/bootstrap"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/logging"
)

type seedOptions struct {
	Count       int
	Days        int
	CancelRatio float64
}

func (o seedOptions) validate() error {
	switch {
	case o.Count <= 0:
		return fmt.Errorf("--count must be positive, got %d", o.Count)
	case o.Days <= 0:
		return fmt.Errorf("--days must be positive, got %d", o.Days)
	case o.CancelRatio < 0 || o.CancelRatio > 1:
		return fmt.Errorf("--cancel-ratio must be between 0 and 1, got %g", o.CancelRatio)
	}
	return nil
}

func main() {
	if err := newSeedCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newSeedCommand() *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Fill the configured store with fake bookings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 200, "Number of bookings to attempt")
	cmd.Flags().IntVar(&opts.Days, "days", 30, "Spread bookings over this many days from today")
	cmd.Flags().Float64Var(&opts.CancelRatio, "cancel-ratio", 0.1, "Fraction of seeded bookings to cancel")

	return cmd
}

func runSeed(parent context.Context, opts seedOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Env, cfg.LogLevel).With().Str("service", "seed").Logger()

	ctx, cancel := context.WithTimeout(parent, 2*time.Minute)
	defer cancel()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer rt.Close()

	gofakeit.Seed(0)

	booked, err := seedAppointments(ctx, rt, opts.Count, opts.Days, opts.CancelRatio, logger)
	if err != nil {
		logger.Error().Err(err).Int("booked", booked).Msg("seed failed")
		return err
	}
	logger.Info().Int("booked", booked).Int("attempted", opts.Count).Msg("seed complete")
	return nil
}

func seedAppointments(ctx context.Context, rt *bootstrap.Runtime, count, days int, cancelRatio float64, logger zerolog.Logger) (int, error) {
	clinics := rt.Clinics.Clinics()
	if len(clinics) == 0 {
		return 0, errors.New("no clinics configured")
	}
	today := rt.Service.Today()

	booked := 0
	for i := 0; i < count; i++ {
		clinic := clinics[gofakeit.Number(0, len(clinics)-1)]
		slots := rt.Clinics.CatalogFor(clinic.ID).AllSlots()

		req := appointment.BookingRequest{
			ClinicID:     clinic.ID,
			Date:         today.AddDays(gofakeit.Number(0, days-1)),
			Slot:         slots[gofakeit.Number(0, len(slots)-1)],
			PatientName:  gofakeit.Name(),
			PatientPhone: gofakeit.Phone(),
		}

		a, err := rt.Service.Book(ctx, req)
		switch {
		case errors.Is(err, appointment.ErrSlotAlreadyBooked):
			continue
		case err != nil:
			return booked, err
		}
		booked++

		if gofakeit.Float64Range(0, 1) < cancelRatio {
			if _, err := rt.Service.Cancel(ctx, a.ID); err != nil {
				return booked, err
			}
		}

		if booked%50 == 0 {
			logger.Info().Int("booked", booked).Int("attempted", i+1).Msg("seeding")
		}
	}

	return booked, nil
}
