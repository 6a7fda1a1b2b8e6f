package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

const (
	pgUniqueViolation = "23505"
	activeSlotIndex   = "appointments_active_slot_uq"
)

const appointmentColumns = `id, clinic_id, calendar_date, time_slot, patient_name, patient_phone, status, created_at, updated_at`

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgRepository stores appointments in Postgres. The partial unique index
// appointments_active_slot_uq on (clinic_id, calendar_date, time_slot)
// WHERE status = 'upcoming' is the authoritative conflict guard.
type PgRepository struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool, db: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var date time.Time
	var slot, status string

	err := row.Scan(
		&a.ID,
		&a.ClinicID,
		&date,
		&slot,
		&a.PatientName,
		&a.PatientPhone,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Date = calendar.DateOf(date)
	a.Slot = catalog.TimeSlot(slot)
	a.Status = Status(status)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeSlotIndex
}

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, a *Appointment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (id, clinic_id, calendar_date, time_slot, patient_name, patient_phone, status, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.ClinicID, a.Date.String(), string(a.Slot), a.PatientName, a.PatientPhone, string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotAlreadyBooked
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// UpdateStatus is a compare-and-set from upcoming. A miss is resolved into
// ErrNotFound or ErrInvalidTransition with a second read.
func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !StatusUpcoming.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'upcoming'
		RETURNING `+appointmentColumns, id, string(to))

	updated, err := scanAppointment(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check appointment: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidTransition
}

func (r *PgRepository) Query(ctx context.Context, f Filter) ([]Appointment, error) {
	where, args := pgWhere(f)

	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments`+where+`
		ORDER BY seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func pgWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ID != nil {
		add("id = $%d", *f.ID)
	}
	if f.ClinicID != "" {
		add("clinic_id = $%d", f.ClinicID)
	}
	if f.Date != nil {
		add("calendar_date = $%d::date", f.Date.String())
	}
	if f.Slot != "" {
		add("time_slot = $%d", string(f.Slot))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Before != nil {
		add("calendar_date < $%d::date", f.Before.String())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}

// InTx runs fn against a repository bound to one Postgres transaction.
func (r *PgRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PgRepository{db: tx})
	})
}

// Publish appends the event to event_logs.
func (r *PgRepository) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Appointment)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, previous_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.Type, ev.AppointmentID, ev.PreviousID, payload, nullableTime(ev.OccurredAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
