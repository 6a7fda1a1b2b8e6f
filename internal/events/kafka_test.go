package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/calendar"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func sampleEvent() appointment.Event {
	a := appointment.Appointment{
		ID:       uuid.New(),
		ClinicID: "sz",
		Date:     calendar.Date{Year: 2025, Month: time.March, Day: 10},
		Slot:     "09:00",
		Status:   appointment.StatusUpcoming,
	}
	return appointment.Event{
		Type:          appointment.EventAppointmentBooked,
		AppointmentID: a.ID,
		Appointment:   a,
		OccurredAt:    time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublisherMessageShape(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}
	ev := sampleEvent()

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "sz" {
		t.Errorf("expected clinic key, got %q", msg.Key)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != appointment.EventAppointmentBooked {
		t.Errorf("unexpected headers %+v", msg.Headers)
	}

	var decoded struct {
		Type        string `json:"type"`
		Appointment struct {
			Date string `json:"calendar_date"`
			Slot string `json:"time_slot"`
		} `json:"appointment"`
	}
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != appointment.EventAppointmentBooked || decoded.Appointment.Date != "2025-03-10" || decoded.Appointment.Slot != "09:00" {
		t.Errorf("unexpected payload %s", msg.Value)
	}
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &KafkaPublisher{writer: &fakeWriter{err: boom}}

	if err := p.Publish(context.Background(), sampleEvent()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
}

func TestNewKafkaPublisherValidates(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "topic", zerolog.Nop()); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, "", zerolog.Nop()); err == nil {
		t.Fatalf("expected error without topic")
	}
}

type publisherFunc func(ctx context.Context, ev appointment.Event) error

func (f publisherFunc) Publish(ctx context.Context, ev appointment.Event) error { return f(ctx, ev) }

func TestFanoutDeliversToAllSinks(t *testing.T) {
	calls := 0
	ok := publisherFunc(func(context.Context, appointment.Event) error { calls++; return nil })
	failing := publisherFunc(func(context.Context, appointment.Event) error { calls++; return errors.New("down") })

	err := Fanout{failing, ok}.Publish(context.Background(), sampleEvent())
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if calls != 2 {
		t.Fatalf("every sink must be called, got %d calls", calls)
	}
}
