package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hackgods/clinic-booking/internal/calendar"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

const (
	appointmentsCollection = "appointments"
	countersCollection     = "counters"
	appointmentSeqCounter  = "appointments_seq"
)

type mongoAppointment struct {
	ID           string    `bson:"_id"`
	Seq          int64     `bson:"seq"`
	ClinicID     string    `bson:"clinic_id"`
	Date         string    `bson:"calendar_date"`
	Slot         string    `bson:"time_slot"`
	PatientName  string    `bson:"patient_name"`
	PatientPhone string    `bson:"patient_phone"`
	Status       string    `bson:"status"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toMongo(a *Appointment, seq int64) mongoAppointment {
	return mongoAppointment{
		ID:           a.ID.String(),
		Seq:          seq,
		ClinicID:     a.ClinicID,
		Date:         a.Date.String(),
		Slot:         string(a.Slot),
		PatientName:  a.PatientName,
		PatientPhone: a.PatientPhone,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

func (m mongoAppointment) toAppointment() (*Appointment, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("decode appointment id: %w", err)
	}
	date, err := calendar.ParseDate(m.Date)
	if err != nil {
		return nil, fmt.Errorf("decode appointment %s: %w", m.ID, err)
	}
	return &Appointment{
		ID:           id,
		ClinicID:     m.ClinicID,
		Date:         date,
		Slot:         catalog.TimeSlot(m.Slot),
		PatientName:  m.PatientName,
		PatientPhone: m.PatientPhone,
		Status:       Status(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// MongoRepository stores appointments in MongoDB. Conflicts are rejected by
// a partial unique index on (clinic_id, calendar_date, time_slot) over
// upcoming documents; insertion order comes from a counters sequence.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	db := client.Database(database)
	return &MongoRepository{
		client:     client,
		collection: db.Collection(appointmentsCollection),
		counters:   db.Collection(countersCollection),
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "clinic_id", Value: 1}, {Key: "calendar_date", Value: 1}, {Key: "time_slot", Value: 1}},
			Options: options.Index().
				SetName("appointments_active_slot_uq").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(StatusUpcoming)}),
		},
		{
			Keys:    bson.D{{Key: "seq", Value: 1}},
			Options: options.Index().SetName("appointments_seq"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "calendar_date", Value: 1}},
			Options: options.Index().SetName("appointments_status_date"),
		},
	})
	if err != nil {
		return fmt.Errorf("create appointment indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": appointmentSeqCounter},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next appointment seq: %w", err)
	}
	return counter.Value, nil
}

func (r *MongoRepository) Insert(ctx context.Context, a *Appointment) error {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}

	if _, err := r.collection.InsertOne(ctx, toMongo(a, seq)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotAlreadyBooked
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	if !StatusUpcoming.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	var doc mongoAppointment
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String(), "status": string(StatusUpcoming)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toAppointment()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("check appointment: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrInvalidTransition
}

func (r *MongoRepository) Query(ctx context.Context, f Filter) ([]Appointment, error) {
	cursor, err := r.collection.Find(ctx, mongoFilter(f), options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var result []Appointment
	for cursor.Next(ctx) {
		var doc mongoAppointment
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode appointment: %w", err)
		}
		a, err := doc.toAppointment()
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func mongoFilter(f Filter) bson.M {
	q := bson.M{}
	if f.ID != nil {
		q["_id"] = f.ID.String()
	}
	if f.ClinicID != "" {
		q["clinic_id"] = f.ClinicID
	}
	if f.Slot != "" {
		q["time_slot"] = string(f.Slot)
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}

	// dates are stored as YYYY-MM-DD so string order is date order
	switch {
	case f.Date != nil && f.Before != nil:
		if f.Date.Before(*f.Before) {
			q["calendar_date"] = f.Date.String()
		} else {
			q["calendar_date"] = bson.M{"$in": bson.A{}}
		}
	case f.Date != nil:
		q["calendar_date"] = f.Date.String()
	case f.Before != nil:
		q["calendar_date"] = bson.M{"$lt": f.Before.String()}
	}

	return q
}

// InTx runs fn inside a MongoDB transaction. The driver may retry fn on
// transient errors.
func (r *MongoRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (any, error) {
		return nil, fn(sessCtx, r)
	})
	return err
}
