package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daresni/database/repository"
	"daresni/models"
	"daresni/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoBookingRepo struct {
	coll *mongo.Collection
	loc  *time.Location
}

// NewMongoBookingRepo constructs a MongoDB BookingRepository.
func NewMongoBookingRepo(db *mongo.Database, loc *time.Location) BookingRepository {
	return &mongoBookingRepo{coll: db.Collection("bookings"), loc: loc}
}

func (r *mongoBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc bson.M
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	b := r.decode(doc)
	return &b, nil
}

func (r *mongoBookingRepo) Find(ctx context.Context, q Query) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return r.find(ctx, q)
}

func (r *mongoBookingRepo) find(ctx context.Context, q Query) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Booking{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		b := r.decode(doc)
		if q.Matches(&b) {
			out = append(out, b)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return out, nil
}

// Transition runs inside a transaction so the approved-slot check and the
// status update are atomic. The unique approved_slot_idx index backs it up for
// records carrying startAt.
func (r *mongoBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var updated *models.Booking
	txnFn := func(sc mongo.SessionContext) error {
		current, err := r.loadInSession(sc, id)
		if err != nil {
			return err
		}
		if !hasStatus(from, current.Status) {
			return repository.ErrStatusChanged
		}
		if to == models.StatusApproved {
			taken, err := r.approvedOnSlot(sc, current)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrConflict
			}
		}

		filter := bson.M{"id": id, "status": bson.M{"$in": statusValues(from)}}
		res, err := r.coll.UpdateOne(sc, filter, bson.M{"$set": bson.M{"status": to}})
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("update booking status failed: %w", err)
		}
		if res.MatchedCount == 0 {
			return repository.ErrStatusChanged
		}
		current.Status = to
		updated = current
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStatusChanged) || errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("booking transition failed: %w", err)
	}
	return updated, nil
}

func (r *mongoBookingRepo) loadInSession(sc mongo.SessionContext, id string) (*models.Booking, error) {
	var doc bson.M
	err := r.coll.FindOne(sc, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	b := r.decode(doc)
	return &b, nil
}

func (r *mongoBookingRepo) approvedOnSlot(ctx context.Context, b *models.Booking) (bool, error) {
	at, ok := b.Instant(r.loc)
	if !ok {
		return false, nil
	}
	date, clock, _ := b.Slot(r.loc)
	others, err := r.find(ctx, Query{
		TutorID:  b.TutorID,
		Statuses: []models.BookingStatus{models.StatusApproved},
		StartAt:  &at,
		Date:     date,
		Time:     clock,
	})
	if err != nil {
		return false, err
	}
	for _, o := range others {
		if o.ID != b.ID {
			return true, nil
		}
	}
	return false, nil
}

func (r *mongoBookingRepo) Delete(ctx context.Context, id string, from []models.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "status": bson.M{"$in": statusValues(from)}})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return repository.ErrStatusChanged
	}
	return nil
}

// Watch re-runs the query whenever the change stream reports a write to the
// collection. Deletes carry no document, so events are not filtered by party.
func (r *mongoBookingRepo) Watch(ctx context.Context, q Query) (*BookingSubscription, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}},
		}}},
	}
	stream, err := r.coll.Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to open booking change stream: %w", err)
	}

	return utils.Subscribe(ctx, func(ctx context.Context, emit func([]models.Booking)) error {
		defer stream.Close(context.Background())

		snapshot, err := r.find(ctx, q)
		if err != nil {
			return err
		}
		emit(snapshot)

		for stream.Next(ctx) {
			snapshot, err := r.find(ctx, q)
			if err != nil {
				return err
			}
			emit(snapshot)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return stream.Err()
	}), nil
}

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (r *mongoBookingRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// At most one approved booking per tutor instant.
		{
			Keys: bson.D{{Key: "tutorId", Value: 1}, {Key: "startAt", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("approved_slot_idx").
				SetPartialFilterExpression(bson.M{
					"status":  string(models.StatusApproved),
					"startAt": bson.M{"$exists": true},
				}),
		},
		{
			Keys:    bson.D{{Key: "tutorId", Value: 1}, {Key: "status", Value: 1}, {Key: "startAt", Value: 1}},
			Options: options.Index().SetName("tutor_status_start_idx"),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "status", Value: 1}, {Key: "startAt", Value: 1}},
			Options: options.Index().SetName("student_status_start_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) decode(doc bson.M) models.Booking {
	id, _ := doc["id"].(string)
	return models.DecodeBooking(id, doc, r.loc)
}

func buildFilter(q Query) bson.M {
	filter := bson.M{}
	if q.TutorID != "" {
		filter["tutorId"] = q.TutorID
	}
	if q.StudentID != "" {
		filter["studentId"] = q.StudentID
	}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": statusValues(q.Statuses)}
	}
	if q.StartAt != nil {
		or := bson.A{bson.M{"startAt": *q.StartAt}}
		if q.Date != "" && q.Time != "" {
			or = append(or, bson.M{"startAt": bson.M{"$exists": false}, "date": q.Date, "time": q.Time})
		}
		filter["$or"] = or
	}
	return filter
}

func statusValues(statuses []models.BookingStatus) bson.A {
	values := make(bson.A, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return values
}
