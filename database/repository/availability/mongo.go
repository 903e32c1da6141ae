package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daresni/database/repository"
	"daresni/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

type availabilityDoc struct {
	Key       string    `bson:"_id"`
	TutorID   string    `bson:"tutorId"`
	Date      string    `bson:"date"`
	Slots     []string  `bson:"slots"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongoAvailabilityRepo constructs a MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	return &mongoAvailabilityRepo{coll: db.Collection("availabilities")}
}

func (r *mongoAvailabilityRepo) Get(ctx context.Context, tutorID, date string) (*models.TutorAvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc availabilityDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": models.AvailabilityKey(tutorID, date)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return doc.record(), nil
}

func (r *mongoAvailabilityRepo) Set(ctx context.Context, tutorID, date string, slots []string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	key := models.AvailabilityKey(tutorID, date)
	doc := availabilityDoc{Key: key, TutorID: tutorID, Date: date, Slots: nonNil(slots), UpdatedAt: time.Now()}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) AddSlot(ctx context.Context, tutorID, date, slot string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$addToSet":    bson.M{"slots": slot},
		"$set":         bson.M{"updatedAt": time.Now()},
		"$setOnInsert": bson.M{"tutorId": tutorID, "date": date},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": models.AvailabilityKey(tutorID, date)}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add slot: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) RemoveSlot(ctx context.Context, tutorID, date, slot string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"slots": slot},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"_id": models.AvailabilityKey(tutorID, date)}, update); err != nil {
		return fmt.Errorf("failed to remove slot: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) FindInRange(ctx context.Context, startDate, endDate string) ([]models.TutorAvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"date": bson.M{"$gte": startDate, "$lt": endDate}}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability window: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []availabilityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode availability window: %w", err)
	}
	records := make([]models.TutorAvailabilityRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, *d.record())
	}
	return records, nil
}

// EnsureIndexes creates the necessary indexes on the availabilities collection.
func (r *mongoAvailabilityRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Window scans filter on date only.
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetName("date_idx"),
		},
		{
			Keys:    bson.D{{Key: "tutorId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("tutor_date_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create availability indexes: %w", err)
	}
	return nil
}

func (d *availabilityDoc) record() *models.TutorAvailabilityRecord {
	return &models.TutorAvailabilityRecord{
		TutorID:   d.TutorID,
		Date:      d.Date,
		Slots:     nonNil(d.Slots),
		UpdatedAt: d.UpdatedAt,
	}
}

func nonNil(slots []string) []string {
	if slots == nil {
		return []string{}
	}
	return slots
}
