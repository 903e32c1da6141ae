package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"daresni/database/repository"
	"daresni/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreAvailabilityRepo struct {
	coll *firestore.CollectionRef
}

// NewFirestoreAvailabilityRepo constructs a Firestore AvailabilityRepository.
func NewFirestoreAvailabilityRepo(client *firestore.Client) AvailabilityRepository {
	return &firestoreAvailabilityRepo{coll: client.Collection("availabilities")}
}

func (r *firestoreAvailabilityRepo) Get(ctx context.Context, tutorID, date string) (*models.TutorAvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snap, err := r.coll.Doc(models.AvailabilityKey(tutorID, date)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return decodeSnapshot(snap)
}

func (r *firestoreAvailabilityRepo) Set(ctx context.Context, tutorID, date string, slots []string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.Doc(models.AvailabilityKey(tutorID, date)).Set(ctx, map[string]interface{}{
		"tutorId":   tutorID,
		"date":      date,
		"slots":     nonNil(slots),
		"updatedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

func (r *firestoreAvailabilityRepo) AddSlot(ctx context.Context, tutorID, date, slot string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.Doc(models.AvailabilityKey(tutorID, date)).Set(ctx, map[string]interface{}{
		"tutorId":   tutorID,
		"date":      date,
		"slots":     firestore.ArrayUnion(slot),
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to add slot: %w", err)
	}
	return nil
}

func (r *firestoreAvailabilityRepo) RemoveSlot(ctx context.Context, tutorID, date, slot string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.Doc(models.AvailabilityKey(tutorID, date)).Update(ctx, []firestore.Update{
		{Path: "slots", Value: firestore.ArrayRemove(slot)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove slot: %w", err)
	}
	return nil
}

func (r *firestoreAvailabilityRepo) FindInRange(ctx context.Context, startDate, endDate string) ([]models.TutorAvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snaps, err := r.coll.Where("date", ">=", startDate).Where("date", "<", endDate).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query availability window: %w", err)
	}
	records := make([]models.TutorAvailabilityRecord, 0, len(snaps))
	for _, snap := range snaps {
		rec, err := decodeSnapshot(snap)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func decodeSnapshot(snap *firestore.DocumentSnapshot) (*models.TutorAvailabilityRecord, error) {
	var rec models.TutorAvailabilityRecord
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode availability %s: %w", snap.Ref.ID, err)
	}
	rec.Slots = nonNil(rec.Slots)
	return &rec, nil
}
