package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"daresni/database/repository"
	"daresni/models"
	"daresni/utils"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreBookingRepo struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
	loc    *time.Location
}

// NewFirestoreBookingRepo constructs a Firestore BookingRepository.
func NewFirestoreBookingRepo(client *firestore.Client, loc *time.Location) BookingRepository {
	return &firestoreBookingRepo{client: client, coll: client.Collection("bookings"), loc: loc}
}

func (r *firestoreBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data := map[string]interface{}{
		"tutorId":     b.TutorID,
		"tutorName":   b.TutorName,
		"studentId":   b.StudentID,
		"studentName": b.StudentName,
		"subject":     b.Subject,
		"status":      string(b.Status),
		"durationMin": b.DurationMinutes,
		"date":        b.Date,
		"time":        b.Time,
		"createdAt":   firestore.ServerTimestamp,
	}
	if b.StartAt != nil {
		data["startAt"] = *b.StartAt
	}
	if _, err := r.coll.Doc(b.ID).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("booking %s already exists: %w", b.ID, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *firestoreBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snap, err := r.coll.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	b := r.decode(snap)
	return &b, nil
}

func (r *firestoreBookingRepo) Find(ctx context.Context, q Query) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	queries := []firestore.Query{baseQuery(r.coll, q)}
	if q.StartAt != nil {
		exact := queries[0].Where("startAt", "==", *q.StartAt)
		queries = []firestore.Query{exact}
		if q.Date != "" && q.Time != "" {
			queries = append(queries, baseQuery(r.coll, q).Where("date", "==", q.Date).Where("time", "==", q.Time))
		}
	}

	seen := make(map[string]bool)
	out := []models.Booking{}
	for _, query := range queries {
		snaps, err := query.Documents(ctx).GetAll()
		if err != nil {
			return nil, fmt.Errorf("failed to query bookings: %w", err)
		}
		for _, snap := range snaps {
			if seen[snap.Ref.ID] {
				continue
			}
			seen[snap.Ref.ID] = true
			b := r.decode(snap)
			if q.Matches(&b) {
				out = append(out, b)
			}
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *firestoreBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ref := r.coll.Doc(id)
	var updated *models.Booking
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		current := r.decode(snap)
		if !hasStatus(from, current.Status) {
			return repository.ErrStatusChanged
		}

		if to == models.StatusApproved {
			if at, ok := current.Instant(r.loc); ok {
				approved, err := tx.Documents(r.coll.
					Where("tutorId", "==", current.TutorID).
					Where("status", "==", string(models.StatusApproved))).GetAll()
				if err != nil {
					return err
				}
				for _, s := range approved {
					other := r.decode(s)
					if other.ID == current.ID {
						continue
					}
					if otherAt, ok := other.Instant(r.loc); ok && otherAt.Equal(at) {
						return repository.ErrConflict
					}
				}
			}
		}

		if err := tx.Update(ref, []firestore.Update{{Path: "status", Value: string(to)}}); err != nil {
			return err
		}
		current.Status = to
		updated = &current
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStatusChanged) || errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("booking transition failed: %w", err)
	}
	return updated, nil
}

func (r *firestoreBookingRepo) Delete(ctx context.Context, id string, from []models.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ref := r.coll.Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		current := r.decode(snap)
		if !hasStatus(from, current.Status) {
			return repository.ErrStatusChanged
		}
		return tx.Delete(ref)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStatusChanged) {
			return err
		}
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

// Watch follows the query's snapshot listener; every listener event carries
// the full matching result set.
func (r *firestoreBookingRepo) Watch(ctx context.Context, q Query) (*BookingSubscription, error) {
	query := baseQuery(r.coll, q)

	return utils.Subscribe(ctx, func(ctx context.Context, emit func([]models.Booking)) error {
		it := query.Snapshots(ctx)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if status.Code(err) == codes.Canceled {
					return context.Canceled
				}
				return fmt.Errorf("booking listener failed: %w", err)
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				return fmt.Errorf("failed to read booking snapshot: %w", err)
			}
			out := make([]models.Booking, 0, len(snaps))
			for _, snap := range snaps {
				b := r.decode(snap)
				if q.Matches(&b) {
					out = append(out, b)
				}
			}
			sortByCreation(out)
			emit(out)
		}
	}), nil
}

func (r *firestoreBookingRepo) decode(snap *firestore.DocumentSnapshot) models.Booking {
	return models.DecodeBooking(snap.Ref.ID, snap.Data(), r.loc)
}

func baseQuery(coll *firestore.CollectionRef, q Query) firestore.Query {
	query := coll.Query
	if q.TutorID != "" {
		query = query.Where("tutorId", "==", q.TutorID)
	}
	if q.StudentID != "" {
		query = query.Where("studentId", "==", q.StudentID)
	}
	if len(q.Statuses) > 0 {
		values := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			values = append(values, string(s))
		}
		query = query.Where("status", "in", values)
	}
	return query
}

func sortByCreation(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID < bookings[j].ID
	})
}
