package availabilityRepo

import (
	"context"

	"daresni/models"
)

// AvailabilityRepository persists TutorAvailabilityRecords keyed by {tutorId}_{date}.
//
// AddSlot and RemoveSlot are atomic set operations on a single document, so a
// tutor editing a date and a cancellation restoring a slot never lose each
// other's writes.
type AvailabilityRepository interface {
	// Get returns repository.ErrNotFound when no record exists.
	Get(ctx context.Context, tutorID, date string) (*models.TutorAvailabilityRecord, error)
	// Set replaces the slot set for the date.
	Set(ctx context.Context, tutorID, date string, slots []string) error
	// AddSlot unions slot into the record, creating it when absent.
	AddSlot(ctx context.Context, tutorID, date, slot string) error
	// RemoveSlot removes slot; a missing record or slot is not an error.
	RemoveSlot(ctx context.Context, tutorID, date, slot string) error
	// FindInRange returns every record with startDate <= date < endDate.
	FindInRange(ctx context.Context, startDate, endDate string) ([]models.TutorAvailabilityRecord, error)
}
