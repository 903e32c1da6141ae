package availability

import (
	"context"

	"daresni/models"
)

// AvailabilityService reads and edits tutors' open slots.
type AvailabilityService interface {
	// GetAvailability returns the sorted slots of a date, empty when none are stored.
	GetAvailability(ctx context.Context, tutorID, date string) ([]string, error)
	// GetAvailabilityWindow fetches every date concurrently. A failed date is
	// logged and reported as empty; it never fails the others.
	GetAvailabilityWindow(ctx context.Context, tutorID string, dates []string) map[string][]string
	// SetAvailability replaces the slots of a date and returns the stored set.
	SetAvailability(ctx context.Context, tutorID, date string, slots []string) ([]string, error)
	AddSlot(ctx context.Context, tutorID, date, slot string) error
	RemoveSlot(ctx context.Context, tutorID, date, slot string) error
	// EarliestAcrossWindow maps every tutor with a slot in
	// [windowStart, windowStart+days) to its earliest one.
	EarliestAcrossWindow(ctx context.Context, windowStart string, days int) (map[string]models.EarliestSlot, error)
	// EarliestForTutor returns nil when the tutor has no slot in the window.
	EarliestForTutor(ctx context.Context, tutorID, windowStart string, days int) (*models.EarliestSlot, error)
}
