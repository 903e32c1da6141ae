package bookingRepo

import (
	"context"
	"time"

	"daresni/models"
	"daresni/utils"
)

// Query selects bookings by party, status and slot. Zero fields are ignored.
// When StartAt is set, records carrying startAt must match it exactly and
// legacy records without startAt must match Date and Time.
type Query struct {
	TutorID   string
	StudentID string
	Statuses  []models.BookingStatus
	StartAt   *time.Time
	Date      string
	Time      string
}

// Matches applies the query to a decoded booking.
func (q Query) Matches(b *models.Booking) bool {
	if q.TutorID != "" && b.TutorID != q.TutorID {
		return false
	}
	if q.StudentID != "" && b.StudentID != q.StudentID {
		return false
	}
	if len(q.Statuses) > 0 && !hasStatus(q.Statuses, b.Status) {
		return false
	}
	if q.StartAt != nil {
		if b.StartAt != nil {
			return b.StartAt.Equal(*q.StartAt)
		}
		return q.Date != "" && b.Date == q.Date && b.Time == q.Time
	}
	return true
}

func hasStatus(statuses []models.BookingStatus, s models.BookingStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// BookingSubscription streams the full result set of a query after every change.
type BookingSubscription = utils.Subscription[[]models.Booking]

// BookingRepository persists bookings.
type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	// GetByID returns repository.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	Find(ctx context.Context, q Query) ([]models.Booking, error)
	// Transition moves a booking whose status is one of from to status to and
	// returns the updated record. It fails with repository.ErrStatusChanged when
	// the stored status is not in from, and with repository.ErrConflict when
	// approving would leave two approved bookings on the same tutor slot.
	Transition(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error)
	// Delete removes a booking whose status is one of from.
	Delete(ctx context.Context, id string, from []models.BookingStatus) error
	// Watch emits the current result set of q, then again after every change,
	// until the subscription is closed or ctx ends.
	Watch(ctx context.Context, q Query) (*BookingSubscription, error)
}
