package booking

import (
	"context"
	"time"

	"daresni/models"
)

// ConflictChecker answers whether a tutor's instant is already taken.
type ConflictChecker interface {
	// HasActiveConflict reports whether a pending or approved booking holds the instant.
	HasActiveConflict(ctx context.Context, tutorID string, at time.Time) (bool, error)
	// HasApprovedConflict reports whether a booking other than excludingBookingID
	// is approved for the instant.
	HasApprovedConflict(ctx context.Context, tutorID string, at time.Time, excludingBookingID string) (bool, error)
}

// CreateBookingInput carries a student's request. StudentName may be empty, in
// which case StudentEmail is used as the display name.
type CreateBookingInput struct {
	StudentID       string
	StudentName     string
	StudentEmail    string
	TutorID         string
	Subject         string
	Date            string
	Time            string
	DurationMinutes int
}

// BookingService drives the booking state machine.
type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ApproveBooking(ctx context.Context, id string) (*models.Booking, error)
	// RejectBooking removes a pending request, or marks it cancelled under the cancel policy.
	RejectBooking(ctx context.Context, id string) error
	// CancelBooking restores the slot to the tutor's availability, then cancels.
	CancelBooking(ctx context.Context, id string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, id string) (*models.Booking, error)
}
