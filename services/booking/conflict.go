package booking

import (
	"context"
	"time"

	"daresni/apperrors"
	bookingRepo "daresni/database/repository/booking"
	"daresni/models"
	"daresni/utils"
)

// DefaultConflictChecker queries the booking store. It is a read-before-write
// guard only; exclusivity of approvals is enforced again by the store.
type DefaultConflictChecker struct {
	Repo     bookingRepo.BookingRepository
	Location *time.Location
}

func (c *DefaultConflictChecker) HasActiveConflict(ctx context.Context, tutorID string, at time.Time) (bool, error) {
	found, err := c.Repo.Find(ctx, c.slotQuery(tutorID, at, models.ActiveStatuses))
	if err != nil {
		return false, apperrors.Store(err, "failed to check slot")
	}
	return len(found) > 0, nil
}

func (c *DefaultConflictChecker) HasApprovedConflict(ctx context.Context, tutorID string, at time.Time, excludingBookingID string) (bool, error) {
	found, err := c.Repo.Find(ctx, c.slotQuery(tutorID, at, []models.BookingStatus{models.StatusApproved}))
	if err != nil {
		return false, apperrors.Store(err, "failed to check slot")
	}
	for _, b := range found {
		if b.ID != excludingBookingID {
			return true, nil
		}
	}
	return false, nil
}

// slotQuery also matches legacy records that only carry date and time.
func (c *DefaultConflictChecker) slotQuery(tutorID string, at time.Time, statuses []models.BookingStatus) bookingRepo.Query {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	local := at.In(loc)
	return bookingRepo.Query{
		TutorID:  tutorID,
		Statuses: statuses,
		StartAt:  &at,
		Date:     local.Format(utils.DateLayout),
		Time:     local.Format(utils.ClockLayout),
	}
}
