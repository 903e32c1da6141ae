package sessions

import (
	"context"

	"daresni/models"
	"daresni/utils"
)

// Feed streams the current session list after every change to the underlying bookings.
type Feed = utils.Subscription[[]models.SessionView]

type SessionService interface {
	// UpcomingFor lists pending and approved bookings starting now or later.
	// Records without startAt are always included.
	UpcomingFor(ctx context.Context, role models.Role, userID string) ([]models.SessionView, error)
	// HistoryFor lists completed and cancelled bookings.
	HistoryFor(ctx context.Context, role models.Role, userID string) ([]models.SessionView, error)
	// RequestsFor lists the pending requests a tutor has to answer.
	RequestsFor(ctx context.Context, tutorID string) ([]models.SessionView, error)

	WatchUpcoming(ctx context.Context, role models.Role, userID string) (*Feed, error)
	WatchHistory(ctx context.Context, role models.Role, userID string) (*Feed, error)
	WatchRequests(ctx context.Context, tutorID string) (*Feed, error)
}
