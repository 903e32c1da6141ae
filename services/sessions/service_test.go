package sessions

import (
	"context"
	"testing"
	"time"

	"daresni/apperrors"
	bookingRepo "daresni/database/repository/booking"
	"daresni/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	riyadh = time.FixedZone("AST", 3*60*60)
	now    = time.Date(2025, time.March, 5, 12, 0, 0, 0, riyadh)
)

func instant(date, clock string) *time.Time {
	t, _ := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, riyadh)
	return &t
}

func newService(t *testing.T, seed ...models.Booking) (*DefaultSessionService, *bookingRepo.MemoryBookingRepo) {
	t.Helper()
	repo := bookingRepo.NewMemoryBookingRepo(riyadh)
	for i := range seed {
		b := seed[i]
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		}
		require.NoError(t, repo.Create(context.Background(), &b))
	}
	return NewSessionService(repo, zap.NewNop(), riyadh, func() time.Time { return now }), repo
}

func ids(views []models.SessionView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestUpcomingForFiltersAndOrders(t *testing.T) {
	svc, _ := newService(t,
		models.Booking{ID: "later", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusApproved, StartAt: instant("2025-03-10", "10:00")},
		models.Booking{ID: "sooner", TutorID: "tutor_1", StudentID: "student_2", Status: models.StatusPending, StartAt: instant("2025-03-06", "09:00")},
		models.Booking{ID: "past", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusApproved, StartAt: instant("2025-03-01", "09:00")},
		models.Booking{ID: "legacy", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusApproved, Date: "2025-02-01", Time: "08:00"},
		models.Booking{ID: "done", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusCompleted, StartAt: instant("2025-03-12", "10:00")},
		models.Booking{ID: "other", TutorID: "tutor_2", StudentID: "student_1", Status: models.StatusApproved, StartAt: instant("2025-03-11", "10:00")},
	)
	ctx := context.Background()

	tutorViews, err := svc.UpcomingFor(ctx, models.RoleTutor, "tutor_1")
	require.NoError(t, err)
	// Legacy records cannot be time-filtered, so they stay in the list.
	assert.Equal(t, []string{"legacy", "sooner", "later"}, ids(tutorViews))

	studentViews, err := svc.UpcomingFor(ctx, models.RoleStudent, "student_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy", "later", "other"}, ids(studentViews))
}

func TestUpcomingIncludesSessionStartingNow(t *testing.T) {
	svc, _ := newService(t,
		models.Booking{ID: "now", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusApproved, StartAt: &now},
	)
	views, err := svc.UpcomingFor(context.Background(), models.RoleTutor, "tutor_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"now"}, ids(views))
}

func TestHistoryForListsFinishedSessions(t *testing.T) {
	svc, _ := newService(t,
		models.Booking{ID: "cancelled", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusCancelled, StartAt: instant("2025-03-08", "10:00")},
		models.Booking{ID: "completed", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusCompleted, StartAt: instant("2025-02-20", "10:00")},
		models.Booking{ID: "pending", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusPending, StartAt: instant("2025-03-09", "10:00")},
		models.Booking{ID: "undated", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusCancelled},
	)

	views, err := svc.HistoryFor(context.Background(), models.RoleStudent, "student_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"completed", "cancelled", "undated"}, ids(views))
	assert.Equal(t, NoWhen, views[2].When)
}

func TestRequestsForListsPendingOnly(t *testing.T) {
	svc, _ := newService(t,
		models.Booking{ID: "r2", TutorID: "tutor_1", Status: models.StatusPending, StartAt: instant("2025-03-09", "10:00")},
		models.Booking{ID: "r1", TutorID: "tutor_1", Status: models.StatusPending, StartAt: instant("2025-03-07", "10:00")},
		models.Booking{ID: "approved", TutorID: "tutor_1", Status: models.StatusApproved, StartAt: instant("2025-03-07", "11:00")},
	)

	views, err := svc.RequestsFor(context.Background(), "tutor_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids(views))
}

func TestScopeValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.UpcomingFor(ctx, models.RoleAdmin, "admin_1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.HistoryFor(ctx, models.RoleStudent, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.WatchRequests(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestFormatWhen(t *testing.T) {
	withStart := models.Booking{StartAt: instant("2025-03-10", "10:00")}
	assert.Equal(t, "Mon, 10 Mar 2025 10:00", FormatWhen(&withStart, riyadh))

	utcStart := time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)
	converted := models.Booking{StartAt: &utcStart}
	assert.Equal(t, "Mon, 10 Mar 2025 10:00", FormatWhen(&converted, riyadh))

	legacy := models.Booking{Date: "2025-03-10", Time: "10:00"}
	assert.Equal(t, "Mon, 10 Mar 2025 10:00", FormatWhen(&legacy, riyadh))

	broken := models.Booking{Date: "soon", Time: "N/A"}
	assert.Equal(t, NoWhen, FormatWhen(&broken, riyadh))
	assert.Equal(t, NoWhen, FormatWhen(&models.Booking{}, riyadh))
}

func waitFor(t *testing.T, feed *Feed, want []string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case views, ok := <-feed.Updates():
			require.True(t, ok, "feed closed early")
			if assert.ObjectsAreEqual(want, ids(views)) {
				return
			}
		case <-timeout:
			t.Fatalf("feed never emitted %v", want)
		}
	}
}

func TestWatchUpcomingFollowsChanges(t *testing.T) {
	svc, repo := newService(t,
		models.Booking{ID: "b1", TutorID: "tutor_1", StudentID: "student_1", Status: models.StatusPending, StartAt: instant("2025-03-10", "10:00")},
	)
	ctx := context.Background()

	feed, err := svc.WatchUpcoming(ctx, models.RoleStudent, "student_1")
	require.NoError(t, err)
	defer feed.Close()
	waitFor(t, feed, []string{"b1"})

	require.NoError(t, repo.Create(ctx, &models.Booking{
		ID: "b0", TutorID: "tutor_2", StudentID: "student_1", Status: models.StatusPending,
		StartAt: instant("2025-03-07", "10:00"), CreatedAt: now,
	}))
	waitFor(t, feed, []string{"b0", "b1"})

	_, err = repo.Transition(ctx, "b1", models.ActiveStatuses, models.StatusCancelled)
	require.NoError(t, err)
	waitFor(t, feed, []string{"b0"})
}

func TestWatchHistoryCloseReleasesFeed(t *testing.T) {
	svc, _ := newService(t,
		models.Booking{ID: "old", TutorID: "tutor_1", Status: models.StatusCompleted, StartAt: instant("2025-02-10", "10:00")},
	)

	feed, err := svc.WatchHistory(context.Background(), models.RoleTutor, "tutor_1")
	require.NoError(t, err)
	waitFor(t, feed, []string{"old"})

	assert.NoError(t, feed.Close())
	assert.NoError(t, feed.Close())
	for range feed.Updates() {
	}
}
