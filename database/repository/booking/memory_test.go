package bookingRepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"daresni/database/repository"
	"daresni/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(hour int) *time.Time {
	t := time.Date(2025, time.March, 10, hour, 0, 0, 0, time.UTC)
	return &t
}

func seed(t *testing.T, repo *MemoryBookingRepo, b models.Booking) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &b))
}

func TestTransitionGuardsStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepo(time.UTC)
	seed(t, repo, models.Booking{ID: "b1", TutorID: "tutor_1", Status: models.StatusPending, StartAt: slotAt(10)})

	updated, err := repo.Transition(ctx, "b1", []models.BookingStatus{models.StatusPending}, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)

	_, err = repo.Transition(ctx, "b1", []models.BookingStatus{models.StatusPending}, models.StatusCancelled)
	assert.ErrorIs(t, err, repository.ErrStatusChanged)

	_, err = repo.Transition(ctx, "missing", []models.BookingStatus{models.StatusPending}, models.StatusApproved)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConcurrentApprovalsLeaveOneApproved(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepo(time.UTC)
	ids := []string{"b1", "b2", "b3", "b4"}
	for _, id := range ids {
		seed(t, repo, models.Booking{ID: id, TutorID: "tutor_1", Status: models.StatusPending, StartAt: slotAt(10)})
	}

	var wg sync.WaitGroup
	results := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := repo.Transition(ctx, id, []models.BookingStatus{models.StatusPending}, models.StatusApproved)
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, repository.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 3, conflicts)

	approved, err := repo.Find(ctx, Query{TutorID: "tutor_1", Statuses: []models.BookingStatus{models.StatusApproved}})
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestApprovalGuardCoversLegacyRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepo(time.UTC)
	seed(t, repo, models.Booking{ID: "legacy", TutorID: "tutor_1", Status: models.StatusApproved, Date: "2025-03-10", Time: "10:00"})
	seed(t, repo, models.Booking{ID: "b2", TutorID: "tutor_1", Status: models.StatusPending, StartAt: slotAt(10)})

	_, err := repo.Transition(ctx, "b2", []models.BookingStatus{models.StatusPending}, models.StatusApproved)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestFindBySlotMatchesLegacyMirrorFields(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepo(time.UTC)
	seed(t, repo, models.Booking{ID: "current", TutorID: "tutor_1", Status: models.StatusPending, StartAt: slotAt(10)})
	seed(t, repo, models.Booking{ID: "legacy", TutorID: "tutor_1", Status: models.StatusPending, Date: "2025-03-10", Time: "10:00"})
	seed(t, repo, models.Booking{ID: "other", TutorID: "tutor_1", Status: models.StatusPending, StartAt: slotAt(11)})

	found, err := repo.Find(ctx, Query{TutorID: "tutor_1", StartAt: slotAt(10), Date: "2025-03-10", Time: "10:00"})
	require.NoError(t, err)

	var ids []string
	for _, b := range found {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"current", "legacy"}, ids)
}

func TestDeleteGuardsStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepo(time.UTC)
	seed(t, repo, models.Booking{ID: "b1", Status: models.StatusApproved})

	assert.ErrorIs(t, repo.Delete(ctx, "b1", []models.BookingStatus{models.StatusPending}), repository.ErrStatusChanged)
	assert.ErrorIs(t, repo.Delete(ctx, "nope", []models.BookingStatus{models.StatusPending}), repository.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "b1", []models.BookingStatus{models.StatusApproved}))

	_, err := repo.GetByID(ctx, "b1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWatchEmitsOnChange(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBookingRepo(time.UTC)
	seed(t, repo, models.Booking{ID: "b1", StudentID: "s1", Status: models.StatusPending})

	sub, err := repo.Watch(ctx, Query{StudentID: "s1"})
	require.NoError(t, err)
	defer sub.Close()

	next := func() []models.Booking {
		select {
		case snap := <-sub.Updates():
			return snap
		case <-time.After(time.Second):
			t.Fatal("no snapshot")
			return nil
		}
	}

	assert.Len(t, next(), 1)

	seed(t, repo, models.Booking{ID: "b2", StudentID: "s1", Status: models.StatusPending, CreatedAt: time.Now()})
	assert.Eventually(t, func() bool {
		select {
		case snap := <-sub.Updates():
			return len(snap) == 2
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())
	repo.mu.RLock()
	assert.Empty(t, repo.watchers)
	repo.mu.RUnlock()
}
