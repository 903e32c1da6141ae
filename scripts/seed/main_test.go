package main

import (
	"context"
	"math/rand"
	"sort"
	"testing"
	"time"

	availabilityRepo "daresni/database/repository/availability"
	userRepo "daresni/database/repository/user"
	"daresni/models"
	"daresni/services/availability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingAvailability counts replacements routed through the service.
type recordingAvailability struct {
	availability.AvailabilityService
	sets int
}

func (r *recordingAvailability) SetAvailability(ctx context.Context, tutorID, date string, slots []string) ([]string, error) {
	r.sets++
	return r.AvailabilityService.SetAvailability(ctx, tutorID, date, slots)
}

func TestSeedWritesThroughAvailabilityService(t *testing.T) {
	ctx := context.Background()
	users := userRepo.NewMemoryUserRepo()
	repo := availabilityRepo.NewMemoryAvailabilityRepo()
	avail := &recordingAvailability{
		AvailabilityService: availability.NewAvailabilityService(repo, nil, nil, zap.NewNop(), availability.Options{Location: time.UTC}),
	}
	now := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	written, err := seed(ctx, users, avail, 3, now, time.UTC, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 6, written)
	assert.Equal(t, 6, avail.sets)

	tutors, err := users.ListByRole(ctx, models.RoleTutor)
	require.NoError(t, err)
	assert.Len(t, tutors, 2)

	for _, date := range []string{"2025-03-02", "2025-03-04"} {
		slots, err := avail.GetAvailability(ctx, "tutor_1", date)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(slots), 2)
		assert.True(t, sort.StringsAreSorted(slots))
	}
	slots, err := avail.GetAvailability(ctx, "tutor_1", "2025-03-01")
	require.NoError(t, err)
	assert.Empty(t, slots)
}
