package availabilityRepo

import (
	"context"
	"sync"
	"testing"

	"daresni/database/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoSetReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAvailabilityRepo()

	_, err := repo.Get(ctx, "tutor_1", "2025-03-10")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-10", []string{"10:00", "11:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-10", []string{"14:00"}))

	rec, err := repo.Get(ctx, "tutor_1", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00"}, rec.Slots)
}

func TestMemoryRepoSlotSetOperations(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAvailabilityRepo()

	require.NoError(t, repo.AddSlot(ctx, "tutor_1", "2025-03-10", "10:00"))
	require.NoError(t, repo.AddSlot(ctx, "tutor_1", "2025-03-10", "10:00"))
	require.NoError(t, repo.RemoveSlot(ctx, "tutor_1", "2025-03-11", "10:00"))

	rec, err := repo.Get(ctx, "tutor_1", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, rec.Slots)

	require.NoError(t, repo.RemoveSlot(ctx, "tutor_1", "2025-03-10", "10:00"))
	rec, err = repo.Get(ctx, "tutor_1", "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, rec.Slots)
}

func TestMemoryRepoConcurrentAddsKeepEverySlot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAvailabilityRepo()
	slots := []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00"}

	var wg sync.WaitGroup
	for _, s := range slots {
		wg.Add(1)
		go func(slot string) {
			defer wg.Done()
			assert.NoError(t, repo.AddSlot(ctx, "tutor_1", "2025-03-10", slot))
		}(s)
	}
	wg.Wait()

	rec, err := repo.Get(ctx, "tutor_1", "2025-03-10")
	require.NoError(t, err)
	assert.ElementsMatch(t, slots, rec.Slots)
}

func TestMemoryRepoFindInRangeIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAvailabilityRepo()
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-09", []string{"09:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-10", []string{"10:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_2", "2025-03-12", []string{"11:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_2", "2025-03-13", []string{"12:00"}))

	recs, err := repo.FindInRange(ctx, "2025-03-10", "2025-03-13")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2025-03-10", recs[0].Date)
	assert.Equal(t, "2025-03-12", recs[1].Date)
}
