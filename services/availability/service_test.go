package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"daresni/apperrors"
	availabilityRepo "daresni/database/repository/availability"
	"daresni/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyRepo fails Get for the listed dates.
type flakyRepo struct {
	*availabilityRepo.MemoryAvailabilityRepo
	failing map[string]bool
}

func (r *flakyRepo) Get(ctx context.Context, tutorID, date string) (*models.TutorAvailabilityRecord, error) {
	if r.failing[date] {
		return nil, errors.New("deadline exceeded")
	}
	return r.MemoryAvailabilityRepo.Get(ctx, tutorID, date)
}

func newService(repo availabilityRepo.AvailabilityRepository) *DefaultAvailabilityService {
	return NewAvailabilityService(repo, nil, nil, zap.NewNop(), Options{Location: time.UTC})
}

func TestEarliestAcrossWindowPicksEarliestDateFirst(t *testing.T) {
	ctx := context.Background()
	repo := availabilityRepo.NewMemoryAvailabilityRepo()
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-10", []string{"10:00", "11:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-11", []string{"09:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_2", "2025-03-12", []string{"15:30", "08:00"}))
	svc := newService(repo)

	got, err := svc.EarliestAcrossWindow(ctx, "2025-03-10", 14)
	require.NoError(t, err)

	assert.Equal(t, models.EarliestSlot{Date: "2025-03-10", Time: "10:00"}, got["tutor_1"])
	assert.Equal(t, models.EarliestSlot{Date: "2025-03-12", Time: "08:00"}, got["tutor_2"])

	one, err := svc.EarliestForTutor(ctx, "tutor_1", "2025-03-10", 14)
	require.NoError(t, err)
	assert.Equal(t, &models.EarliestSlot{Date: "2025-03-10", Time: "10:00"}, one)

	none, err := svc.EarliestForTutor(ctx, "tutor_3", "2025-03-10", 14)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEarliestAcrossWindowExcludesWindowEnd(t *testing.T) {
	ctx := context.Background()
	repo := availabilityRepo.NewMemoryAvailabilityRepo()
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-09", []string{"07:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_1", "2025-03-12", []string{"12:00"}))
	require.NoError(t, repo.Set(ctx, "tutor_2", "2025-03-13", []string{"06:00"}))

	got, err := newService(repo).EarliestAcrossWindow(ctx, "2025-03-10", 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]models.EarliestSlot{"tutor_1": {Date: "2025-03-12", Time: "12:00"}}, got)
}

func TestEarliestByTutorSkipsMalformedSlots(t *testing.T) {
	records := []models.TutorAvailabilityRecord{
		{TutorID: "tutor_1", Date: "2025-03-10", Slots: []string{"soon", "13:00"}},
		{TutorID: "tutor_2", Date: "not-a-date", Slots: []string{"09:00"}},
	}

	got := EarliestByTutor(records, time.UTC)
	assert.Equal(t, map[string]models.EarliestSlot{"tutor_1": {Date: "2025-03-10", Time: "13:00"}}, got)
}

func TestEarliestAcrossWindowValidation(t *testing.T) {
	svc := newService(availabilityRepo.NewMemoryAvailabilityRepo())

	_, err := svc.EarliestAcrossWindow(context.Background(), "10/03/2025", 14)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.EarliestAcrossWindow(context.Background(), "2025-03-10", 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestGetAvailabilityWindowToleratesFailures(t *testing.T) {
	ctx := context.Background()
	mem := availabilityRepo.NewMemoryAvailabilityRepo()
	require.NoError(t, mem.Set(ctx, "tutor_1", "2025-03-10", []string{"11:00", "10:00"}))
	require.NoError(t, mem.Set(ctx, "tutor_1", "2025-03-11", []string{"09:00"}))
	require.NoError(t, mem.Set(ctx, "tutor_1", "2025-03-12", []string{"16:00"}))
	svc := newService(&flakyRepo{MemoryAvailabilityRepo: mem, failing: map[string]bool{"2025-03-11": true}})

	window := svc.GetAvailabilityWindow(ctx, "tutor_1", []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13"})

	assert.Equal(t, map[string][]string{
		"2025-03-10": {"10:00", "11:00"},
		"2025-03-11": {},
		"2025-03-12": {"16:00"},
		"2025-03-13": {},
	}, window)
}

func TestGetAvailabilityWrapsStoreErrors(t *testing.T) {
	mem := availabilityRepo.NewMemoryAvailabilityRepo()
	svc := newService(&flakyRepo{MemoryAvailabilityRepo: mem, failing: map[string]bool{"2025-03-11": true}})

	_, err := svc.GetAvailability(context.Background(), "tutor_1", "2025-03-11")
	assert.ErrorIs(t, err, apperrors.ErrStore)

	slots, err := svc.GetAvailability(context.Background(), "tutor_1", "2025-03-12")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSetAvailabilityReplacesAndNormalizes(t *testing.T) {
	ctx := context.Background()
	svc := newService(availabilityRepo.NewMemoryAvailabilityRepo())

	_, err := svc.SetAvailability(ctx, "tutor_1", "2025-03-10", []string{"10:00", "11:00"})
	require.NoError(t, err)

	stored, err := svc.SetAvailability(ctx, "tutor_1", "2025-03-10", []string{"14:00", "08:30", "14:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"08:30", "14:00"}, stored)

	slots, err := svc.GetAvailability(ctx, "tutor_1", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"08:30", "14:00"}, slots)

	_, err = svc.SetAvailability(ctx, "tutor_1", "2025-03-10", []string{"9am"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAddAndRemoveSlot(t *testing.T) {
	ctx := context.Background()
	svc := newService(availabilityRepo.NewMemoryAvailabilityRepo())

	require.NoError(t, svc.AddSlot(ctx, "tutor_1", "2025-03-10", "11:00"))
	require.NoError(t, svc.AddSlot(ctx, "tutor_1", "2025-03-10", "10:00"))
	require.NoError(t, svc.AddSlot(ctx, "tutor_1", "2025-03-10", "10:00"))
	require.NoError(t, svc.RemoveSlot(ctx, "tutor_1", "2025-03-10", "11:00"))

	slots, err := svc.GetAvailability(ctx, "tutor_1", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, slots)

	assert.ErrorIs(t, svc.AddSlot(ctx, "tutor_1", "2025-03-10", "10"), apperrors.ErrValidation)
}
