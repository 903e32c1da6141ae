package tutors

import (
	"context"
	"errors"
	"testing"
	"time"

	"daresni/apperrors"
	availabilityRepo "daresni/database/repository/availability"
	userRepo "daresni/database/repository/user"
	"daresni/models"
	"daresni/services/availability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var today = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*DefaultTutorService, *availabilityRepo.MemoryAvailabilityRepo) {
	t.Helper()
	ctx := context.Background()
	users := userRepo.NewMemoryUserRepo()
	for _, u := range []models.User{
		{ID: "t_sara", DisplayName: "Sara Ahmed", Role: models.RoleTutor, Location: "Manama", Price: 15, Rating: 4.8,
			Expertise: "Math", Subjects: []models.Subject{{Name: "Algebra", PricePerHour: 12}}},
		{ID: "t_omar", DisplayName: "Omar Khalid", Role: models.RoleTutor, Location: "Riffa", Price: 25, Rating: 4.2,
			Subjects: []models.Subject{{Name: "Physics"}, {Name: "Chemistry", PricePerHour: 30}}},
		{ID: "t_lina", DisplayName: "lina", Role: models.RoleTutor, Location: "Manama", Price: 8, Rating: 3.9},
		{ID: "s_noor", DisplayName: "Noor", Role: models.RoleStudent},
	} {
		require.NoError(t, users.Upsert(ctx, &u))
	}
	slots := availabilityRepo.NewMemoryAvailabilityRepo()
	require.NoError(t, slots.Set(ctx, "t_sara", "2025-03-05", []string{"11:00", "10:00"}))
	require.NoError(t, slots.Set(ctx, "t_sara", "2025-03-04", []string{"16:00"}))
	require.NoError(t, slots.Set(ctx, "t_omar", "2025-03-30", []string{"09:00"}))

	avail := availability.NewAvailabilityService(slots, nil, nil, zap.NewNop(), availability.Options{Location: time.UTC})
	svc := NewTutorService(users, avail, zap.NewNop(), time.UTC, 14)
	svc.now = func() time.Time { return today }
	return svc, slots
}

func names(listings []Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}

func TestListTutorsDefaultsToNameOrder(t *testing.T) {
	svc, _ := newService(t)

	listings, err := svc.ListTutors(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"t_lina", "t_omar", "t_sara"}, names(listings))

	sara := listings[2]
	require.NotNil(t, sara.NextAvailable)
	assert.Equal(t, models.EarliestSlot{Date: "2025-03-04", Time: "16:00"}, *sara.NextAvailable)
	assert.Equal(t, []string{"Algebra", "Math"}, sara.SubjectOptions)
	// Omar's only slot is outside the directory window.
	assert.Nil(t, listings[1].NextAvailable)
}

func TestListTutorsFilters(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"query matches subject", Filter{Query: "chem"}, []string{"t_omar"}},
		{"query matches location", Filter{Query: "manama"}, []string{"t_lina", "t_sara"}},
		{"subject matches expertise", Filter{Subject: "math"}, []string{"t_sara"}},
		{"location", Filter{Location: "riffa"}, []string{"t_omar"}},
		{"price range", Filter{MinPrice: 10, MaxPrice: 20}, []string{"t_sara"}},
		{"rating", Filter{MinRating: 4}, []string{"t_omar", "t_sara"}},
		{"price ascending", Filter{Sort: SortPriceAsc}, []string{"t_lina", "t_sara", "t_omar"}},
		{"price descending", Filter{Sort: SortPriceDesc}, []string{"t_omar", "t_sara", "t_lina"}},
		{"rating descending", Filter{Sort: SortRatingDesc}, []string{"t_sara", "t_omar", "t_lina"}},
		{"rating ascending", Filter{Sort: SortRatingAsc}, []string{"t_lina", "t_omar", "t_sara"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listings, err := svc.ListTutors(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(listings))
		})
	}

	_, err := svc.ListTutors(ctx, Filter{MinPrice: 30, MaxPrice: 10})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

type brokenAvailability struct {
	availability.AvailabilityService
}

func (brokenAvailability) EarliestAcrossWindow(ctx context.Context, windowStart string, days int) (map[string]models.EarliestSlot, error) {
	return nil, apperrors.Store(errors.New("timeout"), "failed to scan availability")
}

func TestListTutorsSurvivesAvailabilityFailure(t *testing.T) {
	svc, _ := newService(t)
	svc.avail = brokenAvailability{svc.avail}

	listings, err := svc.ListTutors(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, listings, 3)
	for _, l := range listings {
		assert.Nil(t, l.NextAvailable)
	}
}

func TestGetTutor(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sara, err := svc.GetTutor(ctx, "t_sara")
	require.NoError(t, err)
	require.NotNil(t, sara.NextAvailable)
	assert.Equal(t, "2025-03-04", sara.NextAvailable.Date)

	_, err = svc.GetTutor(ctx, "s_noor")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.GetTutor(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuote(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	q, err := svc.Quote(ctx, "t_sara", "algebra", 90)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", q.Subject)
	assert.Equal(t, 12.0, q.PricePerHour)
	assert.Equal(t, 18.0, q.Total)

	q, err = svc.Quote(ctx, "t_sara", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", q.Subject)
	assert.Equal(t, 60, q.DurationMinutes)

	// Physics has no own price, so the tutor's default rate applies.
	q, err = svc.Quote(ctx, "t_omar", "Physics", 45)
	require.NoError(t, err)
	assert.Equal(t, 25.0, q.PricePerHour)
	assert.Equal(t, 18.75, q.Total)

	_, err = svc.Quote(ctx, "t_omar", "Biology", 60)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.Quote(ctx, "t_sara", "Algebra", 50)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuoteWithoutPrice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	users := svc.users.(*userRepo.MemoryUserRepo)
	require.NoError(t, users.Upsert(ctx, &models.User{ID: "t_new", DisplayName: "New", Role: models.RoleTutor}))

	_, err := svc.Quote(ctx, "t_new", "", 60)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
