package tutors

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"daresni/apperrors"
	"daresni/database/repository"
	userRepo "daresni/database/repository/user"
	"daresni/models"
	"daresni/services/availability"
	"daresni/utils"

	"go.uber.org/zap"
)

type DefaultTutorService struct {
	users      userRepo.UserRepository
	avail      availability.AvailabilityService
	logger     *zap.Logger
	location   *time.Location
	windowDays int
	now        func() time.Time
}

func NewTutorService(users userRepo.UserRepository, avail availability.AvailabilityService, logger *zap.Logger, loc *time.Location, windowDays int) *DefaultTutorService {
	if loc == nil {
		loc = time.Local
	}
	if windowDays <= 0 {
		windowDays = 14
	}
	return &DefaultTutorService{
		users:      users,
		avail:      avail,
		logger:     logger,
		location:   loc,
		windowDays: windowDays,
		now:        time.Now,
	}
}

func (s *DefaultTutorService) ListTutors(ctx context.Context, f Filter) ([]Listing, error) {
	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return nil, apperrors.Validation("minPrice cannot exceed maxPrice")
	}
	tutors, err := s.users.ListByRole(ctx, models.RoleTutor)
	if err != nil {
		s.logger.Error("Failed to list tutors", zap.Error(err))
		return nil, apperrors.Store(err, "failed to list tutors")
	}

	earliest := s.nextAvailable(ctx)
	listings := make([]Listing, 0, len(tutors))
	for i := range tutors {
		if !matches(&tutors[i], f) {
			continue
		}
		l := Listing{User: tutors[i], SubjectOptions: tutors[i].SubjectOptions()}
		if slot, ok := earliest[tutors[i].ID]; ok {
			l.NextAvailable = &slot
		}
		listings = append(listings, l)
	}
	sortListings(listings, f.Sort)
	return listings, nil
}

// nextAvailable degrades to an empty map; the directory is still useful
// without the earliest-slot hint.
func (s *DefaultTutorService) nextAvailable(ctx context.Context) map[string]models.EarliestSlot {
	today := utils.ToCalendarDate(s.now(), s.location)
	earliest, err := s.avail.EarliestAcrossWindow(ctx, today, s.windowDays)
	if err != nil {
		s.logger.Warn("Earliest availability unavailable for directory", zap.Error(err))
		return map[string]models.EarliestSlot{}
	}
	return earliest
}

func (s *DefaultTutorService) GetTutor(ctx context.Context, id string) (*Listing, error) {
	tutor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	l := &Listing{User: *tutor, SubjectOptions: tutor.SubjectOptions()}
	today := utils.ToCalendarDate(s.now(), s.location)
	next, err := s.avail.EarliestForTutor(ctx, tutor.ID, today, s.windowDays)
	if err != nil {
		s.logger.Warn("Earliest availability unavailable for tutor", zap.String("tutorId", id), zap.Error(err))
	} else {
		l.NextAvailable = next
	}
	return l, nil
}

func (s *DefaultTutorService) Quote(ctx context.Context, tutorID, subject string, durationMinutes int) (*models.Quote, error) {
	minutes, ok := models.NormalizeDuration(durationMinutes)
	if !ok {
		return nil, apperrors.Validation("duration must be 30, 45, 60 or 90 minutes")
	}
	tutor, err := s.load(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	subject, err = quoteSubject(tutor, subject)
	if err != nil {
		return nil, err
	}
	rate, ok := tutor.PricePerHour(subject)
	if !ok {
		return nil, apperrors.NotFound("tutor has not published a price")
	}
	return &models.Quote{
		TutorID:         tutor.ID,
		Subject:         subject,
		DurationMinutes: minutes,
		PricePerHour:    rate,
		Total:           models.SessionPrice(rate, minutes),
	}, nil
}

func (s *DefaultTutorService) load(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, apperrors.Validation("tutor id is required")
	}
	tutor, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("tutor not found")
	}
	if err != nil {
		return nil, apperrors.Store(err, "failed to load tutor")
	}
	if tutor.Role != models.RoleTutor {
		return nil, apperrors.NotFound("tutor not found")
	}
	if tutor.ID == "" {
		tutor.ID = id
	}
	return tutor, nil
}

// quoteSubject defaults to the tutor's first listed subject and rejects
// subjects the tutor does not list.
func quoteSubject(tutor *models.User, subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	options := tutor.SubjectOptions()
	if len(options) == 0 {
		if subject == "" {
			return models.DefaultSubject, nil
		}
		return subject, nil
	}
	if subject == "" {
		return options[0], nil
	}
	for _, o := range options {
		if strings.EqualFold(o, subject) {
			return o, nil
		}
	}
	return "", apperrors.Validation("tutor does not teach " + subject)
}

func matches(u *models.User, f Filter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := []string{u.Name(), u.Location, u.Expertise}
		haystack = append(haystack, u.SubjectOptions()...)
		if !containsFold(haystack, q) {
			return false
		}
	}
	if subject := strings.TrimSpace(f.Subject); subject != "" {
		found := false
		for _, o := range u.SubjectOptions() {
			if strings.EqualFold(o, subject) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" && !strings.Contains(strings.ToLower(u.Location), loc) {
		return false
	}
	if f.MinPrice > 0 && u.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && u.Price > f.MaxPrice {
		return false
	}
	if f.MinRating > 0 && u.Rating < f.MinRating {
		return false
	}
	return true
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func sortListings(listings []Listing, order string) {
	byName := func(i, j int) bool {
		return strings.ToLower(listings[i].Name()) < strings.ToLower(listings[j].Name())
	}
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		switch order {
		case SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case SortRatingDesc:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case SortRatingAsc:
			if a.Rating != b.Rating {
				return a.Rating < b.Rating
			}
		}
		return byName(i, j)
	})
}
