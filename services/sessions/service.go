package sessions

import (
	"context"
	"sort"
	"time"

	"daresni/apperrors"
	bookingRepo "daresni/database/repository/booking"
	"daresni/models"
	"daresni/utils"

	"go.uber.org/zap"
)

// NoWhen is shown when a booking carries no usable time.
const NoWhen = "—"

// WhenLayout formats session times for display.
const WhenLayout = "Mon, 02 Jan 2006 15:04"

type DefaultSessionService struct {
	repo     bookingRepo.BookingRepository
	logger   *zap.Logger
	location *time.Location
	now      func() time.Time
}

func NewSessionService(repo bookingRepo.BookingRepository, logger *zap.Logger, loc *time.Location, now func() time.Time) *DefaultSessionService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &DefaultSessionService{repo: repo, logger: logger, location: loc, now: now}
}

// view describes one projection: the store query plus the filtering that the
// store cannot express.
type view struct {
	name     string
	query    bookingRepo.Query
	upcoming bool
}

func (s *DefaultSessionService) upcomingView(role models.Role, userID string) (view, error) {
	q, err := scope(role, userID)
	if err != nil {
		return view{}, err
	}
	q.Statuses = models.ActiveStatuses
	return view{name: "upcoming", query: q, upcoming: true}, nil
}

func (s *DefaultSessionService) historyView(role models.Role, userID string) (view, error) {
	q, err := scope(role, userID)
	if err != nil {
		return view{}, err
	}
	q.Statuses = models.HistoryStatuses
	return view{name: "history", query: q}, nil
}

func (s *DefaultSessionService) requestsView(tutorID string) (view, error) {
	q, err := scope(models.RoleTutor, tutorID)
	if err != nil {
		return view{}, err
	}
	q.Statuses = []models.BookingStatus{models.StatusPending}
	return view{name: "requests", query: q}, nil
}

func (s *DefaultSessionService) UpcomingFor(ctx context.Context, role models.Role, userID string) ([]models.SessionView, error) {
	v, err := s.upcomingView(role, userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, v)
}

func (s *DefaultSessionService) HistoryFor(ctx context.Context, role models.Role, userID string) ([]models.SessionView, error) {
	v, err := s.historyView(role, userID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, v)
}

func (s *DefaultSessionService) RequestsFor(ctx context.Context, tutorID string) ([]models.SessionView, error) {
	v, err := s.requestsView(tutorID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, v)
}

func (s *DefaultSessionService) WatchUpcoming(ctx context.Context, role models.Role, userID string) (*Feed, error) {
	v, err := s.upcomingView(role, userID)
	if err != nil {
		return nil, err
	}
	return s.watch(ctx, v)
}

func (s *DefaultSessionService) WatchHistory(ctx context.Context, role models.Role, userID string) (*Feed, error) {
	v, err := s.historyView(role, userID)
	if err != nil {
		return nil, err
	}
	return s.watch(ctx, v)
}

func (s *DefaultSessionService) WatchRequests(ctx context.Context, tutorID string) (*Feed, error) {
	v, err := s.requestsView(tutorID)
	if err != nil {
		return nil, err
	}
	return s.watch(ctx, v)
}

func (s *DefaultSessionService) list(ctx context.Context, v view) ([]models.SessionView, error) {
	bookings, err := s.repo.Find(ctx, v.query)
	if err != nil {
		s.logger.Error("Failed to load sessions", zap.String("view", v.name), zap.Error(err))
		return nil, apperrors.Store(err, "failed to load sessions")
	}
	return s.project(v, bookings), nil
}

func (s *DefaultSessionService) watch(ctx context.Context, v view) (*Feed, error) {
	sub, err := s.repo.Watch(ctx, v.query)
	if err != nil {
		s.logger.Error("Failed to open session feed", zap.String("view", v.name), zap.Error(err))
		return nil, apperrors.Store(err, "failed to subscribe to sessions")
	}
	return utils.MapSubscription(sub, func(bookings []models.Booking) []models.SessionView {
		return s.project(v, bookings)
	}), nil
}

// project filters, orders and formats one snapshot. The upcoming cut-off is
// evaluated per snapshot, so a live feed drops sessions as they start only
// when the next change arrives.
func (s *DefaultSessionService) project(v view, bookings []models.Booking) []models.SessionView {
	now := s.now()
	out := make([]models.SessionView, 0, len(bookings))
	for _, b := range bookings {
		if v.upcoming && b.StartAt != nil && !b.StartAt.IsZero() && b.StartAt.Before(now) {
			continue
		}
		out = append(out, models.SessionView{Booking: b, When: FormatWhen(&b, s.location)})
	}
	SortByInstant(out, s.location)
	return out
}

// SortByInstant orders sessions by start time. Sessions without one keep
// their relative order after the timed ones.
func SortByInstant(views []models.SessionView, loc *time.Location) {
	sort.SliceStable(views, func(i, j int) bool {
		a, aok := views[i].Instant(loc)
		b, bok := views[j].Instant(loc)
		switch {
		case aok && bok:
			return a.Before(b)
		case aok != bok:
			return aok
		}
		return false
	})
}

// FormatWhen renders the booking's start in loc, preferring startAt over the
// date and time mirror fields.
func FormatWhen(b *models.Booking, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	if t, ok := utils.CoerceToInstant(b.StartAt, loc); ok {
		return t.In(loc).Format(WhenLayout)
	}
	if b.Date != "" && b.Time != "" {
		if t, err := utils.CombineLocal(b.Date, b.Time, loc); err == nil {
			return t.Format(WhenLayout)
		}
	}
	return NoWhen
}

func scope(role models.Role, userID string) (bookingRepo.Query, error) {
	if userID == "" {
		return bookingRepo.Query{}, apperrors.Unauthorized("user identity is required")
	}
	switch role {
	case models.RoleTutor:
		return bookingRepo.Query{TutorID: userID}, nil
	case models.RoleStudent:
		return bookingRepo.Query{StudentID: userID}, nil
	}
	return bookingRepo.Query{}, apperrors.Validation("sessions are listed for students and tutors only")
}
