package availability

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"daresni/apperrors"
	"daresni/database/repository"
	availabilityRepo "daresni/database/repository/availability"
	"daresni/models"
	"daresni/services/metrics"
	"daresni/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxWindowDays bounds window lookups.
const MaxWindowDays = 62

// Options tunes DefaultAvailabilityService.
type Options struct {
	Location             *time.Location
	CacheTTL             time.Duration
	MaxConcurrentFetches int
}

type DefaultAvailabilityService struct {
	repo    availabilityRepo.AvailabilityRepository
	cache   *redis.Client
	metrics *metrics.Service
	logger  *zap.Logger
	opts    Options
}

// NewAvailabilityService wires the service. cache and m may be nil.
func NewAvailabilityService(repo availabilityRepo.AvailabilityRepository, cache *redis.Client, m *metrics.Service, logger *zap.Logger, opts Options) *DefaultAvailabilityService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxConcurrentFetches <= 0 {
		opts.MaxConcurrentFetches = 8
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 2 * time.Minute
	}
	return &DefaultAvailabilityService{repo: repo, cache: cache, metrics: m, logger: logger, opts: opts}
}

func (s *DefaultAvailabilityService) GetAvailability(ctx context.Context, tutorID, date string) ([]string, error) {
	if tutorID == "" {
		return nil, apperrors.Validation("tutor is required")
	}
	if !utils.IsCalendarDate(date) {
		return nil, apperrors.Validation("date must be YYYY-MM-DD")
	}
	rec, err := s.repo.Get(ctx, tutorID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, apperrors.Store(err, "failed to load availability")
	}
	return normalizeSlots(rec.Slots), nil
}

func (s *DefaultAvailabilityService) GetAvailabilityWindow(ctx context.Context, tutorID string, dates []string) map[string][]string {
	window := make(map[string][]string, len(dates))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrentFetches)
	for _, date := range dates {
		g.Go(func() error {
			slots, err := s.GetAvailability(ctx, tutorID, date)
			if err != nil {
				s.logger.Warn("Availability fetch failed; treating date as empty",
					zap.String("tutorId", tutorID), zap.String("date", date), zap.Error(err))
				slots = []string{}
			}
			mu.Lock()
			window[date] = slots
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return window
}

func (s *DefaultAvailabilityService) SetAvailability(ctx context.Context, tutorID, date string, slots []string) ([]string, error) {
	if tutorID == "" {
		return nil, apperrors.Validation("tutor is required")
	}
	if !utils.IsCalendarDate(date) {
		return nil, apperrors.Validation("date must be YYYY-MM-DD")
	}
	for _, slot := range slots {
		if !utils.IsClockTime(slot) {
			return nil, apperrors.Validation("slot " + slot + " must be HH:MM")
		}
	}
	normalized := normalizeSlots(slots)
	if err := s.repo.Set(ctx, tutorID, date, normalized); err != nil {
		return nil, apperrors.Store(err, "failed to save availability")
	}
	s.invalidateWindowCache(ctx)
	s.logger.Info("Availability replaced", zap.String("tutorId", tutorID), zap.String("date", date), zap.Int("slots", len(normalized)))
	return normalized, nil
}

func (s *DefaultAvailabilityService) AddSlot(ctx context.Context, tutorID, date, slot string) error {
	if err := validateSlot(tutorID, date, slot); err != nil {
		return err
	}
	if err := s.repo.AddSlot(ctx, tutorID, date, slot); err != nil {
		return apperrors.Store(err, "failed to add slot")
	}
	s.invalidateWindowCache(ctx)
	return nil
}

func (s *DefaultAvailabilityService) RemoveSlot(ctx context.Context, tutorID, date, slot string) error {
	if err := validateSlot(tutorID, date, slot); err != nil {
		return err
	}
	if err := s.repo.RemoveSlot(ctx, tutorID, date, slot); err != nil {
		return apperrors.Store(err, "failed to remove slot")
	}
	s.invalidateWindowCache(ctx)
	return nil
}

func (s *DefaultAvailabilityService) EarliestAcrossWindow(ctx context.Context, windowStart string, days int) (map[string]models.EarliestSlot, error) {
	if !utils.IsCalendarDate(windowStart) {
		return nil, apperrors.Validation("window start must be YYYY-MM-DD")
	}
	if days <= 0 || days > MaxWindowDays {
		return nil, apperrors.Validation("window must span 1 to 62 days")
	}

	cached, version, ok := s.readWindowCache(ctx, windowStart, days)
	if ok {
		return cached, nil
	}

	end, err := utils.AddDays(windowStart, days)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	records, err := s.repo.FindInRange(ctx, windowStart, end)
	if err != nil {
		return nil, apperrors.Store(err, "failed to scan availability window")
	}
	earliest := EarliestByTutor(records, s.opts.Location)
	s.writeWindowCache(ctx, version, windowStart, days, earliest)
	return earliest, nil
}

func (s *DefaultAvailabilityService) EarliestForTutor(ctx context.Context, tutorID, windowStart string, days int) (*models.EarliestSlot, error) {
	all, err := s.EarliestAcrossWindow(ctx, windowStart, days)
	if err != nil {
		return nil, err
	}
	slot, ok := all[tutorID]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

// EarliestByTutor picks, per tutor, the slot with the smallest combined
// instant. Equal instants fall back to comparing the time strings. Slots that
// do not parse are skipped.
func EarliestByTutor(records []models.TutorAvailabilityRecord, loc *time.Location) map[string]models.EarliestSlot {
	type best struct {
		slot models.EarliestSlot
		at   time.Time
	}
	winners := make(map[string]best)
	for _, rec := range records {
		for _, clock := range rec.Slots {
			at, err := utils.CombineLocal(rec.Date, clock, loc)
			if err != nil {
				continue
			}
			current, seen := winners[rec.TutorID]
			if !seen || at.Before(current.at) || (at.Equal(current.at) && clock < current.slot.Time) {
				winners[rec.TutorID] = best{slot: models.EarliestSlot{Date: rec.Date, Time: clock}, at: at}
			}
		}
	}
	out := make(map[string]models.EarliestSlot, len(winners))
	for tutorID, w := range winners {
		out[tutorID] = w.slot
	}
	return out
}

func validateSlot(tutorID, date, slot string) error {
	if tutorID == "" {
		return apperrors.Validation("tutor is required")
	}
	if !utils.IsCalendarDate(date) {
		return apperrors.Validation("date must be YYYY-MM-DD")
	}
	if !utils.IsClockTime(slot) {
		return apperrors.Validation("time must be HH:MM")
	}
	return nil
}

// normalizeSlots dedupes and sorts. HH:MM strings sort chronologically.
func normalizeSlots(slots []string) []string {
	seen := make(map[string]bool, len(slots))
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
