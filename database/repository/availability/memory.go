package availabilityRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"daresni/database/repository"
	"daresni/models"
)

// MemoryAvailabilityRepo is an in-process AvailabilityRepository for
// development and tests.
type MemoryAvailabilityRepo struct {
	mu      sync.RWMutex
	records map[string]models.TutorAvailabilityRecord
}

func NewMemoryAvailabilityRepo() *MemoryAvailabilityRepo {
	return &MemoryAvailabilityRepo{records: make(map[string]models.TutorAvailabilityRecord)}
}

func (r *MemoryAvailabilityRepo) Get(ctx context.Context, tutorID, date string) (*models.TutorAvailabilityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[models.AvailabilityKey(tutorID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(rec), nil
}

func (r *MemoryAvailabilityRepo) Set(ctx context.Context, tutorID, date string, slots []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[models.AvailabilityKey(tutorID, date)] = models.TutorAvailabilityRecord{
		TutorID:   tutorID,
		Date:      date,
		Slots:     append([]string{}, slots...),
		UpdatedAt: time.Now(),
	}
	return nil
}

func (r *MemoryAvailabilityRepo) AddSlot(ctx context.Context, tutorID, date, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.AvailabilityKey(tutorID, date)
	rec, ok := r.records[key]
	if !ok {
		rec = models.TutorAvailabilityRecord{TutorID: tutorID, Date: date, Slots: []string{}}
	}
	for _, s := range rec.Slots {
		if s == slot {
			return nil
		}
	}
	rec.Slots = append(append([]string{}, rec.Slots...), slot)
	rec.UpdatedAt = time.Now()
	r.records[key] = rec
	return nil
}

func (r *MemoryAvailabilityRepo) RemoveSlot(ctx context.Context, tutorID, date, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.AvailabilityKey(tutorID, date)
	rec, ok := r.records[key]
	if !ok {
		return nil
	}
	kept := make([]string, 0, len(rec.Slots))
	for _, s := range rec.Slots {
		if s != slot {
			kept = append(kept, s)
		}
	}
	rec.Slots = kept
	rec.UpdatedAt = time.Now()
	r.records[key] = rec
	return nil
}

func (r *MemoryAvailabilityRepo) FindInRange(ctx context.Context, startDate, endDate string) ([]models.TutorAvailabilityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.TutorAvailabilityRecord
	for _, rec := range r.records {
		if rec.Date >= startDate && rec.Date < endDate {
			out = append(out, *clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return models.AvailabilityKey(out[i].TutorID, out[i].Date) < models.AvailabilityKey(out[j].TutorID, out[j].Date)
	})
	return out, nil
}

func clone(rec models.TutorAvailabilityRecord) *models.TutorAvailabilityRecord {
	rec.Slots = append([]string{}, rec.Slots...)
	return &rec
}
