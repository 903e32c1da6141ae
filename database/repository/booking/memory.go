package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"daresni/database/repository"
	"daresni/models"
	"daresni/utils"
)

// MemoryBookingRepo is an in-process BookingRepository. Approval exclusivity is
// enforced under the same lock as the status update.
type MemoryBookingRepo struct {
	loc *time.Location

	mu       sync.RWMutex
	bookings map[string]models.Booking
	watchers map[int]chan struct{}
	nextID   int
}

func NewMemoryBookingRepo(loc *time.Location) *MemoryBookingRepo {
	return &MemoryBookingRepo{
		loc:      loc,
		bookings: make(map[string]models.Booking),
		watchers: make(map[int]chan struct{}),
	}
}

func (r *MemoryBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.bookings[b.ID] = *b
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *MemoryBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepo) Find(ctx context.Context, q Query) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(q), nil
}

func (r *MemoryBookingRepo) findLocked(q Query) []models.Booking {
	out := []models.Booking{}
	for _, b := range r.bookings {
		b := b
		if q.Matches(&b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MemoryBookingRepo) Transition(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	b, ok := r.bookings[id]
	if !ok {
		r.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if !hasStatus(from, b.Status) {
		r.mu.Unlock()
		return nil, repository.ErrStatusChanged
	}
	if to == models.StatusApproved && r.approvedOnSlotLocked(&b) {
		r.mu.Unlock()
		return nil, repository.ErrConflict
	}
	b.Status = to
	r.bookings[id] = b
	r.mu.Unlock()

	r.notify()
	return &b, nil
}

// approvedOnSlotLocked reports whether another approved booking of the same
// tutor occupies b's instant.
func (r *MemoryBookingRepo) approvedOnSlotLocked(b *models.Booking) bool {
	at, ok := b.Instant(r.loc)
	if !ok {
		return false
	}
	for id, other := range r.bookings {
		if id == b.ID || other.TutorID != b.TutorID || other.Status != models.StatusApproved {
			continue
		}
		if otherAt, ok := other.Instant(r.loc); ok && otherAt.Equal(at) {
			return true
		}
	}
	return false
}

func (r *MemoryBookingRepo) Delete(ctx context.Context, id string, from []models.BookingStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	b, ok := r.bookings[id]
	if !ok {
		r.mu.Unlock()
		return repository.ErrNotFound
	}
	if !hasStatus(from, b.Status) {
		r.mu.Unlock()
		return repository.ErrStatusChanged
	}
	delete(r.bookings, id)
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *MemoryBookingRepo) Watch(ctx context.Context, q Query) (*BookingSubscription, error) {
	r.mu.Lock()
	watcherID := r.nextID
	r.nextID++
	changed := make(chan struct{}, 1)
	r.watchers[watcherID] = changed
	r.mu.Unlock()

	return utils.Subscribe(ctx, func(ctx context.Context, emit func([]models.Booking)) error {
		defer func() {
			r.mu.Lock()
			delete(r.watchers, watcherID)
			r.mu.Unlock()
		}()
		for {
			r.mu.RLock()
			snapshot := r.findLocked(q)
			r.mu.RUnlock()
			emit(snapshot)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-changed:
			}
		}
	}), nil
}

// notify wakes every watcher. Pending wake-ups coalesce.
func (r *MemoryBookingRepo) notify() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ch := range r.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
