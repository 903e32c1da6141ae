package utils

import (
	"context"
	"errors"
	"sync"
)

// Subscription delivers successive snapshots produced by a background goroutine.
// Only the newest snapshot is retained: a consumer that falls behind skips
// straight to the latest state. The owner must call Close to release it.
type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

// Subscribe starts run in its own goroutine. run publishes snapshots through emit
// and returns when ctx is cancelled or the source fails.
func Subscribe[T any](parent context.Context, run func(ctx context.Context, emit func(T)) error) *Subscription[T] {
	ctx, cancel := context.WithCancel(parent)
	s := &Subscription[T]{
		updates: make(chan T, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.updates)
		err := run(ctx, s.emit)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()
	return s
}

// emit replaces any unread snapshot. The producer is the only sender, so the
// send after draining never blocks.
func (s *Subscription[T]) emit(v T) {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- v
}

// Updates is closed when the subscription ends.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Err returns the error that terminated the producer, if any.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the producer and waits for it to exit. It is safe to call more than once.
func (s *Subscription[T]) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return s.Err()
}

// MapSubscription projects every snapshot of src through fn. Closing the result closes src.
func MapSubscription[T, U any](src *Subscription[T], fn func(T) U) *Subscription[U] {
	return Subscribe(context.Background(), func(ctx context.Context, emit func(U)) error {
		defer src.Close()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case v, ok := <-src.Updates():
				if !ok {
					return src.Err()
				}
				emit(fn(v))
			}
		}
	})
}
