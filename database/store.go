package database

import (
	"context"
	"fmt"
	"time"

	"daresni/config"
	availabilityRepo "daresni/database/repository/availability"
	bookingRepo "daresni/database/repository/booking"
	userRepo "daresni/database/repository/user"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
)

// Store bundles the repositories of one driver. It is built once at startup
// and handed to every service.
type Store struct {
	Driver       string
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Users        userRepo.UserRepository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping verifies the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the driver's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// Open builds the Store for cfg.StoreDriver. app is required for the firestore driver.
func Open(ctx context.Context, cfg *config.Config, app *firebase.App, logger *zap.Logger) (*Store, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := ConnectMongo(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.DatabaseName)
		store := &Store{
			Driver:       config.StoreMongo,
			Availability: availabilityRepo.NewMongoAvailabilityRepo(db),
			Bookings:     bookingRepo.NewMongoBookingRepo(db, loc),
			Users:        userRepo.NewMongoUserRepo(db),
			ping:         func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:        client.Disconnect,
		}
		for _, repo := range []interface{}{store.Availability, store.Bookings, store.Users} {
			if ix, ok := repo.(indexer); ok {
				if err := ix.EnsureIndexes(ctx); err != nil {
					logger.Warn("Failed to ensure indexes", zap.Error(err))
				}
			}
		}
		logger.Info("Connected to MongoDB", zap.String("database", cfg.DatabaseName))
		return store, nil

	case config.StoreFirestore:
		if app == nil {
			return nil, fmt.Errorf("firestore driver requires a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		logger.Info("Connected to Firestore", zap.String("project", cfg.FirebaseProjectID))
		return &Store{
			Driver:       config.StoreFirestore,
			Availability: availabilityRepo.NewFirestoreAvailabilityRepo(client),
			Bookings:     bookingRepo.NewFirestoreBookingRepo(client, loc),
			Users:        userRepo.NewFirestoreUserRepo(client),
			ping: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				_, err := client.Collection("users").Limit(1).Documents(ctx).GetAll()
				return err
			},
			close: func(context.Context) error { return client.Close() },
		}, nil

	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return NewMemoryStore(loc), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// NewMemoryStore returns a Store backed by process memory.
func NewMemoryStore(loc *time.Location) *Store {
	return &Store{
		Driver:       config.StoreMemory,
		Availability: availabilityRepo.NewMemoryAvailabilityRepo(),
		Bookings:     bookingRepo.NewMemoryBookingRepo(loc),
		Users:        userRepo.NewMemoryUserRepo(),
	}
}
