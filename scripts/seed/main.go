// Command seed writes demo tutors, a demo student and two weeks of
// availability into the configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"daresni/config"
	"daresni/database"
	userRepo "daresni/database/repository/user"
	"daresni/models"
	"daresni/services/availability"
	"daresni/utils"

	firebase "firebase.google.com/go/v4"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// candidateSlots are the hours a demo tutor may publish.
var candidateSlots = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "16:00", "17:00", "19:00"}

var demoUsers = []models.User{
	{
		ID: "tutor_1", DisplayName: "Sara Ahmed", Email: "sara@example.com", Role: models.RoleTutor,
		Expertise: "Math", Price: 12, Location: "Manama", Rating: 4.7,
		Subjects: []models.Subject{{Name: "Algebra", PricePerHour: 12}, {Name: "Calculus", PricePerHour: 15}},
	},
	{
		ID: "tutor_2", DisplayName: "Omar Ali", Email: "omar@example.com", Role: models.RoleTutor,
		Expertise: "English", Price: 10, Location: "Muharraq", Rating: 4.5,
		Subjects: []models.Subject{{Name: "Grammar", PricePerHour: 10}, {Name: "Writing", PricePerHour: 11}},
	},
	{ID: "student_1", DisplayName: "Lina Hassan", Email: "lina@example.com", Role: models.RoleStudent},
}

func main() {
	days := flag.Int("days", 14, "days of availability to write, starting tomorrow")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("seed: failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("seed: failed to build logger: %v", err)
	}
	defer logger.Sync()
	if cfg.StoreDriver == config.StoreMemory {
		logger.Fatal("seed: the memory driver does not outlive this process; set STORE_DRIVER")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("seed: invalid timezone", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var app *firebase.App
	if cfg.StoreDriver == config.StoreFirestore {
		if app, err = database.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile); err != nil {
			logger.Fatal("seed: failed to initialize firebase", zap.Error(err))
		}
	}
	store, err := database.Open(ctx, cfg, app, logger)
	if err != nil {
		logger.Fatal("seed: failed to open store", zap.Error(err))
	}
	defer store.Close(context.Background())

	var cacheClient *redis.Client
	if cfg.RedisAddr != "" {
		if cacheClient, err = utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB); err != nil {
			logger.Warn("seed: redis cache unavailable; cached windows expire on their own", zap.Error(err))
		} else {
			defer cacheClient.Close()
		}
	}
	// Availability goes through the service so cached earliest-slot windows
	// are invalidated.
	avail := availability.NewAvailabilityService(store.Availability, cacheClient, nil, zap.NewNop(), availability.Options{
		Location: loc,
		CacheTTL: cfg.WindowCacheTTL,
	})

	now := time.Now()
	rng := rand.New(rand.NewSource(now.UnixNano()))
	written, err := seed(ctx, store.Users, avail, *days, now, loc, rng)
	if err != nil {
		logger.Fatal("seed: failed", zap.Error(err))
	}
	logger.Info("Demo data seeded", zap.Int("users", len(demoUsers)), zap.Int("availabilityRecords", written))
}

// seed writes the demo users and days of availability for every demo tutor,
// starting the day after now. It returns the number of availability records written.
func seed(ctx context.Context, users userRepo.UserRepository, avail availability.AvailabilityService, days int, now time.Time, loc *time.Location, rng *rand.Rand) (int, error) {
	for i := range demoUsers {
		u := demoUsers[i]
		u.CreatedAt = now
		if err := users.Upsert(ctx, &u); err != nil {
			return 0, fmt.Errorf("failed to write user %s: %w", u.ID, err)
		}
	}

	dates := utils.NextNDates(days, now.AddDate(0, 0, 1), loc)
	written := 0
	for _, u := range demoUsers {
		if u.Role != models.RoleTutor {
			continue
		}
		for _, date := range dates {
			if _, err := avail.SetAvailability(ctx, u.ID, date, pickSlots(rng)); err != nil {
				return written, fmt.Errorf("failed to write availability for %s on %s: %w", u.ID, date, err)
			}
			written++
		}
	}
	return written, nil
}

// pickSlots returns two to four distinct candidate slots in order.
func pickSlots(rng *rand.Rand) []string {
	n := 2 + rng.Intn(3)
	picked := make([]string, 0, n)
	for _, i := range rng.Perm(len(candidateSlots))[:n] {
		picked = append(picked, candidateSlots[i])
	}
	sort.Strings(picked)
	return picked
}
