package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"daresni/models"
	"daresni/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// The earliest-slot map is cached per (start, days) under a version number.
// Every availability write bumps the version, which orphans all cached windows
// at once; orphans expire on their TTL.
var windowVersionKey = utils.WindowCachePrefix + "version"

func windowKey(version, start string, days int) string {
	return fmt.Sprintf("%sv%s:%s:%d", utils.WindowCachePrefix, version, start, days)
}

func (s *DefaultAvailabilityService) windowVersion(ctx context.Context) (string, error) {
	v, err := s.cache.Get(ctx, windowVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

// readWindowCache also returns the version it looked under, so a computed
// value is never stored under a version bumped in the meantime.
func (s *DefaultAvailabilityService) readWindowCache(ctx context.Context, start string, days int) (map[string]models.EarliestSlot, string, bool) {
	if s.cache == nil {
		return nil, "", false
	}
	version, err := s.windowVersion(ctx)
	if err != nil {
		s.logger.Warn("Window cache unavailable", zap.Error(err))
		return nil, "", false
	}
	raw, err := s.cache.Get(ctx, windowKey(version, start, days)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Window cache read failed", zap.Error(err))
		}
		s.metrics.ObserveWindowCache(false)
		return nil, version, false
	}
	var out map[string]models.EarliestSlot
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("Discarding corrupt window cache entry", zap.Error(err))
		s.metrics.ObserveWindowCache(false)
		return nil, version, false
	}
	s.metrics.ObserveWindowCache(true)
	return out, version, true
}

func (s *DefaultAvailabilityService) writeWindowCache(ctx context.Context, version, start string, days int, value map[string]models.EarliestSlot) {
	if s.cache == nil || version == "" {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, windowKey(version, start, days), raw, s.opts.CacheTTL).Err(); err != nil {
		s.logger.Warn("Window cache write failed", zap.Error(err))
	}
}

func (s *DefaultAvailabilityService) invalidateWindowCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, windowVersionKey).Err(); err != nil {
		s.logger.Warn("Window cache invalidation failed", zap.Error(err))
	}
}
