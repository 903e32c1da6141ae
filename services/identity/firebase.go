package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"daresni/apperrors"
	"daresni/database/repository"
	userRepo "daresni/database/repository/user"
	"daresni/models"
	"daresni/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// FirebaseVerifier checks Firebase ID tokens and resolves the caller's role
// and display name from the users collection. Both are cached in Redis when a
// client is set.
type FirebaseVerifier struct {
	tokens TokenVerifier
	users  userRepo.UserRepository
	cache  profileCache
	logger *zap.Logger
}

func NewFirebaseVerifier(tokens TokenVerifier, users userRepo.UserRepository, cache *redis.Client, logger *zap.Logger) *FirebaseVerifier {
	v := &FirebaseVerifier{tokens: tokens, users: users, logger: logger}
	if cache != nil {
		v.cache = &redisProfileCache{client: cache}
	}
	return v
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.Unauthorized("missing bearer token")
	}
	decoded, err := v.tokens.VerifyIDToken(ctx, token)
	if err != nil {
		v.logger.Debug("Token verification failed", zap.Error(err))
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	id := &Identity{
		UID:   decoded.UID,
		Email: claim(decoded.Claims, "email"),
		Name:  claim(decoded.Claims, "name"),
	}
	profile, err := v.profile(ctx, id.UID)
	if err != nil {
		return nil, err
	}
	id.Role = profile.Role
	if id.Name == "" {
		id.Name = profile.Name
	}
	return id, nil
}

// cachedProfile is the part of a user profile an identity needs.
type cachedProfile struct {
	Role models.Role `json:"role"`
	Name string      `json:"name,omitempty"`
}

func (v *FirebaseVerifier) profile(ctx context.Context, uid string) (*cachedProfile, error) {
	if v.cache != nil {
		cached, err := v.cache.load(ctx, uid)
		if err == nil && cached != nil && cached.Role.Valid() {
			return cached, nil
		}
		if err != nil {
			v.logger.Warn("Identity cache read failed; falling back to store", zap.Error(err))
		}
	}

	resolved := &cachedProfile{Role: models.RoleStudent}
	user, err := v.users.GetByID(ctx, uid)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		v.logger.Info("No profile for authenticated user; treating as student", zap.String("uid", uid))
	case err != nil:
		v.logger.Error("Failed to load profile for identity", zap.String("uid", uid), zap.Error(err))
		return nil, apperrors.Store(err, "failed to resolve user role")
	default:
		if user.Role.Valid() {
			resolved.Role = user.Role
		}
		resolved.Name = user.DisplayName
	}

	if v.cache != nil {
		if err := v.cache.store(ctx, uid, resolved); err != nil {
			v.logger.Warn("Identity cache write failed", zap.Error(err))
		}
	}
	return resolved, nil
}

type profileCache interface {
	// load returns nil, nil on a miss.
	load(ctx context.Context, uid string) (*cachedProfile, error)
	store(ctx context.Context, uid string, p *cachedProfile) error
}

type redisProfileCache struct {
	client *redis.Client
}

func (c *redisProfileCache) load(ctx context.Context, uid string) (*cachedProfile, error) {
	raw, err := c.client.Get(ctx, profileCacheKey(uid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p cachedProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *redisProfileCache) store(ctx context.Context, uid string, p *cachedProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileCacheKey(uid), raw, utils.AuthCacheTTL).Err()
}

func profileCacheKey(uid string) string {
	return utils.AuthCachePrefix + "profile:" + uid
}

func claim(claims map[string]interface{}, name string) string {
	if s, ok := claims[name].(string); ok {
		return s
	}
	return ""
}
