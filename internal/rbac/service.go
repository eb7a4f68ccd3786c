package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

const cacheTTL = 5 * time.Minute

// Service resolves user capabilities, caching resolved sets in Redis.
type Service struct {
	repo  Repository
	cache *redis.Client
	group singleflight.Group
}

// NewService constructs a Service. The cache client may be nil, in which case
// every check hits the database.
func NewService(repo Repository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache}
}

// Check reports whether the user may perform the action. CompanyAdmin bypasses
// all permission checks.
func (s *Service) Check(ctx context.Context, identity *shared.Identity, panel, module string, action Action) (bool, error) {
	if identity == nil {
		return false, shared.ErrUnauthorized
	}
	if identity.Role == shared.RoleCompanyAdmin {
		return true, nil
	}
	set, err := s.permissionSet(ctx, identity.UserID)
	if err != nil {
		return false, err
	}
	return set.Allows(panel, module, action), nil
}

// Invalidate drops the cached set after a permission change.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey(userID)).Err()
}

func (s *Service) permissionSet(ctx context.Context, userID int64) (*PermissionSet, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey(userID)).Bytes(); err == nil {
			var set PermissionSet
			if err := json.Unmarshal(raw, &set); err == nil {
				set.Seal()
				return &set, nil
			}
		}
	}

	v, err, _ := s.group.Do(cacheKey(userID), func() (any, error) {
		set, err := s.repo.LoadPermissionSet(ctx, userID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			set.Pack()
			if raw, err := json.Marshal(set); err == nil {
				_ = s.cache.Set(ctx, cacheKey(userID), raw, cacheTTL).Err()
			}
		}
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PermissionSet), nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("rbac:perms:%d", userID)
}
