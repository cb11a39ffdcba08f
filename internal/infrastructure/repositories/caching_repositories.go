package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jobdeck/gatekeeper/internal/core/domain/plan"
	"github.com/jobdeck/gatekeeper/internal/core/domain/subscription"
	"github.com/jobdeck/gatekeeper/internal/core/ports"
)

var sf singleflight.Group

// Utility helpers
func cacheSetSilently(c ports.Cache, ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.Set(ctx, key, b, ttl)
}

func cacheGet[T any](c ports.Cache, ctx context.Context, key string) (*T, bool) {
	if c == nil {
		return nil, false
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// loadFullListWithSingleflight coalesces a full-list load using singleflight,
// caches the full list, and returns it. The loader should fetch the complete
// list when called.
func loadFullListWithSingleflight[T any](cache ports.Cache, ctx context.Context, sfKey, listKey string, ttl time.Duration, loader func() ([]T, error)) ([]T, error) {
	if cache != nil {
		if v, ok := cacheGet[[]T](cache, ctx, listKey); ok {
			return *v, nil
		}
	}
	res, err, _ := sf.Do(sfKey, func() (any, error) {
		if cache != nil {
			if v, ok := cacheGet[[]T](cache, ctx, listKey); ok {
				return *v, nil
			}
		}
		all, err := loader()
		if err != nil {
			return nil, err
		}
		if cache != nil {
			cacheSetSilently(cache, ctx, listKey, all, ttl)
		}
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	all, ok := res.([]T)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight result")
	}
	return all, nil
}

// CachingPlanRepository decorates a PlanRepository with cache-aside. Plan
// rows sit on the hot path of every entitlement and quota check, so reads
// come from cache and writes invalidate.
type CachingPlanRepository struct {
	inner ports.PlanRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingPlanRepository(inner ports.PlanRepository, cache ports.Cache, ttl time.Duration) ports.PlanRepository {
	return &CachingPlanRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingPlanRepository) Create(ctx context.Context, p *plan.Plan) error {
	if err := c.inner.Create(ctx, p); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, "plan:id:"+p.ID.String(), p, c.ttl)
	cacheSetSilently(c.cache, ctx, "plan:name:"+p.Name.String(), p, c.ttl)
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "plans:all")
	}
	return nil
}

func (c *CachingPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	if v, ok := cacheGet[plan.Plan](c.cache, ctx, "plan:id:"+id.String()); ok {
		return v, nil
	}
	p, err := c.inner.GetByID(ctx, id)
	if err == nil {
		cacheSetSilently(c.cache, ctx, "plan:id:"+id.String(), p, c.ttl)
		cacheSetSilently(c.cache, ctx, "plan:name:"+p.Name.String(), p, c.ttl)
	}
	return p, err
}

func (c *CachingPlanRepository) GetByName(ctx context.Context, name plan.Name) (*plan.Plan, error) {
	if v, ok := cacheGet[plan.Plan](c.cache, ctx, "plan:name:"+name.String()); ok {
		return v, nil
	}
	p, err := c.inner.GetByName(ctx, name)
	if err == nil {
		cacheSetSilently(c.cache, ctx, "plan:name:"+name.String(), p, c.ttl)
		cacheSetSilently(c.cache, ctx, "plan:id:"+p.ID.String(), p, c.ttl)
	}
	return p, err
}

func (c *CachingPlanRepository) Update(ctx context.Context, p *plan.Plan) error {
	if err := c.inner.Update(ctx, p); err != nil {
		return err
	}
	// Overwrite cache
	cacheSetSilently(c.cache, ctx, "plan:id:"+p.ID.String(), p, c.ttl)
	cacheSetSilently(c.cache, ctx, "plan:name:"+p.Name.String(), p, c.ttl)
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "plans:all")
	}
	return nil
}

func (c *CachingPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Need name to delete the name key
	p, _ := c.inner.GetByID(ctx, id)
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "plan:id:"+id.String())
		if p != nil {
			_ = c.cache.Delete(ctx, "plan:name:"+p.Name.String())
		}
		_ = c.cache.Delete(ctx, "plans:all")
	}
	return nil
}

func (c *CachingPlanRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	return loadFullListWithSingleflight[*plan.Plan](c.cache, ctx, "plans:all", "plans:all", c.ttl, func() ([]*plan.Plan, error) {
		return c.inner.List(ctx)
	})
}

// CachingSubscriptionRepository decorates a SubscriptionRepository with
// cache-aside on the per-user lookup, which every plan resolution hits.
type CachingSubscriptionRepository struct {
	inner ports.SubscriptionRepository
	cache ports.Cache
	ttl   time.Duration
}

func NewCachingSubscriptionRepository(inner ports.SubscriptionRepository, cache ports.Cache, ttl time.Duration) ports.SubscriptionRepository {
	return &CachingSubscriptionRepository{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := c.inner.Create(ctx, sub); err != nil {
		return err
	}
	cacheSetSilently(c.cache, ctx, "sub:id:"+sub.ID.String(), sub, c.ttl)
	cacheSetSilently(c.cache, ctx, "sub:user:"+sub.UserID.String(), sub, c.ttl)
	return nil
}

func (c *CachingSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	if v, ok := cacheGet[subscription.Subscription](c.cache, ctx, "sub:id:"+id.String()); ok {
		return v, nil
	}
	sub, err := c.inner.GetByID(ctx, id)
	if err == nil {
		cacheSetSilently(c.cache, ctx, "sub:id:"+id.String(), sub, c.ttl)
		cacheSetSilently(c.cache, ctx, "sub:user:"+sub.UserID.String(), sub, c.ttl)
	}
	return sub, err
}

func (c *CachingSubscriptionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	if v, ok := cacheGet[subscription.Subscription](c.cache, ctx, "sub:user:"+userID.String()); ok {
		return v, nil
	}
	sub, err := c.inner.GetByUserID(ctx, userID)
	// A missing row is a valid (nil, nil) answer; only real rows are cached
	// so a fresh subscription shows up within one lookup.
	if err == nil && sub != nil {
		cacheSetSilently(c.cache, ctx, "sub:user:"+userID.String(), sub, c.ttl)
		cacheSetSilently(c.cache, ctx, "sub:id:"+sub.ID.String(), sub, c.ttl)
	}
	return sub, err
}

func (c *CachingSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	if err := c.inner.Update(ctx, sub); err != nil {
		return err
	}
	// Overwrite cache
	cacheSetSilently(c.cache, ctx, "sub:id:"+sub.ID.String(), sub, c.ttl)
	cacheSetSilently(c.cache, ctx, "sub:user:"+sub.UserID.String(), sub, c.ttl)
	return nil
}

func (c *CachingSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Need user id to delete the user key
	sub, _ := c.inner.GetByID(ctx, id)
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	if c.cache != nil {
		_ = c.cache.Delete(ctx, "sub:id:"+id.String())
		if sub != nil {
			_ = c.cache.Delete(ctx, "sub:user:"+sub.UserID.String())
		}
	}
	return nil
}
