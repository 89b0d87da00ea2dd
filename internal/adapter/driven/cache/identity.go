// Package cache implements C2, the Identity Cache: a short-TTL
// key/value mirror of the Tenant and Device hot paths in front of the
// relational store. It is advisory — a cache outage degrades
// throughput but never breaks correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
	"github.com/orchestrix/telemetry-core/internal/core/port"
)

const ttl = 60 * time.Second

// IdentityCache implements port.IdentityCache over Redis, write-through
// from the relational repositories on a miss.
type IdentityCache struct {
	redis   *redis.Client
	tenants port.TenantRepository
	devices port.DeviceRepository
}

// New builds an IdentityCache.
func New(redisClient *redis.Client, tenants port.TenantRepository, devices port.DeviceRepository) *IdentityCache {
	return &IdentityCache{redis: redisClient, tenants: tenants, devices: devices}
}

type cachedTenant struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type cachedDevice struct {
	ID        int64  `json:"id"`
	TenantID  int64  `json:"tenant_id"`
	DeviceKey string `json:"device_key"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
}

func tenantCacheKey(slug string) string { return fmt.Sprintf("tenant:slug:%s", slug) }
func deviceCacheKey(tenantID int64, deviceKey string) string {
	return fmt.Sprintf("device:%d:%s", tenantID, deviceKey)
}

// ResolveTenant looks up a Tenant by slug. Cache key tenant:slug:<slug>,
// TTL 60s. A miss falls through to the relational store and
// write-throughs the result; a NotFound is never negatively cached, so
// a freshly-created tenant becomes visible as soon as the relational
// store sees it rather than waiting out a stale miss.
func (c *IdentityCache) ResolveTenant(ctx context.Context, slug string) (*domain.Tenant, error) {
	key := tenantCacheKey(slug)
	if raw, err := c.redis.Get(ctx, key).Result(); err == nil {
		var ct cachedTenant
		if jsonErr := json.Unmarshal([]byte(raw), &ct); jsonErr == nil {
			return &domain.Tenant{ID: ct.ID, Slug: ct.Slug, Name: ct.Name, Timezone: ct.Timezone}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("cache.error", "op", "resolve_tenant", "error", err)
	}

	tenant, err := c.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}

	c.writeThrough(ctx, key, cachedTenant{ID: tenant.ID, Slug: tenant.Slug, Name: tenant.Name, Timezone: tenant.Timezone})
	return tenant, nil
}

// ResolveOrCreateDevice looks up a Device by (tenantID, deviceKey).
// Cache key device:<tenantID>:<deviceKey>, TTL 60s. On a store miss it
// auto-registers the device, active and last-seen=now, so new devices
// are usable without operator action. The repository's Create is
// expected to resolve the unique-index race on concurrent first
// sightings; either outcome yields exactly one persisted Device.
func (c *IdentityCache) ResolveOrCreateDevice(ctx context.Context, tenantID int64, deviceKey string, now time.Time) (*domain.Device, error) {
	key := deviceCacheKey(tenantID, deviceKey)
	if raw, err := c.redis.Get(ctx, key).Result(); err == nil {
		var cd cachedDevice
		if jsonErr := json.Unmarshal([]byte(raw), &cd); jsonErr == nil {
			return &domain.Device{ID: cd.ID, TenantID: cd.TenantID, DeviceKey: cd.DeviceKey, Name: cd.Name, Active: cd.Active}, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("cache.error", "op", "resolve_device", "error", err)
	}

	device, err := c.devices.FindByKey(ctx, tenantID, deviceKey)
	if err != nil {
		return nil, err
	}
	if device == nil {
		device, err = c.devices.Create(ctx, domain.NewDevice(tenantID, deviceKey, now))
		if err != nil {
			return nil, err
		}
	}

	c.writeThrough(ctx, key, cachedDevice{ID: device.ID, TenantID: device.TenantID, DeviceKey: device.DeviceKey, Name: device.Name, Active: device.Active})
	return device, nil
}

func (c *IdentityCache) writeThrough(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("cache.error", "op", "encode", "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		slog.Warn("cache.error", "op", "write_through", "error", err)
	}
}
