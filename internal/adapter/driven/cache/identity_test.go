package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrix/telemetry-core/internal/core/domain"
)

type mockTenantRepo struct {
	mu      sync.RWMutex
	bySlug  map[string]*domain.Tenant
	calls   int
}

func (m *mockTenantRepo) FindBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bySlug[slug], nil
}

func (m *mockTenantRepo) FindByID(_ context.Context, id int64) (*domain.Tenant, error) {
	return nil, nil
}

type mockDeviceRepo struct {
	mu       sync.Mutex
	byKey    map[string]*domain.Device
	nextID   int64
	calls    int
	createErr error
}

func deviceKey(tenantID int64, key string) string {
	return key
}

func (m *mockDeviceRepo) FindByKey(_ context.Context, tenantID int64, key string) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.byKey[deviceKey(tenantID, key)], nil
}

func (m *mockDeviceRepo) FindByID(_ context.Context, id int64) (*domain.Device, error) {
	return nil, nil
}

func (m *mockDeviceRepo) Create(_ context.Context, d *domain.Device) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if existing, ok := m.byKey[deviceKey(d.TenantID, d.DeviceKey)]; ok {
		return existing, nil
	}
	m.nextID++
	d.ID = m.nextID
	m.byKey[deviceKey(d.TenantID, d.DeviceKey)] = d
	return d, nil
}

func (m *mockDeviceRepo) UpdateLastSeen(_ context.Context, id int64, seenAt time.Time) error {
	return nil
}

func newTestCache(t *testing.T) (*IdentityCache, *mockTenantRepo, *mockDeviceRepo) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tenants := &mockTenantRepo{bySlug: map[string]*domain.Tenant{}}
	devices := &mockDeviceRepo{byKey: map[string]*domain.Device{}}
	return New(client, tenants, devices), tenants, devices
}

func TestResolveTenant_CacheMissThenHit(t *testing.T) {
	ctx := context.Background()
	c, tenants, _ := newTestCache(t)
	tenants.bySlug["vpc"] = &domain.Tenant{ID: 1, Slug: "vpc", Name: "Valley Plant Co"}

	got, err := c.ResolveTenant(ctx, "vpc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 1, tenants.calls)

	got2, err := c.ResolveTenant(ctx, "vpc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got2.ID)
	assert.Equal(t, 1, tenants.calls, "second resolve should be served from cache")
}

func TestResolveTenant_NotFound_NotNegativelyCached(t *testing.T) {
	ctx := context.Background()
	c, tenants, _ := newTestCache(t)

	_, err := c.ResolveTenant(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrTenantNotFound)
	assert.Equal(t, 1, tenants.calls)

	tenants.bySlug["ghost"] = &domain.Tenant{ID: 9, Slug: "ghost"}
	got, err := c.ResolveTenant(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, 2, tenants.calls, "a NotFound must not be cached")
}

func TestResolveOrCreateDevice_AutoRegisters(t *testing.T) {
	ctx := context.Background()
	c, _, devices := newTestCache(t)

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	got, err := c.ResolveOrCreateDevice(ctx, 1, "M01", now)
	require.NoError(t, err)
	assert.Equal(t, "M01", got.DeviceKey)
	assert.True(t, got.Active)
	assert.Equal(t, 1, devices.calls)

	got2, err := c.ResolveOrCreateDevice(ctx, 1, "M01", now)
	require.NoError(t, err)
	assert.Equal(t, got.ID, got2.ID)
	assert.Equal(t, 1, devices.calls, "second resolve should be served from cache")
}

func TestResolveOrCreateDevice_ExistingDeviceNotRecreated(t *testing.T) {
	ctx := context.Background()
	c, _, devices := newTestCache(t)
	devices.byKey[deviceKey(1, "M01")] = &domain.Device{ID: 42, TenantID: 1, DeviceKey: "M01", Active: true}

	got, err := c.ResolveOrCreateDevice(ctx, 1, "M01", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
}
