package domain

import "time"

// Tenant is an isolated factory — the security boundary. Every row in
// the core carries a TenantID that traces back to one of these.
type Tenant struct {
	ID        int64
	Slug      string
	Name      string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the tenant's configured timezone, falling back to
// UTC when the stored value fails to load rather than rejecting the
// schedule gate it feeds.
func (t *Tenant) Location() *time.Location {
	if t.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
