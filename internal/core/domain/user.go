package domain

import "time"

// UserRole is a small closed set, represented with a canonical string
// name for wire/storage compatibility.
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleAdmin      UserRole = "admin"
)

// User belongs to a Tenant and is a recipient of Alert notifications.
type User struct {
	ID              int64
	TenantID        int64
	Email           string
	PasswordHash    string
	Role            UserRole
	Permissions     map[string]bool
	Active          bool
	WhatsAppNumber  *string
	InviteToken     *string
	InviteIssuedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanReceiveEmail reports whether the user has an email channel
// address the notification dispatcher can use.
func (u *User) CanReceiveEmail() bool {
	return u.Active && u.Email != ""
}

// CanReceiveWhatsApp reports whether the user has a WhatsApp channel
// address the notification dispatcher can use.
func (u *User) CanReceiveWhatsApp() bool {
	return u.Active && u.WhatsAppNumber != nil && *u.WhatsAppNumber != ""
}
