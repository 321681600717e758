// Package auth contains domain-level types for accounts, sessions, and
// signed tokens. It is pure and free of framework/adapter concerns.
package auth

import "time"

// UserStatus represents the lifecycle state of an account.
// Keep string form for easy persistence and cookies.
type UserStatus string

const (
	StatusEnabled  UserStatus = "ENABLED"
	StatusLocked   UserStatus = "LOCKED"
	StatusDisabled UserStatus = "DISABLED"
)

// TokenType selects the signing secret and expiry policy for a signed token.
// A token signed for one type never verifies against another type's secret.
type TokenType string

const (
	TokenTypeSession       TokenType = "SESSION"
	TokenTypeCSRF          TokenType = "CSRF"
	TokenTypePasswordReset TokenType = "PASSWORD_RESET"
)

// Permission is a capability name attached to a role (e.g. "user:update").
type Permission struct {
	Name string `json:"name"`
}

// Role carries a set of permission names granted to its holders.
type Role struct {
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// Principal is the authenticated-user view used for authorization
// decisions and cookie payloads. It never carries credential material.
type Principal struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Status     UserStatus `json:"status"`
	OTPEnabled bool       `json:"otpEnabled"`
	Roles      []Role     `json:"roles"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PendingLogin is the minimal principal view issued between a successful
// credential check and OTP verification. No session exists yet.
type PendingLogin struct {
	ID         string `json:"id"`
	OTPEnabled bool   `json:"otpEnabled"`
}

// Identity is the profile asserted by an external identity provider
// after its token has been verified.
type Identity struct {
	Email     string
	FirstName string
	LastName  string
}

// Permissions flattens the principal's roles into the set of granted
// permission names.
func (p Principal) Permissions() map[string]struct{} {
	out := make(map[string]struct{})
	for _, role := range p.Roles {
		for _, perm := range role.Permissions {
			out[perm.Name] = struct{}{}
		}
	}
	return out
}

// HasPermissions reports whether the principal holds every required
// permission name.
func (p Principal) HasPermissions(required ...string) bool {
	granted := p.Permissions()
	for _, name := range required {
		if _, ok := granted[name]; !ok {
			return false
		}
	}
	return true
}

// IsEnabled reports whether the account may authenticate.
func (p Principal) IsEnabled() bool { return p.Status == StatusEnabled }
