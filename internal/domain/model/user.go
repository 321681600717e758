// Package model contains persistence-facing records shared between the
// service layer and the data layer.
package model

import (
	"time"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
)

// EncryptedSecret is the stored form of an OTP seed: AES-GCM ciphertext
// with its initialization vector and authentication tag, all hex encoded.
// The three fields are always set together or cleared together.
type EncryptedSecret struct {
	Ciphertext string
	IV         string
	AuthTag    string
}

// IsZero reports whether no secret is stored.
func (s EncryptedSecret) IsZero() bool {
	return s.Ciphertext == "" && s.IV == "" && s.AuthTag == ""
}

// Complete reports whether all three parts are present. A partially set
// triple indicates storage corruption and is treated as missing.
func (s EncryptedSecret) Complete() bool {
	return s.Ciphertext != "" && s.IV != "" && s.AuthTag != ""
}

// User is the full credential record. It carries the password hash and
// lockout counter and must never cross the HTTP boundary; expose
// Principal() instead.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	Status              domainauth.UserStatus
	FailedLoginAttempts int
	OTPEnabled          bool
	OTPSecret           EncryptedSecret
	Roles               []domainauth.Role
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Principal returns the safe, authorization-facing view of the user.
func (u User) Principal() domainauth.Principal {
	return domainauth.Principal{
		ID:         u.ID,
		Email:      u.Email,
		Status:     u.Status,
		OTPEnabled: u.OTPEnabled,
		Roles:      u.Roles,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// CreateUserParams carries the inputs for creating a credential record.
// RoleNames are connected to existing seeded roles.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	RoleNames    []string
}
