// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/data and internal/adapters; orchestration
// in internal/service.
package ports

import (
	"context"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
)

// UserStore persists credential records. Emails are stored lowercase;
// implementations normalize on lookup and write.
type UserStore interface {
	// Create inserts a user with the given roles connected. Conflicting
	// emails surface as Conflict via the data layer's error mapping.
	Create(ctx context.Context, params model.CreateUserParams) (model.User, error)

	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)

	// FindPrincipalByID loads the authorization-facing view only.
	FindPrincipalByID(ctx context.Context, id string) (domainauth.Principal, error)

	// UpdateLoginAttempts sets the failure counter and status together.
	// Lockout is a single write of (count, LOCKED).
	UpdateLoginAttempts(ctx context.Context, id string, attempts int, status domainauth.UserStatus) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateEmailPassword applies an account update. Empty fields are
	// left unchanged. Returns the updated record.
	UpdateEmailPassword(ctx context.Context, id, email, passwordHash string) (model.User, error)

	// SetOTPSecret stores the encrypted seed triple without flipping the
	// enabled flag; the flag flips only after a code verifies.
	SetOTPSecret(ctx context.Context, id string, secret model.EncryptedSecret) error

	// MarkOTPVerified sets the enabled flag.
	MarkOTPVerified(ctx context.Context, id string) error

	// DisableOTP clears the triple and the flag in one write.
	DisableOTP(ctx context.Context, id string) error

	Delete(ctx context.Context, id string) error
}

// TokenStore persists hashed token records. Raw bearer values never
// reach implementations; callers hash first.
type TokenStore interface {
	Create(ctx context.Context, userID, tokenHash string, typ domainauth.TokenType) error

	// FindByHash returns NotFound when no record of that type exists.
	FindByHash(ctx context.Context, tokenHash string, typ domainauth.TokenType) (model.TokenRecord, error)

	// DeleteByHash removes a record; deleting an absent record is a no-op.
	DeleteByHash(ctx context.Context, tokenHash string, typ domainauth.TokenType) error

	// DeleteForUser removes every record of the given type for a user.
	DeleteForUser(ctx context.Context, userID string, typ domainauth.TokenType) error
}

// Notifier delivers account emails. Callers treat delivery as
// fire-and-forget; failures are logged, never propagated to flows.
type Notifier interface {
	AccountLocked(ctx context.Context, email string) error
	PasswordReset(ctx context.Context, email, token string) error
}

// IdentityVerifier validates an external identity assertion (a Google ID
// token or Apple posted user payload) and extracts the identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (domainauth.Identity, error)
}
