package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TokenSecretsConfig holds the per-type signing secrets. Each token type
// MUST use a distinct secret; this is the anti-cross-type-replay control.
type TokenSecretsConfig struct {
	Session       string `env:"SESSION_TOKEN_SECRET,required"`
	PasswordReset string `env:"PASSWORD_RESET_TOKEN_SECRET,required"`
	CSRF          string `env:"CSRF_TOKEN_SECRET,required"`
}

// TokenTTLConfig holds the per-type token lifetimes.
type TokenTTLConfig struct {
	Session       time.Duration `env:"SESSION_TOKEN_TTL"        envDefault:"168h"`
	PasswordReset time.Duration `env:"PASSWORD_RESET_TOKEN_TTL" envDefault:"30m"`
	CSRF          time.Duration `env:"CSRF_TOKEN_TTL"           envDefault:"15m"`
}

// OTPConfig controls TOTP provisioning metadata. Issuer and label are
// display metadata in authenticator apps; they do not affect validation.
type OTPConfig struct {
	Issuer string `env:"OTP_ISSUER" envDefault:"accountd"`
	Label  string `env:"OTP_LABEL"  envDefault:"accountd"`
}

// OAuthConfig identifies the accepted audiences for external identity
// assertions. Assertions are verified against the provider's published
// keys; only the audience is deployment-specific.
type OAuthConfig struct {
	GoogleClientID string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	AppleClientID  string `env:"APPLE_OAUTH_CLIENT_ID"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Secrets per token type. Distinctness is enforced by Validate.
	Secrets TokenSecretsConfig

	// TTLs per token type.
	TTL TokenTTLConfig

	// EncryptionSecret keys the AEAD cipher protecting OTP seeds at rest.
	EncryptionSecret string `env:"ENCRYPTION_SECRET,required"`

	// PasswordSecret is mixed into password hashes as an argon2 pepper.
	PasswordSecret string `env:"PASSWORD_SECRET,required"`

	// MaxFailedLoginAttempts locks the account when the failure counter
	// reaches this value.
	MaxFailedLoginAttempts int `env:"MAX_FAILED_LOGIN_ATTEMPTS" envDefault:"5"`

	// OTP provisioning metadata.
	OTP OTPConfig

	// OAuth audiences.
	OAuth OAuthConfig
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.MaxFailedLoginAttempts < 1 {
		a.MaxFailedLoginAttempts = 1
	}
	if a.TTL.Session <= 0 {
		a.TTL.Session = 168 * time.Hour
	}
	if a.TTL.PasswordReset <= 0 {
		a.TTL.PasswordReset = 30 * time.Minute
	}
	if a.TTL.CSRF <= 0 {
		a.TTL.CSRF = 15 * time.Minute
	}
}

// Validate enforces that every token type is signed with its own secret.
// A shared secret would let a short-lived CSRF token replay as a session.
func (a *AuthConfig) Validate() error {
	secrets := map[string]string{
		"SESSION_TOKEN_SECRET":        a.Secrets.Session,
		"PASSWORD_RESET_TOKEN_SECRET": a.Secrets.PasswordReset,
		"CSRF_TOKEN_SECRET":           a.Secrets.CSRF,
	}

	seen := make(map[string][]string, len(secrets))
	for name, value := range secrets {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		seen[value] = append(seen[value], name)
	}
	for _, names := range seen {
		if len(names) > 1 {
			return errors.New("token secrets must be distinct per token type: " + strings.Join(names, ", "))
		}
	}
	return nil
}
