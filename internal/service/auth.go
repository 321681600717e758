package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sajansharmanz/accountd/internal/cryptoutil"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/otp"
	"github.com/sajansharmanz/accountd/internal/password"
	"github.com/sajansharmanz/accountd/internal/ports"
	"github.com/sajansharmanz/accountd/internal/token"
)

// loginVerifyWindow is the accepted TOTP step skew during login.
const loginVerifyWindow = 1

// defaultRole is connected to every self-registered account.
const defaultRole = "User"

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users    ports.UserStore
	Tokens   ports.TokenStore
	Sessions *SessionManager
	Codec    *token.Codec
	Hasher   *password.Hasher
	Cipher   *cryptoutil.Cipher
	OTP      *otp.Engine
	Notifier ports.Notifier

	// MaxFailedLoginAttempts locks the account when the failure counter
	// reaches this value.
	MaxFailedLoginAttempts int

	Logger *slog.Logger
}

// AuthService orchestrates signup, login, logout, and password recovery.
// Credential failures surface as a uniform AuthenticationError so
// callers cannot distinguish an unknown email from a wrong password or
// a locked account.
type AuthService struct {
	users       ports.UserStore
	tokens      ports.TokenStore
	sessions    *SessionManager
	codec       *token.Codec
	hasher      *password.Hasher
	cipher      *cryptoutil.Cipher
	otp         *otp.Engine
	notifier    ports.Notifier
	maxAttempts int
	logger      *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       opts.Users,
		tokens:      opts.Tokens,
		sessions:    opts.Sessions,
		codec:       opts.Codec,
		hasher:      opts.Hasher,
		cipher:      opts.Cipher,
		otp:         opts.OTP,
		notifier:    opts.Notifier,
		maxAttempts: opts.MaxFailedLoginAttempts,
		logger:      logger,
	}
}

// LoginResult is the outcome of a successful credential exchange. When
// PendingOTP is set, no session exists yet; the caller must complete
// VerifyLogin with the pending user's code.
type LoginResult struct {
	Principal    domainauth.Principal
	SessionToken string
	PendingOTP   bool
	Pending      domainauth.PendingLogin
}

// SignUp registers a new account, connects the default role, and logs
// the user straight in.
func (s *AuthService) SignUp(ctx context.Context, email, pass string) (*LoginResult, error) {
	verr := &apperrors.ValidationError{}
	validateEmail(verr, email)
	validatePassword(verr, pass)
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, model.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		RoleNames:    []string{defaultRole},
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return s.establishSession(ctx, user.Principal())
}

// Login exchanges email and password for a session, or for a pending
// OTP step when two-factor is enabled on the account.
func (s *AuthService) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.AuthInline()
		}
		return nil, apperrors.MapDBError(err)
	}

	if user.Status != domainauth.StatusEnabled {
		return nil, apperrors.AuthInline()
	}

	if err := s.hasher.Verify(pass, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, s.registerFailure(ctx, user)
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if err := s.clearFailures(ctx, user); err != nil {
		return nil, err
	}

	if user.OTPEnabled {
		return &LoginResult{
			PendingOTP: true,
			Pending:    domainauth.PendingLogin{ID: user.ID, OTPEnabled: true},
		}, nil
	}

	return s.establishSession(ctx, user.Principal())
}

// VerifyLogin completes a pending two-factor login with a TOTP code.
// Wrong codes advance the lockout counter like wrong passwords.
func (s *AuthService) VerifyLogin(ctx context.Context, userID, code string) (*LoginResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.AuthInline()
		}
		return nil, apperrors.MapDBError(err)
	}

	if user.Status != domainauth.StatusEnabled || !user.OTPEnabled || !user.OTPSecret.Complete() {
		return nil, apperrors.AuthInline()
	}

	secret, err := s.cipher.Decrypt(user.OTPSecret)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to decrypt otp secret", "user_id", user.ID, "error", err)
		return nil, apperrors.AuthInline()
	}

	if _, ok := s.otp.Validate(code, secret, loginVerifyWindow); !ok {
		return nil, s.registerFailure(ctx, user)
	}

	if err := s.clearFailures(ctx, user); err != nil {
		return nil, err
	}

	return s.establishSession(ctx, user.Principal())
}

// LoginWithIdentity logs in via an externally verified identity
// assertion. Existing accounts skip the password check but still go
// through the pending OTP step when two-factor is enabled; unknown
// emails get a fresh account with an unguessable password.
func (s *AuthService) LoginWithIdentity(ctx context.Context, verifier ports.IdentityVerifier, assertion string) (*LoginResult, error) {
	identity, err := verifier.Verify(ctx, assertion)
	if err != nil {
		s.logger.WarnContext(ctx, "identity assertion rejected", "error", err)
		return nil, apperrors.AuthInline()
	}

	user, err := s.users.FindByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if user.Status != domainauth.StatusEnabled {
			return nil, apperrors.AuthInline()
		}

		if err := s.clearFailures(ctx, user); err != nil {
			return nil, err
		}

		if user.OTPEnabled {
			return &LoginResult{
				PendingOTP: true,
				Pending:    domainauth.PendingLogin{ID: user.ID, OTPEnabled: true},
			}, nil
		}

		return s.establishSession(ctx, user.Principal())

	case apperrors.IsNotFound(err):
		raw, err := cryptoutil.RandomHex(32)
		if err != nil {
			return nil, fmt.Errorf("generate placeholder password: %w", err)
		}
		hash, err := s.hasher.Hash(raw)
		if err != nil {
			return nil, fmt.Errorf("hash placeholder password: %w", err)
		}
		created, err := s.users.Create(ctx, model.CreateUserParams{
			Email:        identity.Email,
			PasswordHash: hash,
			FirstName:    identity.FirstName,
			LastName:     identity.LastName,
			RoleNames:    []string{defaultRole},
		})
		if err != nil {
			return nil, apperrors.MapDBError(err)
		}
		return s.establishSession(ctx, created.Principal())

	default:
		return nil, apperrors.MapDBError(err)
	}
}

// Logout revokes the presented session. Unknown tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionToken string) error {
	return s.sessions.Revoke(ctx, sessionToken)
}

// LogoutAll revokes every session for the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.RevokeAll(ctx, userID)
}

// ForgotPassword issues a password reset token and emails it. The
// outcome is uniform whether or not the email exists, so the endpoint
// cannot be used to enumerate accounts. Outstanding reset tokens for
// the account are replaced.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return apperrors.MapDBError(err)
	}

	if err := s.tokens.DeleteForUser(ctx, user.ID, domainauth.TokenTypePasswordReset); err != nil {
		return fmt.Errorf("clear outstanding reset tokens: %w", err)
	}

	signed, err := s.codec.Sign(resetPayload{ID: user.ID}, domainauth.TokenTypePasswordReset)
	if err != nil {
		return fmt.Errorf("sign reset token: %w", err)
	}
	if err := s.tokens.Create(ctx, user.ID, cryptoutil.HashToken(signed), domainauth.TokenTypePasswordReset); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.notifier.PasswordReset(ctx, user.Email, signed); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email", "error", err)
	}
	return nil
}

// resetPayload is the shape embedded in password reset tokens.
type resetPayload struct {
	ID string `json:"id"`
}

// ResetPassword consumes a reset token, sets the new password,
// re-enables the account, and revokes every session.
func (s *AuthService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	verr := &apperrors.ValidationError{}
	validatePassword(verr, newPassword)
	if !verr.Empty() {
		return verr
	}

	var payload resetPayload
	if err := s.codec.Verify(tokenString, domainauth.TokenTypePasswordReset, &payload); err != nil {
		return apperrors.AuthInline()
	}

	hash := cryptoutil.HashToken(tokenString)
	rec, err := s.tokens.FindByHash(ctx, hash, domainauth.TokenTypePasswordReset)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.AuthInline()
		}
		return apperrors.MapDBError(err)
	}
	if rec.UserID != payload.ID {
		return apperrors.AuthInline()
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, rec.UserID, passwordHash); err != nil {
		return apperrors.MapDBError(err)
	}
	if err := s.users.UpdateLoginAttempts(ctx, rec.UserID, 0, domainauth.StatusEnabled); err != nil {
		return apperrors.MapDBError(err)
	}
	if err := s.tokens.DeleteByHash(ctx, hash, domainauth.TokenTypePasswordReset); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if err := s.sessions.RevokeAll(ctx, rec.UserID); err != nil {
		return err
	}
	return nil
}

// UpdateAccount changes the account's email and/or password. Empty
// fields are left unchanged.
func (s *AuthService) UpdateAccount(ctx context.Context, userID, email, pass string) (domainauth.Principal, error) {
	verr := &apperrors.ValidationError{}
	if email != "" {
		validateEmail(verr, email)
	}
	if pass != "" {
		validatePassword(verr, pass)
	}
	if !verr.Empty() {
		return domainauth.Principal{}, verr
	}

	var passwordHash string
	if pass != "" {
		var err error
		passwordHash, err = s.hasher.Hash(pass)
		if err != nil {
			return domainauth.Principal{}, fmt.Errorf("hash password: %w", err)
		}
	}

	user, err := s.users.UpdateEmailPassword(ctx, userID, email, passwordHash)
	if err != nil {
		return domainauth.Principal{}, apperrors.MapDBError(err)
	}
	return user.Principal(), nil
}

// DeleteAccount removes the account and revokes every session.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// registerFailure advances the lockout counter after a credential
// failure and locks the account at the threshold. The caller always
// gets the uniform authentication error.
func (s *AuthService) registerFailure(ctx context.Context, user model.User) error {
	attempts := user.FailedLoginAttempts + 1
	status := user.Status
	if attempts >= s.maxAttempts {
		status = domainauth.StatusLocked
	}

	if err := s.users.UpdateLoginAttempts(ctx, user.ID, attempts, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login failure", "user_id", user.ID, "error", err)
	}

	if status == domainauth.StatusLocked && user.Status != domainauth.StatusLocked {
		if err := s.notifier.AccountLocked(ctx, user.Email); err != nil {
			s.logger.ErrorContext(ctx, "failed to send account locked email", "error", err)
		}
	}

	return apperrors.AuthInline()
}

// clearFailures resets the counter after a successful credential check.
func (s *AuthService) clearFailures(ctx context.Context, user model.User) error {
	if user.FailedLoginAttempts == 0 {
		return nil
	}
	if err := s.users.UpdateLoginAttempts(ctx, user.ID, 0, user.Status); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// establishSession issues a session for the principal.
func (s *AuthService) establishSession(ctx context.Context, principal domainauth.Principal) (*LoginResult, error) {
	signed, err := s.sessions.Issue(ctx, principal)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Principal: principal, SessionToken: signed}, nil
}
