package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sajansharmanz/accountd/internal/cryptoutil"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/otp"
	"github.com/sajansharmanz/accountd/internal/ports"
)

// enrollVerifyWindow is the accepted TOTP step skew for enable and
// disable flows. Wider than the login window: the user is typing a code
// off a device they just provisioned.
const enrollVerifyWindow = 3

// otpField is the validation field name used for code failures.
const otpField = "OTPError"

// OTPServiceOptions groups dependencies for OTPService.
type OTPServiceOptions struct {
	Users  ports.UserStore
	Cipher *cryptoutil.Cipher
	OTP    *otp.Engine
	Logger *slog.Logger
}

// OTPService manages two-factor enrollment. The seed is stored
// encrypted and the enabled flag only flips after a code verifies.
type OTPService struct {
	users  ports.UserStore
	cipher *cryptoutil.Cipher
	otp    *otp.Engine
	logger *slog.Logger
}

// NewOTPService constructs a new OTPService.
func NewOTPService(opts OTPServiceOptions) *OTPService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OTPService{
		users:  opts.Users,
		cipher: opts.Cipher,
		otp:    opts.OTP,
		logger: logger,
	}
}

// Generate provisions a fresh secret for the user and stores it
// encrypted. Re-generating before verification replaces the previous
// unverified seed.
func (s *OTPService) Generate(ctx context.Context, userID string) (otp.Key, error) {
	key, err := s.otp.Generate()
	if err != nil {
		return otp.Key{}, err
	}

	sealed, err := s.cipher.Encrypt(key.Secret)
	if err != nil {
		return otp.Key{}, fmt.Errorf("encrypt otp secret: %w", err)
	}
	if err := s.users.SetOTPSecret(ctx, userID, sealed); err != nil {
		return otp.Key{}, apperrors.MapDBError(err)
	}
	return key, nil
}

// Verify checks a code against the stored seed and enables two-factor
// on success.
func (s *OTPService) Verify(ctx context.Context, userID, code string) error {
	secret, err := s.loadSecret(ctx, userID)
	if err != nil {
		return err
	}

	if _, ok := s.otp.Validate(code, secret, enrollVerifyWindow); !ok {
		return apperrors.Validation(otpField, "Invalid code")
	}

	if err := s.users.MarkOTPVerified(ctx, userID); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Disable checks a code and turns two-factor off, clearing the stored
// seed. A valid code is required so a hijacked session cannot silently
// weaken the account without the device.
func (s *OTPService) Disable(ctx context.Context, userID, code string) error {
	secret, err := s.loadSecret(ctx, userID)
	if err != nil {
		return err
	}

	if _, ok := s.otp.Validate(code, secret, enrollVerifyWindow); !ok {
		return apperrors.Validation(otpField, "Invalid code")
	}

	if err := s.users.DisableOTP(ctx, userID); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// loadSecret fetches and decrypts the user's stored seed. A missing or
// partial stored triple reports as a validation failure.
func (s *OTPService) loadSecret(ctx context.Context, userID string) (string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", apperrors.MapDBError(err)
	}

	if !user.OTPSecret.Complete() {
		return "", apperrors.Validation(otpField, "No code generated for user")
	}

	secret, err := s.cipher.Decrypt(user.OTPSecret)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to decrypt otp secret", "user_id", userID, "error", err)
		return "", apperrors.Validation(otpField, "No code generated for user")
	}
	return secret, nil
}
