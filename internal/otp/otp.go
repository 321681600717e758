// Package otp wraps TOTP provisioning and validation for the two-factor
// flows. Codes are six digits, SHA-1, on a 30 second period, which is
// what the common authenticator apps expect.
package otp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/sajansharmanz/accountd/config"
)

const (
	period     = 30
	secretSize = 10
)

// Key is a freshly provisioned TOTP secret with its otpauth:// URL for
// QR rendering.
type Key struct {
	Secret string
	URL    string
}

// Engine provisions and validates TOTP codes.
type Engine struct {
	issuer string
	label  string
	now    func() time.Time
}

// NewEngine builds an Engine with the configured issuer and label.
func NewEngine(cfg config.OTPConfig) *Engine {
	return &Engine{issuer: cfg.Issuer, label: cfg.Label, now: time.Now}
}

// Generate provisions a new random TOTP secret.
func (e *Engine) Generate() (Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      e.issuer,
		AccountName: e.label,
		SecretSize:  secretSize,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Key{}, fmt.Errorf("generate totp secret: %w", err)
	}
	return Key{Secret: key.Secret(), URL: key.URL()}, nil
}

// Validate checks a code against the secret, accepting steps up to
// window periods away from now. It returns the matched step offset in
// periods, preferring the candidate closest to the current step.
func (e *Engine) Validate(code, secret string, window int) (int, bool) {
	if code == "" || secret == "" {
		return 0, false
	}

	opts := totp.ValidateOpts{
		Period:    period,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}

	now := e.now()
	for step := 0; step <= window; step++ {
		for _, offset := range candidateOffsets(step) {
			at := now.Add(time.Duration(offset) * period * time.Second)
			ok, err := totp.ValidateCustom(code, secret, at, opts)
			if err == nil && ok {
				return offset, true
			}
		}
	}
	return 0, false
}

func candidateOffsets(step int) []int {
	if step == 0 {
		return []int{0}
	}
	return []int{step, -step}
}
