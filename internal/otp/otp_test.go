package otp

import (
	"testing"
	"time"

	otplib "github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajansharmanz/accountd/config"
)

func testEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	e := NewEngine(config.OTPConfig{Issuer: "accountd", Label: "accountd"})
	e.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	key, err := e.Generate()
	require.NoError(t, err)
	return e, key.Secret
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    period,
		Digits:    otplib.DigitsSix,
		Algorithm: otplib.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestEngine_Generate(t *testing.T) {
	e := NewEngine(config.OTPConfig{Issuer: "accountd", Label: "user"})

	key, err := e.Generate()
	require.NoError(t, err)

	// 10 random bytes base32-encode to 16 characters.
	assert.Len(t, key.Secret, 16)
	assert.Contains(t, key.URL, "otpauth://totp/")
	assert.Contains(t, key.URL, "issuer=accountd")

	other, err := e.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, key.Secret, other.Secret)
}

func TestEngine_Validate_CurrentStep(t *testing.T) {
	e, secret := testEngine(t)

	offset, ok := e.Validate(codeAt(t, secret, e.now()), secret, 0)

	require.True(t, ok)
	assert.Equal(t, 0, offset)
}

func TestEngine_Validate_WindowOffsets(t *testing.T) {
	e, secret := testEngine(t)

	past := codeAt(t, secret, e.now().Add(-period*time.Second))
	future := codeAt(t, secret, e.now().Add(period*time.Second))

	offset, ok := e.Validate(past, secret, 1)
	require.True(t, ok)
	assert.Equal(t, -1, offset)

	offset, ok = e.Validate(future, secret, 1)
	require.True(t, ok)
	assert.Equal(t, 1, offset)
}

func TestEngine_Validate_OutsideWindow(t *testing.T) {
	e, secret := testEngine(t)

	stale := codeAt(t, secret, e.now().Add(-2*period*time.Second))

	_, ok := e.Validate(stale, secret, 1)
	assert.False(t, ok)

	offset, ok := e.Validate(stale, secret, 3)
	require.True(t, ok)
	assert.Equal(t, -2, offset)
}

func TestEngine_Validate_Rejects(t *testing.T) {
	e, secret := testEngine(t)

	_, ok := e.Validate("000000", secret, 3)
	assert.False(t, ok)

	_, ok = e.Validate("", secret, 3)
	assert.False(t, ok)

	_, ok = e.Validate(codeAt(t, secret, e.now()), "", 3)
	assert.False(t, ok)
}
