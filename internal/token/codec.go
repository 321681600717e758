// Package token signs and verifies the compact tokens that travel in
// cookies and password reset links. Every token type has its own secret
// and lifetime, so a token of one type never verifies as another.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sajansharmanz/accountd/config"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
)

var (
	// ErrExpired reports a token whose signature is valid but whose
	// lifetime has passed. Session verification treats this as renewable.
	ErrExpired = errors.New("token expired")
	// ErrInvalid reports a token that fails signature or shape checks.
	ErrInvalid = errors.New("token invalid")
)

// claims carries the caller payload under a single "data" claim next to
// the registered expiry claims.
type claims struct {
	Data json.RawMessage `json:"data"`
	jwt.RegisteredClaims
}

type typeParams struct {
	secret []byte
	ttl    time.Duration
}

// Codec signs and verifies typed tokens with HMAC-SHA256.
type Codec struct {
	params map[domainauth.TokenType]typeParams
}

// NewCodec builds a Codec from the configured per-type secrets and TTLs.
func NewCodec(cfg config.AuthConfig) *Codec {
	return &Codec{
		params: map[domainauth.TokenType]typeParams{
			domainauth.TokenTypeSession: {
				secret: []byte(cfg.Secrets.Session),
				ttl:    cfg.TTL.Session,
			},
			domainauth.TokenTypePasswordReset: {
				secret: []byte(cfg.Secrets.PasswordReset),
				ttl:    cfg.TTL.PasswordReset,
			},
			domainauth.TokenTypeCSRF: {
				secret: []byte(cfg.Secrets.CSRF),
				ttl:    cfg.TTL.CSRF,
			},
		},
	}
}

// TTL returns the configured lifetime for a token type.
func (c *Codec) TTL(typ domainauth.TokenType) time.Duration {
	return c.params[typ].ttl
}

// Sign serializes payload and wraps it in a signed token of the given
// type, expiring after the type's configured TTL.
func (c *Codec) Sign(payload any, typ domainauth.TokenType) (string, error) {
	p, ok := c.params[typ]
	if !ok {
		return "", fmt.Errorf("unknown token type %q", typ)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Data: data,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	})

	signed, err := t.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token against the given type's secret and decodes
// its payload into dst. An expired-but-authentic token returns
// ErrExpired with dst populated, so session renewal can read the
// principal it carried. Any other failure returns ErrInvalid.
func (c *Codec) Verify(tokenString string, typ domainauth.TokenType, dst any) error {
	p, ok := c.params[typ]
	if !ok {
		return fmt.Errorf("unknown token type %q", typ)
	}

	var cl claims
	_, err := jwt.ParseWithClaims(tokenString, &cl,
		func(t *jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	expired := false
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return ErrInvalid
		}
		expired = true
	}

	if dst != nil {
		if err := json.Unmarshal(cl.Data, dst); err != nil {
			return ErrInvalid
		}
	}
	if expired {
		return ErrExpired
	}
	return nil
}
