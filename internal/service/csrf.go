package service

import (
	"crypto/subtle"
	"fmt"

	"github.com/sajansharmanz/accountd/internal/cryptoutil"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/token"
)

// csrfRawLen is the random byte length of the raw CSRF value.
const csrfRawLen = 32

// csrfPayload is the shape embedded in the signed CSRF cookie.
type csrfPayload struct {
	Token string `json:"token"`
}

// CSRFGuardOptions groups dependencies for CSRFGuard.
type CSRFGuardOptions struct {
	Codec *token.Codec
	// AppDomain is the origin state-changing requests must present.
	AppDomain string
}

// CSRFGuard implements the double-submit check: a random raw value goes
// to the client both as a form value and wrapped in a signed cookie, and
// state-changing requests must present both halves matching.
type CSRFGuard struct {
	codec     *token.Codec
	appDomain string
}

// NewCSRFGuard constructs a new CSRFGuard.
func NewCSRFGuard(opts CSRFGuardOptions) *CSRFGuard {
	return &CSRFGuard{codec: opts.Codec, appDomain: opts.AppDomain}
}

// Issue generates a raw CSRF value and the signed cookie wrapping it.
func (g *CSRFGuard) Issue() (raw, signed string, err error) {
	raw, err = cryptoutil.RandomHex(csrfRawLen)
	if err != nil {
		return "", "", fmt.Errorf("generate csrf value: %w", err)
	}
	signed, err = g.codec.Sign(csrfPayload{Token: raw}, domainauth.TokenTypeCSRF)
	if err != nil {
		return "", "", fmt.Errorf("sign csrf cookie: %w", err)
	}
	return raw, signed, nil
}

// CheckRequest carries the request values the guard inspects.
type CheckRequest struct {
	Method    string
	Origin    string
	Referer   string
	Host      string
	Cookie    string
	FormValue string
}

// safeMethods never change state and bypass the guard.
var safeMethods = map[string]struct{}{
	"GET":     {},
	"HEAD":    {},
	"OPTIONS": {},
}

// Check enforces the guard on a request. Every failure path returns a
// bare ForbiddenError; callers get no hint which half failed.
func (g *CSRFGuard) Check(req CheckRequest) error {
	if _, ok := safeMethods[req.Method]; ok {
		return nil
	}

	origin := req.Origin
	if origin == "" {
		origin = req.Referer
	}
	if origin == "" {
		origin = req.Host
	}
	if origin != g.appDomain {
		return apperrors.Forbidden()
	}

	if req.Cookie == "" || req.FormValue == "" {
		return apperrors.Forbidden()
	}

	var payload csrfPayload
	if err := g.codec.Verify(req.Cookie, domainauth.TokenTypeCSRF, &payload); err != nil {
		return apperrors.Forbidden()
	}

	if subtle.ConstantTimeCompare([]byte(payload.Token), []byte(req.FormValue)) != 1 {
		return apperrors.Forbidden()
	}
	return nil
}
