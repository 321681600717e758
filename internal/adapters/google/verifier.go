// Package google verifies Google One Tap ID tokens against Google's
// published signing keys.
package google

import (
	"context"
	"errors"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/ports"
)

const issuerURL = "https://accounts.google.com"

// Ensure compile-time conformance to ports.
var _ ports.IdentityVerifier = (*Verifier)(nil)

// Verifier validates Google ID tokens for a configured client ID.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewVerifier discovers Google's OIDC metadata and prepares a verifier
// bound to the given audience.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("google client ID is required")
	}

	provider, err := gooidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc provider: %w", err)
	}
	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks the raw ID token and extracts the identity.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (domainauth.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify google id token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domainauth.Identity{}, fmt.Errorf("decode google claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return domainauth.Identity{}, errors.New("google id token has no verified email")
	}

	return domainauth.Identity{
		Email:     claims.Email,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
	}, nil
}
