// Package apple verifies Sign in with Apple identity tokens. Apple only
// sends the user's name on the very first authorization, so the
// extracted identity carries the email alone.
package apple

import (
	"context"
	"errors"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/ports"
)

const issuerURL = "https://appleid.apple.com"

// Ensure compile-time conformance to ports.
var _ ports.IdentityVerifier = (*Verifier)(nil)

// Verifier validates Apple identity tokens for a configured client ID.
type Verifier struct {
	verifier *gooidc.IDTokenVerifier
}

// NewVerifier discovers Apple's OIDC metadata and prepares a verifier
// bound to the given audience.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("apple client ID is required")
	}

	provider, err := gooidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover apple oidc provider: %w", err)
	}
	return &Verifier{
		verifier: provider.Verifier(&gooidc.Config{ClientID: clientID}),
	}, nil
}

// Verify checks the raw identity token and extracts the identity.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (domainauth.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify apple identity token: %w", err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domainauth.Identity{}, fmt.Errorf("decode apple claims: %w", err)
	}
	if claims.Email == "" {
		return domainauth.Identity{}, errors.New("apple identity token has no email")
	}

	return domainauth.Identity{Email: claims.Email}, nil
}
