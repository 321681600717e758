package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sajansharmanz/accountd/internal/cryptoutil"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/ports"
	"github.com/sajansharmanz/accountd/internal/token"
)

// SessionStatus tags the outcome of a session verification.
type SessionStatus int

const (
	// SessionInvalid means the caller is not authenticated.
	SessionInvalid SessionStatus = iota
	// SessionValid means the presented token authenticates as-is.
	SessionValid
	// SessionRenewed means the token had expired but its server-side
	// record was live; a replacement token was issued.
	SessionRenewed
)

// SessionVerification is the tagged result of Verify. Principal is set
// for Valid and Renewed; NewToken only for Renewed.
type SessionVerification struct {
	Status    SessionStatus
	Principal domainauth.Principal
	NewToken  string
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Codec  *token.Codec
	Tokens ports.TokenStore
	Users  ports.UserStore
	Logger *slog.Logger
}

// SessionManager issues, verifies, and revokes sessions. A session is
// authentic only when the signed token verifies AND its hash matches a
// live server-side record, so revocation wins over signature validity.
type SessionManager struct {
	codec  *token.Codec
	tokens ports.TokenStore
	users  ports.UserStore
	logger *slog.Logger
}

// NewSessionManager constructs a new SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		codec:  opts.Codec,
		tokens: opts.Tokens,
		users:  opts.Users,
		logger: logger,
	}
}

// Issue signs a session token embedding the principal snapshot and
// stores its hash as the revocable record.
func (m *SessionManager) Issue(ctx context.Context, principal domainauth.Principal) (string, error) {
	signed, err := m.codec.Sign(principal, domainauth.TokenTypeSession)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	if err := m.tokens.Create(ctx, principal.ID, cryptoutil.HashToken(signed), domainauth.TokenTypeSession); err != nil {
		return "", fmt.Errorf("store session record: %w", err)
	}
	return signed, nil
}

// Verify authenticates a presented session token. cookieUserID is the id
// from the companion user cookie; when non-empty it must match the
// session owner. Expired-but-revocable sessions are silently renewed
// with a fresh principal snapshot; the old record is consumed. The
// returned error reports infrastructure failure only, never an
// authentication outcome.
func (m *SessionManager) Verify(ctx context.Context, tokenString, cookieUserID string) (SessionVerification, error) {
	invalid := SessionVerification{Status: SessionInvalid}
	if tokenString == "" {
		return invalid, nil
	}

	hash := cryptoutil.HashToken(tokenString)
	rec, err := m.tokens.FindByHash(ctx, hash, domainauth.TokenTypeSession)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return invalid, nil
		}
		return invalid, fmt.Errorf("find session record: %w", err)
	}

	if cookieUserID != "" && cookieUserID != rec.UserID {
		return invalid, nil
	}

	var principal domainauth.Principal
	verr := m.codec.Verify(tokenString, domainauth.TokenTypeSession, &principal)
	switch {
	case verr == nil:
		if principal.ID != rec.UserID {
			return invalid, nil
		}
		return SessionVerification{Status: SessionValid, Principal: principal}, nil

	case errors.Is(verr, token.ErrExpired):
		return m.renew(ctx, rec.UserID, hash)

	default:
		return invalid, nil
	}
}

// renew replaces an expired session with a fresh one for the same user.
// The principal is reloaded from storage so role or status changes made
// during the session's lifetime take effect.
func (m *SessionManager) renew(ctx context.Context, userID, oldHash string) (SessionVerification, error) {
	invalid := SessionVerification{Status: SessionInvalid}

	fresh, err := m.users.FindPrincipalByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return invalid, nil
		}
		return invalid, fmt.Errorf("load principal for renewal: %w", err)
	}
	if !fresh.IsEnabled() {
		return invalid, nil
	}

	newToken, err := m.Issue(ctx, fresh)
	if err != nil {
		return invalid, fmt.Errorf("issue renewed session: %w", err)
	}

	if err := m.tokens.DeleteByHash(ctx, oldHash, domainauth.TokenTypeSession); err != nil {
		m.logger.WarnContext(ctx, "failed to delete replaced session record", "error", err)
	}

	return SessionVerification{Status: SessionRenewed, Principal: fresh, NewToken: newToken}, nil
}

// Revoke deletes the server-side record for a session token. Revoking an
// unknown token is a no-op.
func (m *SessionManager) Revoke(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return nil
	}
	if err := m.tokens.DeleteByHash(ctx, cryptoutil.HashToken(tokenString), domainauth.TokenTypeSession); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll deletes every session record for a user.
func (m *SessionManager) RevokeAll(ctx context.Context, userID string) error {
	if err := m.tokens.DeleteForUser(ctx, userID, domainauth.TokenTypeSession); err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}
	return nil
}
