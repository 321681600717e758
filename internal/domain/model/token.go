package model

import (
	"time"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
)

// TokenRecord is the server-side, revocable pointer to an issued signed
// token. Only the SHA-256 hash of the bearer value is stored, so a leaked
// database never yields replayable tokens.
type TokenRecord struct {
	ID        string
	UserID    string
	TokenHash string
	Type      domainauth.TokenType
	CreatedAt time.Time
}
