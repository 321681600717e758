package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/sajansharmanz/accountd/internal/data/pgxutil"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.TokenStore = (*TokenRepo)(nil)

// TokenRepo persists hashed token records in PostgreSQL.
type TokenRepo struct {
	DB *sql.DB
}

// NewTokenRepo creates a new TokenRepo.
func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db}
}

// Create inserts a token record.
func (r *TokenRepo) Create(ctx context.Context, userID, tokenHash string, typ domainauth.TokenType) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO tokens (user_id, token, type)
			VALUES ($1, $2, $3)`, userID, tokenHash, typ)
		return err
	})
	return apperrors.MapDBError(err)
}

// FindByHash returns the record for a hash and type, or NotFound.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string, typ domainauth.TokenType) (model.TokenRecord, error) {
	var rec model.TokenRecord
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			SELECT id, user_id, token, type, created_at
			FROM tokens
			WHERE token = $1 AND type = $2`, tokenHash, typ)
		return row.Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.Type, &rec.CreatedAt)
	})
	if err != nil {
		return model.TokenRecord{}, apperrors.MapDBError(err)
	}
	return rec, nil
}

// DeleteByHash removes a record. Deleting an absent record is a no-op.
func (r *TokenRepo) DeleteByHash(ctx context.Context, tokenHash string, typ domainauth.TokenType) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			DELETE FROM tokens WHERE token = $1 AND type = $2`, tokenHash, typ)
		return err
	})
	return apperrors.MapDBError(err)
}

// DeleteForUser removes every record of the given type for a user.
func (r *TokenRepo) DeleteForUser(ctx context.Context, userID string, typ domainauth.TokenType) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			DELETE FROM tokens WHERE user_id = $1 AND type = $2`, userID, typ)
		return err
	})
	return apperrors.MapDBError(err)
}
