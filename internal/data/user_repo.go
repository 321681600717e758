// Package data contains the PostgreSQL persistence layer. Queries run on
// raw pgx connections obtained through the stdlib bridge in pgxutil.
package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sajansharmanz/accountd/internal/data/pgxutil"
	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.UserStore = (*UserRepo)(nil)

// UserRepo persists credential records in PostgreSQL.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, email, password, status, failed_login_attempts,
	otp_enabled, otp_secret, otp_secret_iv, otp_auth_tag, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var secret, iv, tag sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Status, &u.FailedLoginAttempts,
		&u.OTPEnabled, &secret, &iv, &tag, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	u.OTPSecret = model.EncryptedSecret{
		Ciphertext: secret.String,
		IV:         iv.String,
		AuthTag:    tag.String,
	}
	return u, nil
}

// loadRoles fetches the user's roles with their permissions.
func loadRoles(ctx context.Context, conn *pgx.Conn, userID string) ([]domainauth.Role, error) {
	rows, err := conn.Query(ctx, `
		SELECT r.name, COALESCE(p.name, '')
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY r.name, p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domainauth.Role
	for rows.Next() {
		var roleName, permName string
		if err := rows.Scan(&roleName, &permName); err != nil {
			return nil, err
		}
		if len(roles) == 0 || roles[len(roles)-1].Name != roleName {
			roles = append(roles, domainauth.Role{Name: roleName})
		}
		if permName != "" {
			last := &roles[len(roles)-1]
			last.Permissions = append(last.Permissions, domainauth.Permission{Name: permName})
		}
	}
	return roles, rows.Err()
}

// normalizeEmail lower-cases and trims an email so lookups and writes
// agree on one canonical form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user and connects the named roles in one transaction.
func (r *UserRepo) Create(ctx context.Context, params model.CreateUserParams) (model.User, error) {
	var u model.User
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (email, password, first_name, last_name)
			VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
			RETURNING `+userColumns,
			normalizeEmail(params.Email), params.PasswordHash, params.FirstName, params.LastName)

		var err error
		u, err = scanUser(row)
		if err != nil {
			return err
		}

		if len(params.RoleNames) > 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO user_roles (user_id, role_id)
				SELECT $1, id FROM roles WHERE name = ANY($2)`,
				u.ID, params.RoleNames)
			if err != nil {
				return err
			}
		}

		u.Roles, err = loadRolesTx(ctx, tx, u.ID)
		return err
	}})
	if err != nil {
		return model.User{}, apperrors.MapDBError(err)
	}
	return u, nil
}

// loadRolesTx is loadRoles on a transaction.
func loadRolesTx(ctx context.Context, tx pgx.Tx, userID string) ([]domainauth.Role, error) {
	return loadRoles(ctx, tx.Conn(), userID)
}

func (r *UserRepo) findBy(ctx context.Context, where string, arg any) (model.User, error) {
	var u model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
		var err error
		u, err = scanUser(row)
		if err != nil {
			return err
		}
		u.Roles, err = loadRoles(ctx, conn, u.ID)
		return err
	})
	if err != nil {
		return model.User{}, apperrors.MapDBError(err)
	}
	return u, nil
}

// FindByEmail looks up a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findBy(ctx, `email = $1`, normalizeEmail(email))
}

// FindByID looks up a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findBy(ctx, `id = $1`, id)
}

// FindPrincipalByID loads the authorization-facing view of a user.
func (r *UserRepo) FindPrincipalByID(ctx context.Context, id string) (domainauth.Principal, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return domainauth.Principal{}, err
	}
	return u.Principal(), nil
}

// exec runs a statement and reports NotFound when no row was touched.
func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	return apperrors.MapDBError(err)
}

// UpdateLoginAttempts sets the failure counter and status in one write.
func (r *UserRepo) UpdateLoginAttempts(ctx context.Context, id string, attempts int, status domainauth.UserStatus) error {
	return r.exec(ctx, `
		UPDATE users SET failed_login_attempts = $2, status = $3, updated_at = now()
		WHERE id = $1`, id, attempts, status)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
		UPDATE users SET password = $2, updated_at = now()
		WHERE id = $1`, id, passwordHash)
}

// UpdateEmailPassword applies an account update; empty fields are kept.
func (r *UserRepo) UpdateEmailPassword(ctx context.Context, id, email, passwordHash string) (model.User, error) {
	var u model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		row := conn.QueryRow(ctx, `
			UPDATE users SET
				email = CASE WHEN $2 <> '' THEN $2 ELSE email END,
				password = CASE WHEN $3 <> '' THEN $3 ELSE password END,
				updated_at = now()
			WHERE id = $1
			RETURNING `+userColumns, id, normalizeEmail(email), passwordHash)
		var err error
		u, err = scanUser(row)
		if err != nil {
			return err
		}
		u.Roles, err = loadRoles(ctx, conn, u.ID)
		return err
	})
	if err != nil {
		return model.User{}, apperrors.MapDBError(err)
	}
	return u, nil
}

// SetOTPSecret stores the encrypted seed triple. The enabled flag is
// untouched; it flips only in MarkOTPVerified.
func (r *UserRepo) SetOTPSecret(ctx context.Context, id string, secret model.EncryptedSecret) error {
	return r.exec(ctx, `
		UPDATE users SET otp_secret = $2, otp_secret_iv = $3, otp_auth_tag = $4, updated_at = now()
		WHERE id = $1`, id, secret.Ciphertext, secret.IV, secret.AuthTag)
}

// MarkOTPVerified turns two-factor on.
func (r *UserRepo) MarkOTPVerified(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE users SET otp_enabled = true, updated_at = now()
		WHERE id = $1`, id)
}

// DisableOTP clears the seed triple and the flag in one write.
func (r *UserRepo) DisableOTP(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE users SET otp_enabled = false, otp_secret = NULL, otp_secret_iv = NULL,
			otp_auth_tag = NULL, updated_at = now()
		WHERE id = $1`, id)
}

// Delete removes the user; token records go with it via cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}
