package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError_Nil(t *testing.T) {
	assert.Nil(t, MapDBError(nil))
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)

	require.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMapDBError_ContextErrors(t *testing.T) {
	timeout := MapDBError(context.DeadlineExceeded)
	require.True(t, isCode(timeout, ErrCodeTimeout))

	canceled := MapDBError(context.Canceled)
	require.True(t, isCode(canceled, ErrCodeCanceled))
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (email)=(user@example.com) already exists.",
	}

	err := MapDBError(pgErr)

	require.True(t, IsConflict(err))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
}

func TestMapDBError_UniqueViolation_ColumnNameWins(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       pgerrcode.UniqueViolation,
		ColumnName: "email",
		Detail:     "Key (something_else)=(x) already exists.",
	}

	err := MapDBError(pgErr)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "email", appErr.Field)
}

func TestMapDBError_ForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}

	err := MapDBError(pgErr)

	assert.True(t, IsNotFound(err))
}

func TestMapDBError_UnknownPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.SerializationFailure}

	err := MapDBError(pgErr)

	assert.True(t, isCode(err, ErrCodeInternal))
}

func TestMapDBError_PassThrough(t *testing.T) {
	plain := errors.New("some other failure")
	assert.Same(t, plain, MapDBError(plain))
}
