package service

import (
	"net/mail"
	"strings"
	"unicode"

	apperrors "github.com/sajansharmanz/accountd/internal/errors"
)

// minPasswordLen is the minimum accepted password length.
const minPasswordLen = 8

// validateEmail appends email failures to verr.
func validateEmail(verr *apperrors.ValidationError, email string) {
	if strings.TrimSpace(email) == "" {
		verr.Add("email", "Email is required")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		verr.Add("email", "Email must be a valid email address")
	}
}

// validatePassword appends password failures to verr. The rules match
// the signup form contract: length plus one of each character class.
func validatePassword(verr *apperrors.ValidationError, password string) {
	if password == "" {
		verr.Add("password", "Password is required")
		return
	}
	if len(password) < minPasswordLen {
		verr.Add("password", "Password must be at least 8 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper {
		verr.Add("password", "Password must contain an uppercase letter")
	}
	if !lower {
		verr.Add("password", "Password must contain a lowercase letter")
	}
	if !digit {
		verr.Add("password", "Password must contain a number")
	}
	if !special {
		verr.Add("password", "Password must contain a special character")
	}
}
