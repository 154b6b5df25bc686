package catalog

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned for login failures. A missing account
// and a wrong password produce the same error so the caller cannot tell
// which half of the credential was wrong.
var ErrInvalidCredentials = errors.New("Credentials are not valid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrUserInactive is returned when a token resolves to a disabled account
var ErrUserInactive = errors.New("User is inactive, talk with an admin", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("USER_INACTIVE")

// ErrInsufficientRoles is returned when the caller is authenticated but
// its role set does not intersect the route requirement
var ErrInsufficientRoles = errors.New("User does not have the necessary privileges", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("INSUFFICIENT_ROLES")

// ErrTokenExpired is returned for tokens past their expiration claim
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrTokenMissing is returned when the request carries no bearer token
var ErrTokenMissing = errors.New("missing or malformed bearer token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MISSING")

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrMismatchedHashAndPassword is the bcrypt mismatch error
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString rejects empty plaintext passwords
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryValidation).
	WithTextCode("EMPTY_STRING")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed")
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// Covers the postgres 23505 class and the sqlite UNIQUE message so the same
// check works against both dialects we run on.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// MapPersistenceError reclassifies a storage failure into the public
// taxonomy. Unique violations keep their detail as a Conflict, everything
// else becomes an opaque Internal error; the raw cause stays attached as
// the source so it can be logged server side without leaking storage
// internals to the caller.
func MapPersistenceError(err error) error {
	if err == nil {
		return nil
	}

	if IsDuplicateKeyError(err) {
		return errors.Wrap(err, errors.CategoryConflict, err.Error()).
			WithCode(errors.CodeConflict).
			WithTextCode("DUPLICATE_KEY")
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category != errors.CategoryInternal {
		return richErr
	}

	return errors.Wrap(err, errors.CategoryInternal, "Unexpected error, check server logs").
		WithCode(errors.CodeInternal).
		WithTextCode("PERSISTENCE_ERROR")
}
