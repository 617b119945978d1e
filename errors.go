package hireqa

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surface on the wire as the error_code field.
const (
	TextCodeDuplicateEmail    = "duplicate_email"
	TextCodeDuplicateUsername = "duplicate_username"
	TextCodeWeakPassword      = "weak_password"
	TextCodeInvalidDate       = "invalid_date"
	TextCodePersistence       = "persistence_error"
	TextCodeInvalidCreds      = "invalid_credentials"
	TextCodeAccountIncomplete = "account_incomplete"
	TextCodeEmailNotVerified  = "email_not_verified"
	TextCodeInvalidToken      = "invalid_token"
	TextCodeTokenExpired      = "token_expired"
	TextCodeAlreadyVerified   = "already_verified"
	TextCodeAccountNotFound   = "account_not_found"
	TextCodeUnauthenticated   = "unauthenticated"
	TextCodeSessionExpired    = "session_expired"
	TextCodeEmptyPassword     = "empty_password"
)

// ErrDuplicateEmail is returned when the email is already registered.
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeBadRequest)

// ErrDuplicateUsername is returned when the username is already taken.
var ErrDuplicateUsername = errors.New("username already taken", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUsername).
	WithCode(errors.CodeBadRequest)

// ErrInvalidDate is returned when a date field does not parse as YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date format, use YYYY-MM-DD", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidDate).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals which one failed.
var ErrInvalidCredentials = errors.New("incorrect email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountIncomplete is returned when an account has no credential hash.
var ErrAccountIncomplete = errors.New("account setup incomplete, please contact support", errors.CategoryAuth).
	WithTextCode(TextCodeAccountIncomplete).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified blocks login until the verification flow completes.
var ErrEmailNotVerified = errors.New("email not verified, please check your inbox for the verification link", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)

// ErrInvalidVerificationToken is returned when no account carries the token.
var ErrInvalidVerificationToken = errors.New("invalid verification token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeBadRequest)

// ErrVerificationTokenExpired is returned for a known but stale token.
var ErrVerificationTokenExpired = errors.New("verification token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeBadRequest)

// ErrAlreadyVerified is returned when a reissue targets a verified account.
var ErrAlreadyVerified = errors.New("email is already verified", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotFound is returned when a reissue targets an unknown email.
var ErrAccountNotFound = errors.New("no account found with this email", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrUnauthenticated rejects protected-route access with a bad session token.
var ErrUnauthenticated = errors.New("could not validate credentials", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrSessionExpired is returned when a session JWT is past its exp claim.
var ErrSessionExpired = errors.New("session has expired, please log in again", errors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch signal; it is
// mapped to ErrInvalidCredentials before it leaves the auth pipeline.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// NewPersistenceError wraps a store or transport failure. The message stays
// generic; the cause travels in the wrapped chain for logs only.
func NewPersistenceError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode(TextCodePersistence).
		WithCode(errors.CodeInternal)
}

// NewWeakPasswordError carries the zxcvbn score and suggestions so the
// caller can render field-level feedback.
func NewWeakPasswordError(score int, suggestions []string) *errors.Error {
	return errors.New("password is too weak", errors.CategoryValidation).
		WithTextCode(TextCodeWeakPassword).
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{
			"score":       score,
			"suggestions": suggestions,
		})
}

// IsUniqueViolation reports whether err is the store rejecting a write on
// the unique index covering column. bun surfaces driver errors as opaque
// strings, so this matches the sqlite and postgres constraint messages.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") &&
		!strings.Contains(msg, "duplicate key value") {
		return false
	}
	return strings.Contains(msg, column)
}

// HasTextCode reports whether err carries the given wire code.
func HasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
