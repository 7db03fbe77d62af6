package webauth

import (
	"errors"

	"github.com/go-webauth/webauth/certificate"
	"github.com/go-webauth/webauth/token"
)

var (
	// ErrInvalidCredentials is the single outcome for every ordinary login
	// rejection: unknown principal, wrong password or key, inactive
	// account, or a missing required login permission. The reasons are
	// deliberately not distinguished, to prevent user enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound is returned by repositories when no principal
	// matches a lookup. The Authenticator folds it into
	// ErrInvalidCredentials so callers cannot distinguish unknown users
	// from bad passwords.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrValidationCodeNotFound is returned when a resend is requested but
	// no prior challenge code exists to seed it.
	ErrValidationCodeNotFound = errors.New("validation code not found")
	// ErrValidationCodeSenderNotFound is returned when multi-factor is
	// enabled but no code sender was ever registered.
	ErrValidationCodeSenderNotFound = errors.New("validation code sender not registered")
	// ErrInvalidValidationCode is returned when a presented challenge code
	// fails verification.
	ErrInvalidValidationCode = errors.New("invalid validation code")
	// ErrInvalidTokenUser is returned when a token references a principal
	// that no longer exists or is inactive.
	ErrInvalidTokenUser = errors.New("token user not found")
)

// Token-validation failures are owned by the token package; the aliases keep
// errors.Is working across the public API surface.
var (
	ErrTokenNotFound      = token.ErrNotFound
	ErrTokenMismatch      = token.ErrMismatch
	ErrTokenExpired       = token.ErrExpired
	ErrInvalidToken       = token.ErrInvalid
	ErrAccessTokenExpired = token.ErrAccessExpired
)

// Certificate failures, re-exported from the certificate package.
var (
	ErrCertificateNotPresent = certificate.ErrNotPresent
	ErrCertificateNotValid   = certificate.ErrNotValid
)
