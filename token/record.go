package token

import (
	"errors"
	"time"
)

var (
	// ErrNotFound reports that no token record exists for the principal.
	ErrNotFound = errors.New("token not found")
	// ErrMismatch reports that the stored refresh token differs from the
	// presented one.
	ErrMismatch = errors.New("token mismatch")
	// ErrExpired reports that the stored refresh token has passed its expiry.
	ErrExpired = errors.New("refresh token expired")
	// ErrInvalid reports a malformed token or an unverifiable signature.
	ErrInvalid = errors.New("invalid token")
	// ErrAccessExpired reports that an otherwise valid access token has
	// passed its expiry. Only returned by [Codec.Parse], never by
	// [Codec.ReadExpiredClaims].
	ErrAccessExpired = errors.New("access token expired")
)

// Token is the persisted access/refresh token record. It is the sole source
// of truth for refresh-token validity: an access token alone never suffices
// to re-authenticate.
//
// The record is created at login or multi-factor completion, its AccessToken
// field is rewritten on refresh, and it is removed when a new device-bound
// session must invalidate all prior sessions for the issuer.
type Token struct {
	PrincipalID  string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Issuer       string
	Role         Role
	DeviceID     string
}
