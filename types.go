package webauth

import (
	"context"
	"time"

	"github.com/go-webauth/webauth/token"
)

// Role aliases the token package's role set so hosts rarely need to import
// it directly.
type Role = token.Role

const (
	RoleUser               = token.RoleUser
	RolePasswordSetup      = token.RolePasswordSetup
	RoleAccountCreation    = token.RoleAccountCreation
	RoleAccountRecovery    = token.RoleAccountRecovery
	RoleMultiFactorPending = token.RoleMultiFactorPending
)

// AuthenticableEntity is any principal that can authenticate: a human user
// or an external system/service account. The persistence layer owns the
// concrete type; core components only read it through this interface.
type AuthenticableEntity interface {
	ID() string
	Username() string
	PasswordHash() string
	Active() bool
	MustResetPassword() bool
	TwoFactorEnabled() bool
	DisplayName() string
}

// CodePurpose tags a validation code with the flow it belongs to.
type CodePurpose string

const (
	PurposeMultiFactor     CodePurpose = "multiFactor"
	PurposeAccountRecovery CodePurpose = "accountRecovery"
	PurposeAccountCreation CodePurpose = "accountCreation"
	PurposePasswordReset   CodePurpose = "passwordReset"
)

// Purposes lists every known code purpose, in no particular order.
func Purposes() []CodePurpose {
	return []CodePurpose{PurposeMultiFactor, PurposeAccountRecovery, PurposeAccountCreation, PurposePasswordReset}
}

// ValidationCode is a short numeric challenge code persisted per
// (principal, purpose). At most one valid code is consulted per pair; stale
// codes for the same purpose are deleted before a new one is issued.
type ValidationCode struct {
	ID          string
	PrincipalID string
	Code        string
	Purpose     CodePurpose
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the code has passed its expiry at the given time.
func (vc *ValidationCode) Expired(now time.Time) bool {
	return now.After(vc.ExpiresAt)
}

// PrincipalRepository is the credential-lookup interface the host must
// implement. Lookups return ErrPrincipalNotFound when nothing matches;
// any other error is treated as an infrastructure failure and propagated.
type PrincipalRepository interface {
	GetByID(ctx context.Context, id string) (AuthenticableEntity, error)
	// GetByCredentials matches username plus the already-encoded password
	// hash by exact equality.
	GetByCredentials(ctx context.Context, username, encodedPassword string) (AuthenticableEntity, error)
	// GetWithTemporaryPassword matches a principal flagged "must reset
	// password" whose temporary password equals the raw password.
	GetWithTemporaryPassword(ctx context.Context, username, password string) (AuthenticableEntity, error)
	GetByUsername(ctx context.Context, username string) (AuthenticableEntity, error)
	// HasToken reports whether the principal currently holds a token record
	// with the given refresh token.
	HasToken(ctx context.Context, id, refreshToken string) (bool, error)
	// UpdatePassword stores a newly encoded password hash and clears the
	// must-reset flag and any temporary password.
	UpdatePassword(ctx context.Context, id, encodedPassword string) error
}

// TokenRepository persists token records. GetToken returns the record
// holding the given refresh token when one exists; otherwise it returns the
// principal's current record (so a wrong refresh token is reported as a
// mismatch rather than a missing session), or (nil, nil) when the principal
// holds no record at all.
type TokenRepository interface {
	GetToken(ctx context.Context, principalID, refreshToken string) (*token.Token, error)
	AddToken(ctx context.Context, t *token.Token) error
	UpdateToken(ctx context.Context, t *token.Token) error
	// RemoveExistingToken deletes the principal's token records for the
	// given issuer, invalidating all prior sessions.
	RemoveExistingToken(ctx context.Context, principalID, issuer string) error
}

// ValidationCodeRepository persists challenge codes. Lookups return
// (nil, nil) when nothing matches.
type ValidationCodeRepository interface {
	// GetExistingValidCode returns the non-expired code matching principal,
	// code value and purpose.
	GetExistingValidCode(ctx context.Context, principalID, code string, purpose CodePurpose) (*ValidationCode, error)
	// GetLastCode returns the most recently created code for the principal,
	// regardless of purpose.
	GetLastCode(ctx context.Context, principalID string) (*ValidationCode, error)
	SaveNewCode(ctx context.Context, vc *ValidationCode) error
	DeleteExistingCode(ctx context.Context, principalID string, purpose CodePurpose) error
	DeleteCode(ctx context.Context, vc *ValidationCode) error
}

// DeviceManager mints and resolves client device ids for device binding.
// It is optional; when absent, tokens are issued unbound.
type DeviceManager interface {
	CreateNewDevice(ctx context.Context, principalID string) (string, error)
	GetCurrentDevice(ctx context.Context, principalID string) (string, error)
}

// CodeSender delivers a challenge code to a principal over an outbound
// channel (email, SMS, voice). An empty code means delivery is fully
// delegated and the sender generates the code itself.
type CodeSender interface {
	SendCode(ctx context.Context, principal AuthenticableEntity, code string, expiresAt time.Time, channel string) error
}

// CodeValidator verifies challenge codes issued by an external system. When
// configured together with an external sender, the core neither stores nor
// checks codes itself.
type CodeValidator interface {
	IsCodeValid(ctx context.Context, principal AuthenticableEntity, code string) (bool, error)
}

// PermissionChecker is the "permitted to log in" extension point. It is
// consulted only when Config.RequiredLoginPermission is set.
type PermissionChecker interface {
	HasPermission(ctx context.Context, principal AuthenticableEntity, permission string) (bool, error)
}

// LoginRequest is the wire shape of a password login call.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the wire shape returned on successful login or
// multi-factor completion.
type LoginResult struct {
	AuthorizationType  string    `json:"authorizationType"`
	ExpiresOn          time.Time `json:"expiresOn"`
	AccessToken        string    `json:"accessToken"`
	RefreshToken       string    `json:"refreshToken"`
	MustVerifyCode     bool      `json:"mustVerifyCode"`
	MustChangePassword bool      `json:"mustChangePassword"`
	PrincipalID        string    `json:"principalId"`
	DisplayName        string    `json:"displayName"`
	Username           string    `json:"username"`
}

// RefreshRequest is the wire shape of a token refresh call.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse carries the new access token; the refresh token is
// returned unchanged.
type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
