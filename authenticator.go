package webauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/go-webauth/webauth/metrics"
	"github.com/go-webauth/webauth/password"
	"github.com/go-webauth/webauth/token"
)

// AuthorizationType is the scheme reported in every LoginResult.
const AuthorizationType = "Bearer"

// AuthenticatorOptions carries the optional collaborators of an
// [Authenticator].
type AuthenticatorOptions struct {
	// Permissions backs the "permitted to log in" extension point. It is
	// consulted only when Config.RequiredLoginPermission is set; if the
	// permission is required but no checker is configured, login fails
	// closed.
	Permissions PermissionChecker
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Authenticator verifies credentials, derives the role to grant and
// orchestrates token issuance and multi-factor delivery.
type Authenticator struct {
	cfg        Config
	principals PrincipalRepository
	generator  *TokenGenerator
	mfa        *MultiFactorHandler
	encoder    password.Encoder
	perms      PermissionChecker
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewAuthenticator builds the login orchestrator. All three collaborators
// are required; optional behavior lives in opts.
func NewAuthenticator(cfg Config, principals PrincipalRepository, generator *TokenGenerator, mfa *MultiFactorHandler, opts AuthenticatorOptions) *Authenticator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Authenticator{
		cfg:        cfg,
		principals: principals,
		generator:  generator,
		mfa:        mfa,
		encoder:    password.NewEncoder(cfg.PasswordSecret),
		perms:      opts.Permissions,
		log:        log,
		metrics:    opts.Metrics,
		now:        time.Now,
	}
}

// Login verifies a username/password pair and issues a token under the
// derived role.
//
// The temporary-password lookup runs first: a principal flagged "must reset
// password" whose temporary password matches logs in under the
// password-setup role. Otherwise the password is encoded and matched
// against the stored hash; the role is then password-setup when a reset is
// pending, multi-factor-pending when the second factor applies, and the
// regular user role otherwise.
//
// A full token is minted before the multi-factor challenge is dispatched;
// the multi-factor-pending role on that token is what keeps every other
// endpoint gated until the code is verified. Every ordinary rejection maps
// to ErrInvalidCredentials without further detail.
func (a *Authenticator) Login(ctx context.Context, username, pass string) (*LoginResult, error) {
	principal, role, err := a.verifyCredentials(ctx, username, pass)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			a.metrics.LoginFailure()
			a.log.Info("login rejected", zap.String("username", username))
		}
		return nil, err
	}

	rec, err := a.generator.Generate(ctx, principal, role)
	if err != nil {
		return nil, err
	}
	if err := a.mfa.SendIfNeeded(ctx, principal); err != nil {
		return nil, err
	}

	a.metrics.LoginSuccess()
	a.log.Info("login succeeded",
		zap.String("principal", principal.ID()),
		zap.String("role", string(role)))
	return a.loginResult(principal, role, rec), nil
}

// ValidateMultiFactorCode escalates a multi-factor-pending session to the
// regular role after the challenge code checks out. The principal id comes
// from the current session's token claims.
func (a *Authenticator) ValidateMultiFactorCode(ctx context.Context, principalID, code string) (*LoginResult, error) {
	principal, err := a.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrInvalidTokenUser
		}
		return nil, err
	}

	ok, err := a.mfa.IsCodeValid(ctx, principal, code, PurposeMultiFactor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidValidationCode
	}

	rec, err := a.generator.Generate(ctx, principal, RoleUser)
	if err != nil {
		return nil, err
	}
	return a.loginResult(principal, RoleUser, rec), nil
}

// ChangePassword re-encodes and stores the new password. The repository
// clears the must-reset flag and any temporary password alongside.
func (a *Authenticator) ChangePassword(ctx context.Context, principalID, newPassword string) error {
	if err := a.principals.UpdatePassword(ctx, principalID, a.encoder.Encode(newPassword)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	a.log.Info("password changed", zap.String("principal", principalID))
	return nil
}

// RecoverAccount dispatches an account-recovery challenge code. An unknown
// username silently no-ops so the call leaks nothing about which accounts
// exist.
func (a *Authenticator) RecoverAccount(ctx context.Context, usernameOrEmail string) error {
	principal, err := a.principals.GetByUsername(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil
		}
		return err
	}
	return a.mfa.SendCode(ctx, principal, PurposeAccountRecovery, "")
}

// ValidateAccountRecovery verifies a recovery code and, on success, issues
// a fresh password-setup token with MustChangePassword set.
func (a *Authenticator) ValidateAccountRecovery(ctx context.Context, usernameOrEmail, code string) (*LoginResult, error) {
	principal, err := a.principals.GetByUsername(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrInvalidValidationCode
		}
		return nil, err
	}

	ok, err := a.mfa.IsCodeValid(ctx, principal, code, PurposeAccountRecovery)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidValidationCode
	}

	rec, err := a.generator.Generate(ctx, principal, RolePasswordSetup)
	if err != nil {
		return nil, err
	}
	return a.loginResult(principal, RolePasswordSetup, rec), nil
}

func (a *Authenticator) verifyCredentials(ctx context.Context, username, pass string) (AuthenticableEntity, Role, error) {
	principal, err := a.principals.GetWithTemporaryPassword(ctx, username, pass)
	switch {
	case err == nil:
		if err := a.permitted(ctx, principal); err != nil {
			return nil, "", err
		}
		return principal, RolePasswordSetup, nil
	case !errors.Is(err, ErrPrincipalNotFound):
		return nil, "", err
	}

	principal, err = a.principals.GetByCredentials(ctx, username, a.encoder.Encode(pass))
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := a.permitted(ctx, principal); err != nil {
		return nil, "", err
	}

	role := RoleUser
	switch {
	case principal.MustResetPassword():
		role = RolePasswordSetup
	case a.cfg.MultiFactorEnabled && principal.TwoFactorEnabled():
		role = RoleMultiFactorPending
	}
	return principal, role, nil
}

// permitted applies the active flag and the optional login-permission gate.
// Both rejections collapse into ErrInvalidCredentials.
func (a *Authenticator) permitted(ctx context.Context, principal AuthenticableEntity) error {
	if !principal.Active() {
		return ErrInvalidCredentials
	}
	if a.cfg.RequiredLoginPermission == "" {
		return nil
	}
	if a.perms == nil {
		// A required permission with no checker configured fails closed.
		return ErrInvalidCredentials
	}
	ok, err := a.perms.HasPermission(ctx, principal, a.cfg.RequiredLoginPermission)
	if err != nil {
		return fmt.Errorf("permission check: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *Authenticator) loginResult(principal AuthenticableEntity, role Role, rec *token.Token) *LoginResult {
	lifetime := a.cfg.AccessTokenTTL
	if role.Temporary() {
		lifetime = a.cfg.TemporaryTokenTTL
	}
	return &LoginResult{
		AuthorizationType:  AuthorizationType,
		ExpiresOn:          a.now().Add(lifetime),
		AccessToken:        rec.AccessToken,
		RefreshToken:       rec.RefreshToken,
		MustVerifyCode:     role == RoleMultiFactorPending,
		MustChangePassword: role == RolePasswordSetup,
		PrincipalID:        principal.ID(),
		DisplayName:        principal.DisplayName(),
		Username:           principal.Username(),
	}
}
