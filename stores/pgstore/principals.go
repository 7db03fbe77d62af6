package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-webauth/webauth"
)

// Principal is the row shape backing webauth.AuthenticableEntity.
type Principal struct {
	id                string
	username          string
	displayName       string
	passwordHash      string
	active            bool
	mustResetPassword bool
	twoFactorEnabled  bool
}

func (p *Principal) ID() string              { return p.id }
func (p *Principal) Username() string        { return p.username }
func (p *Principal) DisplayName() string     { return p.displayName }
func (p *Principal) PasswordHash() string    { return p.passwordHash }
func (p *Principal) Active() bool            { return p.active }
func (p *Principal) MustResetPassword() bool { return p.mustResetPassword }
func (p *Principal) TwoFactorEnabled() bool  { return p.twoFactorEnabled }

const principalColumns = `id, username, display_name, password_hash, active, must_reset_password, two_factor_enabled`

// PrincipalStore implements webauth.PrincipalRepository over the
// webauth_principals table.
type PrincipalStore struct {
	pool *pgxpool.Pool
}

// NewPrincipalStore returns a PrincipalStore on the given pool.
func NewPrincipalStore(pool *pgxpool.Pool) *PrincipalStore {
	return &PrincipalStore{pool: pool}
}

// GetByID returns the principal with the given id.
func (s *PrincipalStore) GetByID(ctx context.Context, id string) (webauth.AuthenticableEntity, error) {
	return s.one(ctx,
		`SELECT `+principalColumns+` FROM webauth_principals WHERE id = $1`, id)
}

// GetByUsername returns the principal with the given username.
func (s *PrincipalStore) GetByUsername(ctx context.Context, username string) (webauth.AuthenticableEntity, error) {
	return s.one(ctx,
		`SELECT `+principalColumns+` FROM webauth_principals WHERE username = $1`, username)
}

// GetByCredentials matches username and the already-encoded password hash by
// exact equality.
func (s *PrincipalStore) GetByCredentials(ctx context.Context, username, encodedPassword string) (webauth.AuthenticableEntity, error) {
	return s.one(ctx,
		`SELECT `+principalColumns+` FROM webauth_principals
		  WHERE username = $1 AND password_hash = $2`, username, encodedPassword)
}

// GetWithTemporaryPassword matches a principal flagged must-reset whose
// temporary password equals the raw password.
func (s *PrincipalStore) GetWithTemporaryPassword(ctx context.Context, username, password string) (webauth.AuthenticableEntity, error) {
	return s.one(ctx,
		`SELECT `+principalColumns+` FROM webauth_principals
		  WHERE username = $1 AND temporary_password = $2 AND must_reset_password`, username, password)
}

// HasToken reports whether the principal currently holds a token record with
// the given refresh token.
func (s *PrincipalStore) HasToken(ctx context.Context, id, refreshToken string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		    SELECT 1 FROM webauth_tokens WHERE principal_id = $1 AND refresh_token = $2
		 )`, id, refreshToken).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query token existence: %w", err)
	}
	return exists, nil
}

// UpdatePassword stores a newly encoded password hash and clears the
// must-reset flag and any temporary password.
func (s *PrincipalStore) UpdatePassword(ctx context.Context, id, encodedPassword string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE webauth_principals
		    SET password_hash = $2, must_reset_password = FALSE, temporary_password = NULL
		  WHERE id = $1`, id, encodedPassword)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return webauth.ErrPrincipalNotFound
	}
	return nil
}

func (s *PrincipalStore) one(ctx context.Context, query string, args ...any) (webauth.AuthenticableEntity, error) {
	var p Principal
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&p.id, &p.username, &p.displayName, &p.passwordHash,
		&p.active, &p.mustResetPassword, &p.twoFactorEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, webauth.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("query principal: %w", err)
	}
	return &p, nil
}

var _ webauth.PrincipalRepository = (*PrincipalStore)(nil)
