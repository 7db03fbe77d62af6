package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-webauth/webauth"
	"github.com/go-webauth/webauth/token"
)

// TokenStore implements webauth.TokenRepository over the webauth_tokens
// table. The (principal_id, issuer) primary key makes a repeat login at the
// same issuer an upsert over the previous session.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore returns a TokenStore on the given pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

const tokenColumns = `principal_id, issuer, access_token, refresh_token, role, device_id, expires_at`

// GetToken returns the record holding the presented refresh token, falling
// back to the principal's newest record so a wrong token reads as a
// mismatch. (nil, nil) when the principal holds no record at all.
func (s *TokenStore) GetToken(ctx context.Context, principalID, refreshToken string) (*token.Token, error) {
	rec, err := s.scanOne(ctx,
		`SELECT `+tokenColumns+` FROM webauth_tokens
		  WHERE principal_id = $1 AND refresh_token = $2`, principalID, refreshToken)
	if err != nil || rec != nil {
		return rec, err
	}
	return s.scanOne(ctx,
		`SELECT `+tokenColumns+` FROM webauth_tokens
		  WHERE principal_id = $1
		  ORDER BY expires_at DESC
		  LIMIT 1`, principalID)
}

// AddToken persists a record, replacing any prior session for the same
// (principal, issuer) slot.
func (s *TokenStore) AddToken(ctx context.Context, rec *token.Token) error {
	return s.put(ctx, rec)
}

// UpdateToken overwrites the record for the same (principal, issuer) slot.
func (s *TokenStore) UpdateToken(ctx context.Context, rec *token.Token) error {
	return s.put(ctx, rec)
}

// RemoveExistingToken drops the principal's record for the given issuer.
// Removing a missing record is not an error.
func (s *TokenStore) RemoveExistingToken(ctx context.Context, principalID, issuer string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM webauth_tokens WHERE principal_id = $1 AND issuer = $2`, principalID, issuer)
	if err != nil {
		return fmt.Errorf("delete token record: %w", err)
	}
	return nil
}

func (s *TokenStore) put(ctx context.Context, rec *token.Token) error {
	if rec == nil {
		return errors.New("nil token record")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO webauth_tokens (`+tokenColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (principal_id, issuer) DO UPDATE SET
		     access_token = EXCLUDED.access_token,
		     refresh_token = EXCLUDED.refresh_token,
		     role = EXCLUDED.role,
		     device_id = EXCLUDED.device_id,
		     expires_at = EXCLUDED.expires_at`,
		rec.PrincipalID, rec.Issuer, rec.AccessToken, rec.RefreshToken,
		string(rec.Role), rec.DeviceID, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert token record: %w", err)
	}
	return nil
}

func (s *TokenStore) scanOne(ctx context.Context, query string, args ...any) (*token.Token, error) {
	var (
		rec  token.Token
		role string
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&rec.PrincipalID, &rec.Issuer, &rec.AccessToken, &rec.RefreshToken,
		&role, &rec.DeviceID, &rec.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query token record: %w", err)
	}
	rec.Role = token.Role(role)
	return &rec, nil
}

var _ webauth.TokenRepository = (*TokenStore)(nil)
