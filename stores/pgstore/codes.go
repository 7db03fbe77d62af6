package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/go-webauth/webauth"
)

// CodeStore implements webauth.ValidationCodeRepository over the
// webauth_validation_codes table.
type CodeStore struct {
	pool *pgxpool.Pool
}

// NewCodeStore returns a CodeStore on the given pool.
func NewCodeStore(pool *pgxpool.Pool) *CodeStore {
	return &CodeStore{pool: pool}
}

const codeColumns = `id, principal_id, code, purpose, created_at, expires_at`

// SaveNewCode inserts the code, replacing any prior code for the same
// (principal, purpose).
func (s *CodeStore) SaveNewCode(ctx context.Context, vc *webauth.ValidationCode) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO webauth_validation_codes (`+codeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (principal_id, purpose) DO UPDATE SET
		     id = EXCLUDED.id,
		     code = EXCLUDED.code,
		     created_at = EXCLUDED.created_at,
		     expires_at = EXCLUDED.expires_at`,
		vc.ID, vc.PrincipalID, vc.Code, string(vc.Purpose), vc.CreatedAt, vc.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert validation code: %w", err)
	}
	return nil
}

// GetExistingValidCode returns the non-expired code matching principal,
// value and purpose, (nil, nil) when nothing matches.
func (s *CodeStore) GetExistingValidCode(ctx context.Context, principalID, code string, purpose webauth.CodePurpose) (*webauth.ValidationCode, error) {
	return s.scanOne(ctx,
		`SELECT `+codeColumns+` FROM webauth_validation_codes
		  WHERE principal_id = $1 AND code = $2 AND purpose = $3 AND expires_at > now()`,
		principalID, code, string(purpose))
}

// GetLastCode returns the most recently created code for the principal
// across all purposes, (nil, nil) when none exists.
func (s *CodeStore) GetLastCode(ctx context.Context, principalID string) (*webauth.ValidationCode, error) {
	return s.scanOne(ctx,
		`SELECT `+codeColumns+` FROM webauth_validation_codes
		  WHERE principal_id = $1
		  ORDER BY created_at DESC
		  LIMIT 1`, principalID)
}

// DeleteExistingCode removes the principal's code for the given purpose.
// Deleting a missing code is not an error.
func (s *CodeStore) DeleteExistingCode(ctx context.Context, principalID string, purpose webauth.CodePurpose) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM webauth_validation_codes WHERE principal_id = $1 AND purpose = $2`,
		principalID, string(purpose))
	if err != nil {
		return fmt.Errorf("delete validation code: %w", err)
	}
	return nil
}

// DeleteCode removes a specific code record by id.
func (s *CodeStore) DeleteCode(ctx context.Context, vc *webauth.ValidationCode) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM webauth_validation_codes WHERE id = $1`, vc.ID)
	if err != nil {
		return fmt.Errorf("delete validation code: %w", err)
	}
	return nil
}

func (s *CodeStore) scanOne(ctx context.Context, query string, args ...any) (*webauth.ValidationCode, error) {
	var (
		vc      webauth.ValidationCode
		purpose string
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&vc.ID, &vc.PrincipalID, &vc.Code, &purpose, &vc.CreatedAt, &vc.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query validation code: %w", err)
	}
	vc.Purpose = webauth.CodePurpose(purpose)
	return &vc, nil
}

var _ webauth.ValidationCodeRepository = (*CodeStore)(nil)
