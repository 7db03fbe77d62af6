package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-webauth/webauth"
	"github.com/go-webauth/webauth/token"
)

// TokenStore implements webauth.TokenRepository on Redis. Records live in
// one hash per principal, keyed by issuer, so a principal holds at most one
// session per issuing site and logging in again replaces the old record.
type TokenStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewTokenStore returns a TokenStore using the given key prefix, defaulting
// to "webauth".
func NewTokenStore(rdb redis.UniversalClient, prefix string) *TokenStore {
	if prefix == "" {
		prefix = "webauth"
	}
	return &TokenStore{rdb: rdb, prefix: prefix}
}

func (s *TokenStore) key(principalID string) string {
	return s.prefix + ":token:" + principalID
}

// GetToken returns the record holding the presented refresh token. When the
// principal has records but none matches, the newest record is returned so
// the caller can distinguish a mismatched token from a missing one. No
// records at all yields (nil, nil).
func (s *TokenStore) GetToken(ctx context.Context, principalID, refreshToken string) (*token.Token, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(principalID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	var newest *token.Token
	for _, raw := range fields {
		var rec token.Token
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		if rec.RefreshToken == refreshToken {
			return &rec, nil
		}
		if newest == nil || rec.ExpiresAt.After(newest.ExpiresAt) {
			newest = &rec
		}
	}
	return newest, nil
}

// AddToken persists a new record under the principal's hash. The hash TTL
// is pushed out to the record's expiry so abandoned sessions age out.
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
	if err := s.rdb.HDel(ctx, s.key(principalID), issuer).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

func (s *TokenStore) put(ctx context.Context, rec *token.Token) error {
	if rec == nil {
		return errors.New("nil token record")
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.key(rec.PrincipalID)
	if err := s.rdb.HSet(ctx, key, rec.Issuer, encoded).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if ttl := time.Until(rec.ExpiresAt); ttl > 0 {
		if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	return nil
}

var _ webauth.TokenRepository = (*TokenStore)(nil)
