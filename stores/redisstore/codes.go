package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-webauth/webauth"
)

// ErrBackend wraps any Redis failure surfaced by this package.
var ErrBackend = errors.New("redis store unavailable")

// CodeStore implements webauth.ValidationCodeRepository on Redis. One key
// per (principal, purpose) keeps the at-most-one-valid-code invariant
// structural: saving a new code overwrites the prior one.
type CodeStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewCodeStore returns a CodeStore using the given key prefix, defaulting
// to "webauth".
func NewCodeStore(rdb redis.UniversalClient, prefix string) *CodeStore {
	if prefix == "" {
		prefix = "webauth"
	}
	return &CodeStore{rdb: rdb, prefix: prefix}
}

func (s *CodeStore) key(principalID string, purpose webauth.CodePurpose) string {
	return s.prefix + ":code:" + principalID + ":" + string(purpose)
}

// SaveNewCode stores the code under its (principal, purpose) key with a TTL
// running to its expiry.
func (s *CodeStore) SaveNewCode(ctx context.Context, vc *webauth.ValidationCode) error {
	encoded, err := json.Marshal(vc)
	if err != nil {
		return err
	}
	ttl := time.Until(vc.ExpiresAt)
	if ttl <= 0 {
		return errors.New("validation code already expired")
	}
	if err := s.rdb.Set(ctx, s.key(vc.PrincipalID, vc.Purpose), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// GetExistingValidCode returns the stored code when it matches the
// presented value and has not expired, (nil, nil) otherwise.
func (s *CodeStore) GetExistingValidCode(ctx context.Context, principalID, code string, purpose webauth.CodePurpose) (*webauth.ValidationCode, error) {
	vc, err := s.get(ctx, s.key(principalID, purpose))
	if err != nil || vc == nil {
		return nil, err
	}
	if vc.Code != code || vc.Expired(time.Now()) {
		return nil, nil
	}
	return vc, nil
}

// GetLastCode returns the most recently created code for the principal
// across all purposes, (nil, nil) when none exists.
func (s *CodeStore) GetLastCode(ctx context.Context, principalID string) (*webauth.ValidationCode, error) {
	var last *webauth.ValidationCode
	for _, purpose := range webauth.Purposes() {
		vc, err := s.get(ctx, s.key(principalID, purpose))
		if err != nil {
			return nil, err
		}
		if vc != nil && (last == nil || vc.CreatedAt.After(last.CreatedAt)) {
			last = vc
		}
	}
	return last, nil
}

// DeleteExistingCode removes the principal's code for the given purpose.
// Deleting a missing code is not an error.
func (s *CodeStore) DeleteExistingCode(ctx context.Context, principalID string, purpose webauth.CodePurpose) error {
	if err := s.rdb.Del(ctx, s.key(principalID, purpose)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// DeleteCode removes a specific code record.
func (s *CodeStore) DeleteCode(ctx context.Context, vc *webauth.ValidationCode) error {
	return s.DeleteExistingCode(ctx, vc.PrincipalID, vc.Purpose)
}

func (s *CodeStore) get(ctx context.Context, key string) (*webauth.ValidationCode, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	var vc webauth.ValidationCode
	if err := json.Unmarshal(data, &vc); err != nil {
		return nil, err
	}
	return &vc, nil
}

var _ webauth.ValidationCodeRepository = (*CodeStore)(nil)
