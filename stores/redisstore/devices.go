package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/go-webauth/webauth"
)

// DeviceStore implements webauth.DeviceManager on Redis. It keeps one
// device id per principal; minting a new one replaces the previous id,
// which is what invalidates the prior session's device binding.
type DeviceStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewDeviceStore returns a DeviceStore using the given key prefix,
// defaulting to "webauth".
func NewDeviceStore(rdb redis.UniversalClient, prefix string) *DeviceStore {
	if prefix == "" {
		prefix = "webauth"
	}
	return &DeviceStore{rdb: rdb, prefix: prefix}
}

func (s *DeviceStore) key(principalID string) string {
	return s.prefix + ":device:" + principalID
}

// CreateNewDevice mints a fresh device id for the principal and stores it
// as the current one.
func (s *DeviceStore) CreateNewDevice(ctx context.Context, principalID string) (string, error) {
	id := uuid.NewString()
	if err := s.rdb.Set(ctx, s.key(principalID), id, 0).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return id, nil
}

// GetCurrentDevice returns the principal's current device id, or "" when
// none has been minted yet.
func (s *DeviceStore) GetCurrentDevice(ctx context.Context, principalID string) (string, error) {
	id, err := s.rdb.Get(ctx, s.key(principalID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return id, nil
}

var _ webauth.DeviceManager = (*DeviceStore)(nil)
