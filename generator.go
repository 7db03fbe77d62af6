package webauth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/go-webauth/webauth/internal"
	"github.com/go-webauth/webauth/metrics"
	"github.com/go-webauth/webauth/token"
)

// TokenGeneratorOptions carries the optional collaborators of a
// [TokenGenerator].
type TokenGeneratorOptions struct {
	// Devices, when set, enables device binding: a new device id is minted
	// for every non-temporary token and embedded as a claim.
	Devices DeviceManager
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// TokenGenerator builds the persisted access/refresh token pair for an
// authenticated principal.
type TokenGenerator struct {
	cfg     Config
	codec   *token.Codec
	tokens  TokenRepository
	devices DeviceManager
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewTokenGenerator builds a generator over the given codec and token
// repository.
func NewTokenGenerator(cfg Config, codec *token.Codec, tokens TokenRepository, opts TokenGeneratorOptions) *TokenGenerator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenGenerator{
		cfg:     cfg.withDefaults(),
		codec:   codec,
		tokens:  tokens,
		devices: opts.Devices,
		log:     log,
		metrics: opts.Metrics,
		now:     time.Now,
	}
}

// Generate issues and persists a token record for the principal under the
// given role.
//
// Non-temporary roles invalidate the principal's existing sessions for this
// issuer before the new record is persisted, and with device management
// active they also get a freshly minted device id. Temporary roles never
// bind a device and receive an empty refresh token.
func (g *TokenGenerator) Generate(ctx context.Context, principal AuthenticableEntity, role Role) (*token.Token, error) {
	deviceID := ""
	if !role.Temporary() && g.devices != nil {
		id, err := g.devices.CreateNewDevice(ctx, principal.ID())
		if err != nil {
			return nil, fmt.Errorf("create device: %w", err)
		}
		deviceID = id
	}

	access, err := g.codec.Generate(principal.ID(), principal.DisplayName(), role, deviceID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := ""
	if !role.Temporary() {
		refresh, err = internal.NewRefreshToken()
		if err != nil {
			return nil, err
		}
	}

	// A full login means a single active session: drop the principal's
	// prior records for this issuer before persisting, device-bound or not.
	if !role.Temporary() {
		if err := g.tokens.RemoveExistingToken(ctx, principal.ID(), g.cfg.Issuer); err != nil {
			return nil, fmt.Errorf("remove existing token: %w", err)
		}
	}

	rec := &token.Token{
		PrincipalID:  principal.ID(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    g.now().Add(g.cfg.RefreshTokenTTL),
		Issuer:       g.cfg.Issuer,
		Role:         role,
		DeviceID:     deviceID,
	}
	if err := g.tokens.AddToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	g.metrics.TokenIssued(string(role))
	g.log.Debug("token issued",
		zap.String("principal", principal.ID()),
		zap.String("role", string(role)),
		zap.Bool("deviceBound", deviceID != ""))
	return rec, nil
}
