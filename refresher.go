package webauth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/go-webauth/webauth/metrics"
	"github.com/go-webauth/webauth/token"
)

// RefresherOptions carries the optional collaborators of a [Refresher].
type RefresherOptions struct {
	// Devices enables device-id backfill on records created before device
	// binding existed.
	Devices DeviceManager
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Refresher exchanges a valid refresh token plus a possibly expired access
// token for a new access token. The refresh token itself is never rotated
// by this operation.
type Refresher struct {
	cfg        Config
	codec      *token.Codec
	tokens     TokenRepository
	principals PrincipalRepository
	devices    DeviceManager
	log        *zap.Logger
	metrics    *metrics.Metrics
}

// NewRefresher builds a refresher over the given codec and repositories.
func NewRefresher(cfg Config, codec *token.Codec, tokens TokenRepository, principals PrincipalRepository, opts RefresherOptions) *Refresher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Refresher{
		cfg:        cfg.withDefaults(),
		codec:      codec,
		tokens:     tokens,
		principals: principals,
		devices:    opts.Devices,
		log:        log,
		metrics:    opts.Metrics,
	}
}

// GetNewAccessToken validates the presented pair and rewrites the stored
// record's access token.
//
// Failures are typed so the boundary layer can set the distinguishing wire
// header: ErrInvalidToken for blank inputs or an unverifiable access token,
// ErrInvalidTokenUser when the principal is gone or inactive, and the
// ErrTokenNotFound / ErrTokenMismatch / ErrTokenExpired triple from the
// record check, in that strict order.
func (r *Refresher) GetNewAccessToken(ctx context.Context, accessToken, refreshToken string) (string, error) {
	access, err := r.newAccessToken(ctx, accessToken, refreshToken)
	if err != nil {
		r.metrics.RefreshFailure()
		return "", err
	}
	r.metrics.RefreshSuccess()
	return access, nil
}

func (r *Refresher) newAccessToken(ctx context.Context, accessToken, refreshToken string) (string, error) {
	if accessToken == "" || refreshToken == "" {
		return "", ErrInvalidToken
	}

	claims, err := r.codec.ReadExpiredClaims(accessToken)
	if err != nil {
		return "", err
	}
	principalID := claims.Subject

	rec, err := r.tokens.GetToken(ctx, principalID, refreshToken)
	if err != nil {
		return "", fmt.Errorf("load token record: %w", err)
	}

	principal, err := r.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return "", ErrInvalidTokenUser
		}
		return "", err
	}
	if !principal.Active() {
		return "", ErrInvalidTokenUser
	}

	if err := r.codec.ValidateRecord(refreshToken, rec); err != nil {
		return "", err
	}

	// Records created before device binding existed carry no device id;
	// backfill it from the current device so the upgraded session behaves
	// like a freshly bound one.
	if r.devices != nil && rec.DeviceID == "" {
		deviceID, err := r.devices.GetCurrentDevice(ctx, principalID)
		if err != nil {
			return "", fmt.Errorf("resolve current device: %w", err)
		}
		rec.DeviceID = deviceID
	}

	access, err := r.codec.Generate(principalID, principal.DisplayName(), RoleUser, rec.DeviceID)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	rec.AccessToken = access
	if rec.Issuer == "" {
		rec.Issuer = r.cfg.Issuer
	}
	if err := r.tokens.UpdateToken(ctx, rec); err != nil {
		return "", fmt.Errorf("persist token record: %w", err)
	}

	r.log.Debug("access token refreshed", zap.String("principal", principalID))
	return access, nil
}
