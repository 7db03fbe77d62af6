package webauth

import (
	"errors"
	"time"

	"github.com/go-webauth/webauth/token"
)

const (
	defaultAccessTokenTTL    = time.Hour
	defaultTemporaryTokenTTL = 15 * time.Minute
	defaultRefreshTokenTTL   = 30 * 24 * time.Hour

	// ValidationCodeTTL is how long a delivered challenge code stays valid.
	ValidationCodeTTL = 5 * time.Minute

	validationCodeDigits = 6
)

// Config is the process-wide security configuration. It is read by every
// token-issuing component and must not change after startup.
type Config struct {
	// Issuer identifies this issuing authority. It is embedded in every
	// bearer token and stamped on every persisted token record.
	Issuer string

	// Audience is the hosting application's package name, validated on
	// every token read when non-empty.
	Audience string

	// Secret signs bearer tokens. PreviousSecret, together with
	// EnableKeyRotation, lets tokens signed before a secret rotation remain
	// refreshable for one rotation cycle.
	Secret            string
	PreviousSecret    string
	EnableKeyRotation bool

	// PasswordSecret keys the password encoder. Defaults to Secret.
	PasswordSecret string

	// Token lifetimes. Zero values fall back to the package defaults.
	AccessTokenTTL    time.Duration
	TemporaryTokenTTL time.Duration
	RefreshTokenTTL   time.Duration

	// RefreshTokensExpire controls whether stored refresh tokens expire at
	// all. When false, record expiry is never enforced.
	RefreshTokensExpire bool

	// RequiredLoginPermission, when set, must be held by a principal for
	// login to succeed. Enforcement requires a PermissionChecker; if one is
	// not configured the check fails closed.
	RequiredLoginPermission string

	// TrustedCertificateIssuers are the issuer-DN suffixes accepted by the
	// certificate validation path.
	TrustedCertificateIssuers []string

	// MultiFactorEnabled globally enables the challenge-code second factor.
	MultiFactorEnabled bool
}

// Validate reports configuration errors that would otherwise surface as
// runtime failures.
func (c Config) Validate() error {
	if c.Secret == "" {
		return errors.New("webauth: signing secret is required")
	}
	if c.Issuer == "" {
		return errors.New("webauth: issuer is required")
	}
	if c.EnableKeyRotation && c.PreviousSecret == "" {
		return errors.New("webauth: key rotation requires a previous secret")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.PasswordSecret == "" {
		c.PasswordSecret = c.Secret
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = defaultAccessTokenTTL
	}
	if c.TemporaryTokenTTL <= 0 {
		c.TemporaryTokenTTL = defaultTemporaryTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	return c
}

func (c Config) codecConfig() token.Config {
	c = c.withDefaults()
	cfg := token.Config{
		Issuer:              c.Issuer,
		Audience:            c.Audience,
		Secret:              []byte(c.Secret),
		EnableKeyRotation:   c.EnableKeyRotation,
		AccessTTL:           c.AccessTokenTTL,
		TemporaryTTL:        c.TemporaryTokenTTL,
		RefreshTokensExpire: c.RefreshTokensExpire,
	}
	if c.PreviousSecret != "" {
		cfg.PreviousSecret = []byte(c.PreviousSecret)
	}
	return cfg
}

// NewCodec builds the token codec for this configuration.
func (c Config) NewCodec() (*token.Codec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return token.NewCodec(c.codecConfig())
}
