package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config carries the signing settings for a [Codec]. Instances are
// configured during initialization and treated as immutable afterwards.
type Config struct {
	Issuer   string
	Audience string

	// Secret is the primary signing secret. PreviousSecret, when set
	// together with EnableKeyRotation, lets tokens signed before a secret
	// rotation remain readable for one rotation cycle.
	Secret            []byte
	PreviousSecret    []byte
	EnableKeyRotation bool

	// AccessTTL applies to non-temporary roles, TemporaryTTL to temporary
	// ones.
	AccessTTL    time.Duration
	TemporaryTTL time.Duration

	// RefreshTokensExpire controls whether [Codec.ValidateRecord] enforces
	// the stored record expiry at all.
	RefreshTokensExpire bool
}

// Claims are the bearer-token claims issued by [Codec.Generate]. Subject
// carries the principal id.
type Claims struct {
	DisplayName string `json:"name,omitempty"`
	Role        Role   `json:"role"`
	DeviceID    string `json:"deviceId,omitempty"`
	jwt.RegisteredClaims
}

// Codec creates signed bearer tokens and reads issued, possibly expired,
// ones back.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec validates cfg and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.AccessTTL <= 0 || cfg.TemporaryTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.EnableKeyRotation && len(cfg.PreviousSecret) == 0 {
		return nil, errors.New("key rotation requires a previous secret")
	}
	return &Codec{config: cfg, now: time.Now}, nil
}

// Lifetime returns the access-token lifetime applied to the given role.
func (c *Codec) Lifetime(role Role) time.Duration {
	if role.Temporary() {
		return c.config.TemporaryTTL
	}
	return c.config.AccessTTL
}

// Generate creates a signed access token embedding the subject id, display
// name, role and, when non-empty, the bound device id. Not-before is now;
// expiry is now plus the lifetime for the role.
func (c *Codec) Generate(subjectID, displayName string, role Role, deviceID string) (string, error) {
	now := c.now()
	claims := Claims{
		DisplayName: displayName,
		Role:        role,
		DeviceID:    deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.config.Issuer,
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.Lifetime(role))),
		},
	}
	if c.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{c.config.Audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.config.Secret)
}

// Parse fully validates an access token: signature, issuer, audience and
// expiry. Expired-but-otherwise-valid tokens fail with [ErrAccessExpired];
// anything else fails with [ErrInvalid].
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	claims, err := c.parse(tokenStr, true)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessExpired
		}
		return nil, ErrInvalid
	}
	return claims, nil
}

// ReadExpiredClaims parses a token while skipping expiry validation, for
// callers refreshing an expired token. Issuer, audience and signature are
// still validated. Signature verification first tries the primary secret;
// when key rotation is enabled a single retry against the previous secret
// follows, and a second failure is fatal.
func (c *Codec) ReadExpiredClaims(tokenStr string) (*Claims, error) {
	claims, err := c.parse(tokenStr, false)
	if err != nil {
		return nil, ErrInvalid
	}
	return claims, nil
}

// ValidateRecord checks a presented refresh token against the stored record.
// The check order is fixed: record existence before content, content before
// expiry, so callers can distinguish "never logged in", "wrong refresh token"
// and "session timed out".
func (c *Codec) ValidateRecord(presentedRefresh string, record *Token) error {
	if record == nil {
		return ErrNotFound
	}
	if record.RefreshToken != presentedRefresh {
		return ErrMismatch
	}
	if c.config.RefreshTokensExpire && c.now().After(record.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

func (c *Codec) parse(tokenStr string, validateExpiry bool) (*Claims, error) {
	claims, err := c.parseWithKey(tokenStr, c.config.Secret, validateExpiry)
	if err == nil {
		return claims, nil
	}
	// One alternate-key attempt after a rotation, never a loop.
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) && c.config.EnableKeyRotation && len(c.config.PreviousSecret) > 0 {
		return c.parseWithKey(tokenStr, c.config.PreviousSecret, validateExpiry)
	}
	return nil, err
}

func (c *Codec) parseWithKey(tokenStr string, key []byte, validateExpiry bool) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
	}
	if !validateExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	} else {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
		if c.config.Audience != "" {
			options = append(options, jwt.WithAudience(c.config.Audience))
		}
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !validateExpiry {
		// WithoutClaimsValidation skips issuer and audience too, so they
		// are re-checked here.
		if claims.Issuer != c.config.Issuer {
			return nil, jwt.ErrTokenInvalidIssuer
		}
		if c.config.Audience != "" && !containsAudience(claims.Audience, c.config.Audience) {
			return nil, jwt.ErrTokenInvalidAudience
		}
	}
	return claims, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
