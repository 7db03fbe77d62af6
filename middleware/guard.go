package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-webauth/webauth"
	"github.com/go-webauth/webauth/token"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the validated token claims injected by [Guard].
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok
}

// Guard returns middleware that authenticates requests with a bearer access
// token. Expired tokens are answered with the Token-Expired header, any
// other validation failure with Token-Invalid; both yield a generic 401.
func Guard(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if codec == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			bearer, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := codec.Parse(bearer)
			if err != nil {
				WriteFailureHeaders(w, err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that rejects authenticated requests whose
// granted role is not in the allowed set. Endpoints that leave
// [webauth.RoleMultiFactorPending] out of their set are unreachable until
// the challenge code has been verified.
func RequireRole(roles ...token.Role) func(http.Handler) http.Handler {
	allowed := make(map[token.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteFailureHeaders sets the wire-level signal matching a token
// validation failure, exactly once:
//
//	Refresh-Token-Expired: true — the stored refresh token has expired
//	Token-Expired: true         — the presented access token has expired
//	Token-Invalid: true         — anything else about the pair is wrong
func WriteFailureHeaders(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, webauth.ErrTokenExpired):
		w.Header().Set("Refresh-Token-Expired", "true")
	case errors.Is(err, webauth.ErrAccessTokenExpired):
		w.Header().Set("Token-Expired", "true")
	case errors.Is(err, webauth.ErrInvalidToken),
		errors.Is(err, webauth.ErrTokenNotFound),
		errors.Is(err, webauth.ErrTokenMismatch),
		errors.Is(err, webauth.ErrInvalidTokenUser):
		w.Header().Set("Token-Invalid", "true")
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	tok := value[len(bearer):]
	if tok == "" {
		return "", false
	}

	return tok, true
}
