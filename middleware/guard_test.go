package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-webauth/webauth"
	"github.com/go-webauth/webauth/token"
)

func testCodec(t *testing.T, accessTTL time.Duration) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		Issuer:       "https://auth.example.com",
		Audience:     "example.app",
		Secret:       []byte("test-signing-secret"),
		AccessTTL:    accessTTL,
		TemporaryTTL: accessTTL,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardValidToken(t *testing.T) {
	codec := testCodec(t, time.Hour)
	signed, err := codec.Generate("principal-1", "Alice", token.RoleUser, "device-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var got *token.Claims
	handler := Guard(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got == nil || got.Subject != "principal-1" || got.Role != token.RoleUser {
		t.Fatalf("claims = %+v", got)
	}
}

func TestGuardMissingOrMalformedBearer(t *testing.T) {
	handler := Guard(testCodec(t, time.Hour))(okHandler())

	for _, auth := range []string{"", "Bearer ", "Basic dXNlcjpwdw==", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("Authorization %q: status = %d, want 401", auth, rr.Code)
		}
	}
}

func TestGuardInvalidToken(t *testing.T) {
	handler := Guard(testCodec(t, time.Hour))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if rr.Header().Get("Token-Invalid") != "true" {
		t.Fatal("Token-Invalid header must be set")
	}
	if rr.Header().Get("Token-Expired") != "" || rr.Header().Get("Refresh-Token-Expired") != "" {
		t.Fatal("only one failure header may be set")
	}
}

func TestGuardExpiredToken(t *testing.T) {
	codec := testCodec(t, time.Nanosecond)
	signed, err := codec.Generate("principal-1", "Alice", token.RoleUser, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	handler := Guard(codec)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if rr.Header().Get("Token-Expired") != "true" {
		t.Fatal("Token-Expired header must be set")
	}
	if rr.Header().Get("Token-Invalid") != "" {
		t.Fatal("expired must not also read as invalid")
	}
}

func TestRequireRole(t *testing.T) {
	codec := testCodec(t, time.Hour)

	serve := func(role token.Role, allowed ...token.Role) *httptest.ResponseRecorder {
		signed, err := codec.Generate("principal-1", "Alice", role, "")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		handler := Guard(codec)(RequireRole(allowed...)(okHandler()))
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	if rr := serve(token.RoleUser, token.RoleUser); rr.Code != http.StatusOK {
		t.Fatalf("allowed role: status = %d, want 200", rr.Code)
	}
	// A pending session cannot reach endpoints that require the full role.
	if rr := serve(token.RoleMultiFactorPending, token.RoleUser); rr.Code != http.StatusForbidden {
		t.Fatalf("pending role: status = %d, want 403", rr.Code)
	}
	if rr := serve(token.RoleMultiFactorPending, token.RoleMultiFactorPending); rr.Code != http.StatusOK {
		t.Fatalf("verification endpoint: status = %d, want 200", rr.Code)
	}
}

func TestWriteFailureHeaders(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		header string
	}{
		{"refresh token expired", webauth.ErrTokenExpired, "Refresh-Token-Expired"},
		{"access token expired", webauth.ErrAccessTokenExpired, "Token-Expired"},
		{"invalid token", webauth.ErrInvalidToken, "Token-Invalid"},
		{"record missing", webauth.ErrTokenNotFound, "Token-Invalid"},
		{"record mismatch", webauth.ErrTokenMismatch, "Token-Invalid"},
		{"invalid token user", webauth.ErrInvalidTokenUser, "Token-Invalid"},
	}
	all := []string{"Refresh-Token-Expired", "Token-Expired", "Token-Invalid"}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteFailureHeaders(rr, tc.err)
			for _, h := range all {
				want := ""
				if h == tc.header {
					want = "true"
				}
				if got := rr.Header().Get(h); got != want {
					t.Fatalf("%s = %q, want %q", h, got, want)
				}
			}
		})
	}
}
