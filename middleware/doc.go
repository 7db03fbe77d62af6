// Package middleware exposes net/http adapters over the webauth core:
// bearer-token guarding, role gating and the wire-level failure headers.
//
// # Guards
//
//   - [Guard] — reads the Authorization header, fully validates the access
//     token and injects its claims into the request context.
//   - [RequireRole] — allows only the listed roles; multi-factor-pending
//     sessions are thereby locked to the code-verification endpoint.
//
// # Wire signals
//
// [WriteFailureHeaders] maps token-validation failures to the response
// headers clients use to disambiguate causes: Refresh-Token-Expired,
// Token-Invalid and Token-Expired, each set exactly once per failed
// attempt.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into core calls. It makes no
// authentication decisions of its own.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to token.Codec).
//   - Touch any repository.
//   - Surface error details to the caller beyond the contract headers.
package middleware
