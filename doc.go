// Package webauth is an authentication add-on library for web APIs. It
// issues and validates JWT access tokens backed by persisted refresh-token
// records, runs the delivered-challenge-code second factor, and validates
// proxy-forwarded client certificates for machine-to-machine calls.
//
// The package is the public surface: [Authenticator], [TokenGenerator],
// [Refresher], [MultiFactorHandler], [Config] and the collaborator
// interfaces the host must implement (principal, token and validation-code
// repositories, device manager, code sender/validator). Reference store
// implementations live under stores/, HTTP plumbing under middleware/.
//
// # Architecture boundaries
//
// Persistence is owned by the host. Every repository call is assumed atomic
// at the storage layer; the core holds no locks and keeps no shared mutable
// state beyond the read-only [Config] snapshot. All components are safe for
// concurrent use after construction.
//
// # What this package must NOT do
//
//   - Implement cryptographic primitives — HMAC/JWT signing comes from the
//     standard library and golang-jwt.
//   - Own session storage beyond the refresh-token record.
//   - Retry failed operations; retry and backoff are caller concerns. The
//     single alternate-key attempt during signature verification after a
//     secret rotation is the only internal retry, and it is not a loop.
package webauth
