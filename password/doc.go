// Package password implements the deterministic keyed password hash used for
// credential lookup.
//
// # Output format
//
// Hashes are the uppercase hex HMAC-SHA512 of the plaintext keyed with the
// application secret. There is no salt: equal plaintext and secret always
// yield equal output, so the persistence layer can look a principal up by
// (username, encoded password) equality.
//
// # Architecture boundaries
//
// This package owns encoding and comparison only. Which secret to use and
// when to re-encode is decided by the Authenticator.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other webauth package.
//   - Log plaintext passwords.
package password
