// Package redisstore provides Redis-backed reference implementations of the
// webauth repositories: validation codes, token records and device ids.
// Records are stored as JSON values with TTLs derived from their expiry, so
// expired entries age out without a sweeper.
//
// Hosts with their own persistence layer can ignore this package entirely;
// the core only sees the repository interfaces.
package redisstore
