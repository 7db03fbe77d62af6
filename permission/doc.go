// Package permission is an optional in-memory implementation of the
// webauth.PermissionChecker extension point. Permission names map to bits
// in a 64-bit set; grants are held per principal id.
//
// Hosts with a real authorization system (database ACLs, an external policy
// service) implement webauth.PermissionChecker themselves and skip this
// package.
//
// # Architecture boundaries
//
// The registry is write-once: register every permission, grant, then
// [Registry.Freeze] before serving lookups. After Freeze all reads are
// lock-free and safe for concurrent use.
package permission
