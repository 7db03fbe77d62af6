// Package internal contains helper utilities that are intentionally private
// to webauth, currently secure random generation for challenge codes and
// opaque refresh tokens.
//
// # What this package must NOT do
//
//   - Export types that appear in the public webauth API.
//   - Be imported by any package outside the webauth module.
package internal
