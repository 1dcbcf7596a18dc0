// Package session implements the Redis-backed store for opaque-token
// sessions: a compact binary record codec and a [Store] with save, lookup,
// sliding refresh, idempotent delete, and revoke-all-for-user.
//
// # Architecture boundaries
//
// The package knows nothing about cookies, HTTP, or credentials. Callers
// hash the bearer token before it reaches the Store; the plaintext token
// never appears in a Redis key or value.
//
// # What this package must NOT do
//
//   - Generate tokens (the root package owns token minting).
//   - Decide session policy beyond the configured lifetime and window.
//   - Swallow Redis transport errors: lookups must distinguish a miss from
//     an unavailable backend so the caller can fail closed.
package session
