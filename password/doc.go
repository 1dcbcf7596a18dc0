// Package password implements Argon2id credential hashing with PHC-encoded
// output and constant-time verification.
//
// # Architecture boundaries
//
// The package owns hashing policy only. It never sees user records, never
// performs I/O, and never decides when a hash gets rotated — callers consult
// [Hasher.NeedsUpgrade] and act on the result.
package password
