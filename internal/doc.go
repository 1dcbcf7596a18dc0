// Package internal holds shared low-level primitives for authcore: opaque
// token identifiers, one-time code generation, and secret hashing.
//
// # Architecture boundaries
//
// Nothing here touches Redis, Postgres, or the network. The package exists so
// that the root package and its stores agree on identifier formats without
// exporting them to consumers.
//
// # What this package must NOT do
//
//   - Import authcore or any of its sibling packages (no import cycles).
//   - Persist or log secret material.
package internal
