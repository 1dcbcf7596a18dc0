// Package rate provides Redis-backed fixed-window counters used to throttle
// sign-in attempts per email and per IP.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  — sign-in per-email
//   - ali: — sign-in per-IP
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in the root package).
//   - Be imported outside the authcore module.
package rate
