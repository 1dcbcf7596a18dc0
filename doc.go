// Package authcore provides the authentication core for a patient case
// management backend: cookie-session sign-in over Redis, email+password
// accounts, OTP email verification, and single-use password reset links.
//
// The package is designed for concurrent server workloads: Provider methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. The [Actions] facade wraps every Provider operation into a
// uniform success/error result suitable for serving directly to clients.
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Provider], [Actions],
// [Builder], [Config], and value types (UserRecord, ActionResult, etc.).
// Account storage is externalized behind [UserDirectory]; outbound mail is
// externalized behind [Mailer]. Session encoding, token generation, and
// request-gating live in sub-packages and never reach the public API.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or encoding details in its
//     public API.
//   - Render HTML or hold HTTP state; cookie handling belongs to callers.
//   - Log or persist plaintext passwords, OTPs, or session tokens.
package authcore
