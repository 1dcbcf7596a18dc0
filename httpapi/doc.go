// Package httpapi exposes the account actions over JSON HTTP endpoints.
//
// Every endpoint wraps one facade action and returns its ActionResult
// envelope verbatim; the HTTP status code is derived from the error code so
// browser clients can branch on either. Session cookie handling (set on
// sign-in and sign-up, clear on sign-out) lives here and nowhere else.
//
// # What this package must NOT do
//
//   - Call the provider directly — everything goes through the facade.
//   - Leak backend error details; the facade already folded them away.
package httpapi
