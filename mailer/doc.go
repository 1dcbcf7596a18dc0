// Package mailer provides [authcore.Mailer] implementations: an SMTP
// transport for production and a JSON-lines writer for development and
// tests.
//
// # What this package must NOT do
//
//   - Decide message content (the core composes subjects and bodies).
//   - Retry or queue; callers own delivery policy.
package mailer
