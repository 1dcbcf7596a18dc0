// Package middleware exposes the HTTP request gate that sits in front of the
// application: it classifies each request as public or protected, resolves
// the session cookie for protected paths, and either forwards the request
// with the session in context or redirects to the login page.
//
// # Gate
//
//   - [Gate] — prefix-based public/protected classification plus cookie
//     session resolution.
//   - [SessionFromContext] — retrieves the session a passing request carries.
//
// Public paths are matched on segment boundaries and never trigger a session
// lookup. Protected paths without a live session are answered with a 303
// redirect to the login page carrying the original location in the
// callbackUrl query parameter.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into session lookups. It does NOT
// implement authentication itself; all decisions are delegated to the
// [SessionResolver].
//
// # What this package must NOT do
//
//   - Inspect or mint tokens (the resolver owns token semantics).
//   - Treat a backend failure as a pass. An unreachable session store means
//     the request is unauthenticated.
//   - Serve protected content on any classification it cannot prove public.
package middleware
