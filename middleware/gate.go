package middleware

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	authcore "github.com/casekit/authcore"
)

// DefaultCookieName is the session cookie the gate reads when no override
// is configured.
const DefaultCookieName = "authcore_session"

// DefaultLoginPath is where unauthenticated requests are sent.
const DefaultLoginPath = "/login"

// DefaultPublicPrefixes lists the path prefixes reachable without a session.
// A prefix matches the exact path and any path below it, never a sibling
// that merely shares leading characters ("/login" does not match "/loginx").
var DefaultPublicPrefixes = []string{
	"/login",
	"/signup",
	"/forgot-password",
	"/reset-password",
	"/verify-email",
}

// SessionResolver resolves a raw cookie token to a live session.
// [authcore.Provider] satisfies it.
type SessionResolver interface {
	GetSession(ctx context.Context, token string) (*authcore.Session, error)
}

type sessionContextKey struct{}

// SessionFromContext returns the session the gate attached to a protected
// request that passed.
func SessionFromContext(ctx context.Context) (*authcore.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*authcore.Session)
	return sess, ok
}

// Option adjusts gate behavior.
type Option func(*gateConfig)

type gateConfig struct {
	cookieName     string
	loginPath      string
	publicPrefixes []string
}

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(cfg *gateConfig) {
		if name != "" {
			cfg.cookieName = name
		}
	}
}

// WithLoginPath overrides the redirect target for unauthenticated requests.
func WithLoginPath(path string) Option {
	return func(cfg *gateConfig) {
		if path != "" {
			cfg.loginPath = path
		}
	}
}

// WithPublicPrefixes replaces the default public prefix list.
func WithPublicPrefixes(prefixes []string) Option {
	return func(cfg *gateConfig) {
		cfg.publicPrefixes = prefixes
	}
}

// Gate returns middleware that lets public paths through untouched and
// requires a live session for everything else. Requests that cannot present
// one, including requests the session backend fails on, are redirected to
// the login page with the original location in callbackUrl.
func Gate(resolver SessionResolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := gateConfig{
		cookieName:     DefaultCookieName,
		loginPath:      DefaultLoginPath,
		publicPrefixes: DefaultPublicPrefixes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path, cfg.publicPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			if resolver == nil {
				redirectToLogin(w, r, cfg.loginPath)
				return
			}

			cookie, err := r.Cookie(cfg.cookieName)
			if err != nil || cookie.Value == "" {
				redirectToLogin(w, r, cfg.loginPath)
				return
			}

			ctx := requestContext(r)
			sess, err := resolver.GetSession(ctx, cookie.Value)
			if err != nil {
				// Lookup miss and backend failure end the same way:
				// no proven session, no protected content.
				redirectToLogin(w, r, cfg.loginPath)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isPublicPath reports whether path falls under one of the public prefixes.
// Matching is segment-aware: the prefix itself, or the prefix followed by a
// path separator.
func isPublicPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if path == prefix {
			return true
		}
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) && path[len(prefix)] == '/' {
			return true
		}
	}
	return false
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath string) {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, loginPath+"?callbackUrl="+url.QueryEscape(target), http.StatusSeeOther)
}

// requestContext threads the caller's network identity into the context so
// downstream audit events carry it.
func requestContext(r *http.Request) context.Context {
	ctx := r.Context()
	if ip := clientIP(r); ip != "" {
		ctx = authcore.WithClientIP(ctx, ip)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = authcore.WithUserAgent(ctx, ua)
	}
	return ctx
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
