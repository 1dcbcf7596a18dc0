package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	authcore "github.com/casekit/authcore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// Config tunes the HTTP layer.
type Config struct {
	// CookieName is the session cookie written on sign-in.
	CookieName string
	// CookieTTL caps the cookie lifetime; align it with the session
	// lifetime.
	CookieTTL time.Duration
	// CookieSecure marks the cookie Secure; leave off only for local
	// development over plain HTTP.
	CookieSecure bool

	// RequestsPerSecond and Burst shape the per-IP limiter on the auth
	// endpoints. Zero disables it.
	RequestsPerSecond float64
	Burst             int
}

// API binds the account actions to their routes.
type API struct {
	actions *authcore.Actions
	config  Config
	logger  *slog.Logger
}

// New builds the API. A nil logger falls back to [slog.Default].
func New(actions *authcore.Actions, cfg Config, logger *slog.Logger) *API {
	if cfg.CookieName == "" {
		cfg.CookieName = "authcore_session"
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{actions: actions, config: cfg, logger: logger}
}

// Routes returns the router for mounting under /api/auth.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger(a.logger))
	if a.config.RequestsPerSecond > 0 {
		r.Use(perIPLimit(a.config.RequestsPerSecond, a.config.Burst))
	}

	r.Post("/sign-in", a.handleSignIn)
	r.Post("/sign-up", a.handleSignUp)
	r.Post("/sign-out", a.handleSignOut)
	r.Get("/session", a.handleGetSession)
	r.Post("/change-password", a.handleChangePassword)
	r.Post("/send-verification-otp", a.handleSendVerificationOtp)
	r.Post("/verify-email", a.handleVerifyEmail)
	r.Post("/forgot-password", a.handleForgotPassword)
	r.Post("/reset-password", a.handleResetPassword)

	return r
}

// requestContext threads the caller's network identity into the context so
// provider audit events carry it.
func requestContext(r *http.Request) *http.Request {
	ctx := r.Context()
	if ip := clientIP(r); ip != "" {
		ctx = authcore.WithClientIP(ctx, ip)
	}
	if ua := r.UserAgent(); ua != "" {
		ctx = authcore.WithUserAgent(ctx, ua)
	}
	return r.WithContext(ctx)
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

// statusFor maps a facade error code to the HTTP status sent with the
// failure envelope.
func statusFor(err *authcore.ActionError) int {
	if err == nil {
		return http.StatusOK
	}
	switch err.Code {
	case "invalid_credentials", "unauthenticated":
		return http.StatusUnauthorized
	case "account_exists":
		return http.StatusConflict
	case "rate_limited":
		return http.StatusTooManyRequests
	case "account_unverified", "account_unavailable":
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func writeResult[T any](w http.ResponseWriter, r *http.Request, result authcore.ActionResult[T]) {
	if result.Success {
		render.Status(r, http.StatusOK)
	} else {
		render.Status(r, statusFor(result.Error))
	}
	render.JSON(w, r, result)
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.config.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.config.CookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(a.config.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
