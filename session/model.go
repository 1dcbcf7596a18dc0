package session

// Session is the server-side record behind one opaque session token. The
// token itself is never stored; records are keyed by its SHA-256 digest.
type Session struct {
	UserID        string
	Name          string
	Email         string
	Image         string
	EmailVerified bool

	CreatedAt int64
	ExpiresAt int64
}
