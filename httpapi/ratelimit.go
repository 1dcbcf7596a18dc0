package httpapi

import (
	"net/http"
	"sync"
	"time"

	authcore "github.com/casekit/authcore"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// ipLimiter hands out one token bucket per client IP. Entries idle for
// longer than ipLimiterTTL are dropped on the next sweep so the map does
// not grow without bound.
type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*ipClient
	rps     rate.Limit
	burst   int

	lastSweep time.Time
}

type ipClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const ipLimiterTTL = 10 * time.Minute

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		clients:   make(map[string]*ipClient),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > ipLimiterTTL {
		for ip, c := range l.clients {
			if now.Sub(c.lastSeen) > ipLimiterTTL {
				delete(l.clients, ip)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &ipClient{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// perIPLimit rejects requests above rps per client IP with 429. It is a
// process-local backstop in front of the Redis throttles inside the flows.
func perIPLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(rps, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(clientIP(r)) {
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, authcore.ActionResult[struct{}]{
					Success: false,
					Error:   &authcore.ActionError{Code: "rate_limited", Message: "Too many attempts. Please try again later"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
