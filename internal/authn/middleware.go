package authn

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ctxClaimsKey is where the middleware stores verified claims.
const ctxClaimsKey = "authn.claims"

// Middleware returns an echo middleware that requires a valid bearer
// token and stores its claims on the request context.
func Middleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := issuer.Verify(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			c.Set(ctxClaimsKey, claims)
			return next(c)
		}
	}
}

// CurrentUser returns the claims stored by Middleware, or nil on
// unauthenticated routes.
func CurrentUser(c echo.Context) *Claims {
	claims, _ := c.Get(ctxClaimsKey).(*Claims)
	return claims
}

// LoginLimiter throttles credential attempts per client IP. Limiters
// idle for an hour are swept on each lookup.
type LoginLimiter struct {
	mu    sync.Mutex
	perIP map[string]*ipLimiter
	limit rate.Limit
	burst int
	now   func() time.Time
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows r attempts per second with the given burst.
func NewLoginLimiter(r rate.Limit, burst int) *LoginLimiter {
	return &LoginLimiter{
		perIP: make(map[string]*ipLimiter),
		limit: r,
		burst: burst,
		now:   time.Now,
	}
}

// Allow reports whether the IP may attempt a login right now.
func (ll *LoginLimiter) Allow(ip string) bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := ll.now()
	for k, v := range ll.perIP {
		if now.Sub(v.lastSeen) > time.Hour {
			delete(ll.perIP, k)
		}
	}

	entry, ok := ll.perIP[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(ll.limit, ll.burst)}
		ll.perIP[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.Allow()
}

// RateLimit wraps credential endpoints, answering 429 when an IP has
// exhausted its attempts.
func RateLimit(ll *LoginLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !ll.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, slow down")
			}
			return next(c)
		}
	}
}
