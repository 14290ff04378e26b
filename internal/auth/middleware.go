package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type contextKey struct{}

// WithRecord returns a context carrying the session record.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, contextKey{}, rec)
}

// RecordFrom returns the session record stored by RequireAuth, or nil.
func RecordFrom(ctx context.Context) *Record {
	rec, _ := ctx.Value(contextKey{}).(*Record)
	return rec
}

// RequireAuth is middleware that redirects requests without a valid session
// to the login page. Public paths pass through. The session record is placed
// in the request context.
func RequireAuth(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		rec, err := sessions.Validate(r)
		if err != nil {
			if err != ErrNoSession {
				slog.Error("validating session", "err", err)
			}
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", "/login")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), rec)))
	})
}

func isPublicPath(path string) bool {
	switch path {
	case "/login", "/health", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/static/")
}

// LoginLimiter limits login attempts per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*ipLimiter
	ttl      time.Duration
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

const (
	loginRate  = rate.Limit(10.0 / 60.0) // 10 per minute
	loginBurst = 10
	limiterTTL = 10 * time.Minute
)

// NewLoginLimiter creates a limiter allowing ten attempts per minute per IP.
func NewLoginLimiter() *LoginLimiter {
	return &LoginLimiter{
		limit:    loginRate,
		burst:    loginBurst,
		limiters: make(map[string]*ipLimiter),
		ttl:      limiterTTL,
	}
}

// Allow reports whether ip may attempt another login.
func (l *LoginLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for k, v := range l.limiters {
		if now.Sub(v.lastAccess) > l.ttl {
			delete(l.limiters, k)
		}
	}

	il, ok := l.limiters[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = il
	}
	il.lastAccess = now
	return il.limiter.Allow()
}

// Middleware rejects POST requests from an IP over its limit with 429.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ip := clientIP(r)
			if !l.Allow(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
