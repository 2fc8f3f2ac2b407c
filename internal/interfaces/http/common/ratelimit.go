package common

import (
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	logger         *log.Logger
	limit          rate.Limit
	burst          int
	idle           time.Duration
	trustedProxies int
	now            func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewIPRateLimiter allows perMinute requests per IP with the given burst. A
// non-positive perMinute disables limiting. trustedProxies is passed to ClientIP.
func NewIPRateLimiter(logger *log.Logger, perMinute, burst, trustedProxies int) *IPRateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		logger:         logger,
		limit:          limit,
		burst:          burst,
		idle:           10 * time.Minute,
		trustedProxies: trustedProxies,
		now:            time.Now,
		visitors:       make(map[string]*visitor),
	}
}

// Allow reports whether ip may make a request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	now := l.now()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Prune forgets visitors idle longer than ten minutes.
func (l *IPRateLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	removed := 0
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, ip)
			removed++
		}
	}
	return removed
}

// Middleware responds 429 once the caller's bucket is empty.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, l.trustedProxies)
		if !l.Allow(ip) {
			if l.logger != nil {
				l.logger.Printf("レート制限を超過しました: ip=%s path=%s", ip, r.URL.Path)
			}
			w.Header().Set("Retry-After", "60")
			WriteJSON(l.logger, w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"message": "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.",
				"error":   "rate limited",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
