package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/Fanatic033/shoro-market/pkg/httputil"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(r *http.Request) string

// ByUserID charges the authenticated customer, falling back to the client IP.
func ByUserID(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + clientIP(r)
}

// limiterStore keeps one token bucket per key. The least recently seen
// keys are evicted once size is reached.
type limiterStore struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func newLimiterStore(limit rate.Limit, burst, size int) *limiterStore {
	if size <= 0 {
		size = 10_000
	}
	// lru.New only fails on a non-positive size.
	cache, _ := lru.New[string, *rate.Limiter](size)
	return &limiterStore{limiters: cache, limit: limit, burst: burst}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(s.limit, s.burst)
	s.limiters.Add(key, l)
	return l
}

// RateLimit enforces a token bucket per key and answers 429 when it is empty.
func RateLimit(limit rate.Limit, burst, size int, key KeyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	store := newLimiterStore(limit, burst, size)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if !store.get(k).Allow() {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("key", k),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "1")
				httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
