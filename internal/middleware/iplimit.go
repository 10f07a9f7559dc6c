package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/margdarshan-ai/margdarshan/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// IPLimiter throttles requests per client IP in front of the handlers. It is
// a coarse abuse guard; the per-user daily quotas are enforced separately
// against the store.
type IPLimiter struct {
	enabled  bool
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rpm      int
	burst    int
	logger   *logrus.Logger
}

func NewIPLimiter(cfg *config.IPRateLimitConfig, logger *logrus.Logger) *IPLimiter {
	l := &IPLimiter{
		enabled:  cfg.Enabled,
		limiters: make(map[string]*rate.Limiter),
		rpm:      cfg.RequestsPerMinute,
		burst:    cfg.Burst,
		logger:   logger,
	}

	if l.enabled {
		go l.cleanup(1 * time.Hour)
	}
	return l
}

// Middleware rejects over-limit clients with 429 before any handler runs.
func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !l.getLimiter(ip).Allow() {
			l.logger.WithField("ip", ip).Warn("IP rate limit exceeded")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *IPLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[ip]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[ip]; exists {
		return limiter
	}

	rps := float64(l.rpm) / 60.0
	limiter = rate.NewLimiter(rate.Limit(rps), l.burst)
	l.limiters[ip] = limiter

	return limiter
}

func (l *IPLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		if len(l.limiters) > 10000 {
			l.logger.Warn("IP limiter map size exceeded threshold, clearing")
			l.limiters = make(map[string]*rate.Limiter)
		}
		l.mu.Unlock()
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS adds the permissive cross-origin headers the web client expects.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
