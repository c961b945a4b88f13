package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Login endpoint defaults: 10 attempts per minute per client IP
const (
	DefaultLoginCapacity   = 10
	DefaultLoginRefillRate = 10.0 / 60.0
	defaultBucketTTL       = time.Hour
)

// NewLoginLimiter creates a rate limiter sized for credential endpoints
func NewLoginLimiter() *RateLimiter {
	return NewRateLimiter(DefaultLoginCapacity, DefaultLoginRefillRate, defaultBucketTTL)
}

// PerIP limits requests per client IP. Intended for the login endpoint to
// slow down credential stuffing; authenticated traffic should not sit behind
// it.
func PerIP(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.Allow(ip) {
				slog.Warn("Request rate limited", "ip", ip, "path", r.URL.Path)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
