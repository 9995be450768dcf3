// Package ratelimit rejects requests arriving faster than the configured
// rate.
package ratelimit

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

type Limiter struct {
	l *rate.Limiter
}

// New returns a limiter admitting perSecond requests per second with the given
// burst. A non-positive perSecond disables limiting.
func New(perSecond float64, burst int) *Limiter {
	if perSecond <= 0 {
		return &Limiter{l: rate.NewLimiter(rate.Inf, 0)}
	}

	return &Limiter{l: rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))}
}

func (l *Limiter) Allow() bool {
	return l.l.Allow()
}

// Middleware answers 429 to requests over the limit without calling next.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.l.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(1))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
