package api

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/eugenenazirov/batch-picker/internal/metrics"
)

// searchCost is the number of tokens a search request consumes. Searches hold a
// frontier for the whole run, so they are throttled harder than reads.
const searchCost = 5

// rateLimiter grants n tokens at once or none.
type rateLimiter interface {
	AllowN(n int) bool
}

type limiterAdapter struct {
	limiter *rate.Limiter
}

func newTokenBucketLimiter(ratePerSecond float64, burst int) rateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}

	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// AllowN caps n at the bucket size so that a small burst never starves searches outright.
func (l *limiterAdapter) AllowN(n int) bool {
	if l == nil || l.limiter == nil {
		return true
	}
	return l.limiter.AllowN(time.Now(), min(n, l.limiter.Burst()))
}

func requestCost(r *http.Request) int {
	if r.Method == http.MethodPost && r.URL.Path == "/api/search" {
		return searchCost
	}
	return 1
}

func rateLimitMiddleware(limiter rateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := requestCost(r)
		if limiter.AllowN(cost) {
			next.ServeHTTP(w, r)
			return
		}
		if cost == searchCost {
			metrics.RecordSearchFailure("rate_limited")
		}
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}
