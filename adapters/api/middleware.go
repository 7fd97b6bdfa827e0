package api

import (
	"net/http"
	"time"

	"boxmeta/internal"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"
)

// RateLimiter rejects requests above a steady rate with 429
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *internal.Logger
}

// NewRateLimiter creates a token-bucket limiter shared by all clients
func NewRateLimiter(rps float64, burst int, logger *internal.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Handler implements rate limiting middleware
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiter.Allow() {
			rl.logger.Warn("[API] rate limit exceeded: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			w.Header().Set("Retry-After", "1")
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, ErrorResponse{Code: "RATE_LIMITED", Message: "rate limit exceeded, retry shortly"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request through the application logger
func requestLogger(logger *internal.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("[API] %s %s %d %dB %s (req %s)",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
		})
	}
}
