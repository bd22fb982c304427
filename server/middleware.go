package server

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/prescriptions-api/config"
	"github.com/giygas/prescriptions-api/handlers"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/metrics"
	"github.com/juju/ratelimit"
)

// RealIPMiddleware sets RemoteAddr to the first X-Forwarded-For entry, or
// strips the port from the socket address.
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.Index(xff, ","); idx != -1 {
				xff = xff[:idx]
			}
			r.RemoteAddr = strings.TrimSpace(xff)
		} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			r.RemoteAddr = host
		}
		next.ServeHTTP(w, r)
	})
}

// BlockDirectAccessMiddleware rejects requests that bypassed the reverse
// proxy. Loopback callers are always allowed; allowDirect disables the check.
func BlockDirectAccessMiddleware(allowDirect bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proxied := r.Header.Get("X-Real-IP") != "" || r.Header.Get("X-Forwarded-For") != ""
			if allowDirect || proxied || isLoopback(r.RemoteAddr) {
				next.ServeHTTP(w, r)
				return
			}

			logging.Warn("Direct access blocked", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())
			handlers.RespondWithError(w, http.StatusForbidden, "Direct access not allowed")
		})
	}
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// headerSize approximates the wire size of the request headers.
func headerSize(h http.Header) int64 {
	var n int64
	for key, values := range h {
		for _, v := range values {
			n += int64(len(key) + len(v))
		}
	}
	return n
}

func rejectOversized(w http.ResponseWriter, r *http.Request, code int, part string, size, limit int64) {
	logging.Warn("Request "+part+" too large",
		"size", size,
		"max_allowed", limit,
		"remote_addr", r.RemoteAddr,
	)
	handlers.RespondWithError(w, code,
		fmt.Sprintf("Request %s too large. Maximum allowed size is %d bytes", part, limit))
}

// RequestSizeMiddleware limits the size of request headers and body. Bodies
// without a Content-Length are capped while they are read.
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > cfg.MaxRequestBody {
				rejectOversized(w, r, http.StatusRequestEntityTooLarge, "body", r.ContentLength, cfg.MaxRequestBody)
				return
			}
			if n := headerSize(r.Header); n > cfg.MaxHeaderSize {
				rejectOversized(w, r, http.StatusRequestHeaderFieldsTooLarge, "headers", n, cfg.MaxHeaderSize)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	bucketRate     = 3
	bucketCapacity = 1000
)

// RateLimiter manages per-client token buckets
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a rate limiter and starts its cleanup loop
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop(30 * time.Minute)
	return rl
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(bucketRate, bucketCapacity)
			rl.clients[clientIP] = bucket
			metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
		}
		rl.mu.Unlock()
	}

	return bucket
}

// cleanup removes clients whose buckets have refilled
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
}

func (rl *RateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// getTokenCost prices a request by path.
func getTokenCost(r *http.Request) int64 {
	path := r.URL.Path

	switch path {
	case "/health", "/metrics":
		return 5
	case "/security/violations":
		return 1
	}

	switch {
	case strings.HasPrefix(path, "/prescriptions/") && strings.HasSuffix(path, "/removal"):
		return 50
	case strings.HasPrefix(path, "/prescriptions/"):
		return 25
	case strings.HasPrefix(path, "/removals/"):
		return 10
	case strings.HasPrefix(path, "/viewers/") && strings.HasSuffix(path, "/view-all"):
		return 100
	case strings.HasPrefix(path, "/viewers/"):
		return 2
	case strings.HasPrefix(path, "/patients/"):
		return 20
	}

	return 20
}

// Middleware rate limits requests by client address
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bucket := rl.getBucket(r.RemoteAddr)
		tokenCost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(bucketCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(bucketRate))

		if bucket.TakeAvailable(tokenCost) < tokenCost {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "60")
			handlers.RespondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}
