package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"e_mairie_go/metrics"
	"e_mairie_go/services/i18n"

	"github.com/labstack/echo/v4"
)

// RateLimitConfig defines a fixed-window limit applied per visitor
type RateLimitConfig struct {
	// Name labels the limiter in metrics
	Name string
	// Requests is the maximum number of requests allowed within the window
	Requests int
	// Window is the time window for rate limiting
	Window time.Duration
	// KeyFunc identifies the visitor; defaults to the mairie code and client IP
	KeyFunc func(c echo.Context) string
	// MessageKey is the i18n key of the message shown once the limit is reached
	MessageKey string
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// RateLimiter counts requests per key in memory. Limits are per process.
type RateLimiter struct {
	config RateLimitConfig
	store  map[string]*rateLimitEntry
	mu     sync.Mutex
}

// NewRateLimiter creates a limiter and starts its cleanup loop
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = visitorKey
	}
	if config.MessageKey == "" {
		config.MessageKey = "flash.too_many_requests"
	}
	if config.Name == "" {
		config.Name = "default"
	}

	rl := &RateLimiter{
		config: config,
		store:  make(map[string]*rateLimitEntry),
	}
	go rl.cleanup()
	return rl
}

// visitorKey scopes a client IP to the mairie it is visiting, so one portal's
// traffic never throttles another's
func visitorKey(c echo.Context) string {
	if mairie := GetMairie(c); mairie != nil {
		return mairie.Code + "|" + c.RealIP()
	}
	return c.RealIP()
}

// Allow records a request for key and reports whether it is within the limit,
// with the time left in the current window when it is not
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.store[key]
	if !exists || now.After(entry.expiresAt) {
		rl.store[key] = &rateLimitEntry{count: 1, expiresAt: now.Add(rl.config.Window)}
		return true, 0
	}
	if entry.count >= rl.config.Requests {
		return false, entry.expiresAt.Sub(now)
	}
	entry.count++
	return true, 0
}

// Middleware answers 429 with a Retry-After header once a visitor exceeds the limit
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryIn := rl.Allow(rl.config.KeyFunc(c))
			if allowed {
				return next(c)
			}

			metrics.RequestsThrottled.WithLabelValues(rl.config.Name).Inc()
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryIn.Seconds())+1))
			return echo.NewHTTPError(http.StatusTooManyRequests, i18n.Translate(GetLocale(c), rl.config.MessageKey))
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.store {
			if now.After(entry.expiresAt) {
				delete(rl.store, key)
			}
		}
		rl.mu.Unlock()
	}
}

// LoginRateLimiter allows 5 sign-in attempts per minute
var LoginRateLimiter = NewRateLimiter(RateLimitConfig{
	Name:       "login",
	Requests:   5,
	Window:     time.Minute,
	MessageKey: "flash.too_many_logins",
})

// PublicFormRateLimiter allows 10 citizen submissions (requests, bookings, complaints) per minute
var PublicFormRateLimiter = NewRateLimiter(RateLimitConfig{
	Name:       "public_form",
	Requests:   10,
	Window:     time.Minute,
	MessageKey: "flash.too_many_forms",
})

// APIRateLimiter allows 60 slot lookups per minute
var APIRateLimiter = NewRateLimiter(RateLimitConfig{
	Name:     "api",
	Requests: 60,
	Window:   time.Minute,
})
